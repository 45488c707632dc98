package session

import (
	internal "github.com/campushr/hrms-portal/internal"
)

type LoginDTO struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (d LoginDTO) Validate() error {
	if d.Email == "" || d.Password == "" {
		return internal.NewValidationError("email and password are required", internal.ErrCodeValidationFailed)
	}
	return nil
}

// ViewDTO is the session snapshot served to the UI. The raw token never
// leaves the gateway; the backend client holds it.
type ViewDTO struct {
	State                  State    `json:"state"`
	UserID                 int64    `json:"user_id,omitempty"`
	Email                  string   `json:"email,omitempty"`
	FirstName              string   `json:"first_name,omitempty"`
	LastName               string   `json:"last_name,omitempty"`
	Department             string   `json:"department,omitempty"`
	Roles                  []string `json:"roles,omitempty"`
	Permissions            []string `json:"permissions,omitempty"`
	RequiresPasswordChange bool     `json:"requires_password_change"`
}

func viewOf(state State, sess Session) ViewDTO {
	view := ViewDTO{State: state}
	if state != StateAuthenticated {
		return view
	}

	view.UserID = sess.UserID
	view.Email = sess.Email
	view.FirstName = sess.FirstName
	view.LastName = sess.LastName
	view.Department = sess.Department
	view.Roles = sess.Roles
	view.Permissions = sess.Permissions
	view.RequiresPasswordChange = sess.RequiresPasswordChange
	return view
}
