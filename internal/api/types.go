package api

// UserIdentity is the backend's view of the authenticated user.
type UserIdentity struct {
	ID        int64  `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// AuthPayload is returned by login, the current-user refresh, and the final
// onboarding step. It carries everything the session store persists.
type AuthPayload struct {
	Token                  string       `json:"token"`
	Roles                  []string     `json:"roles"`
	Permissions            []string     `json:"permissions"`
	Department             string       `json:"department"`
	User                   UserIdentity `json:"user"`
	RequiresPasswordChange bool         `json:"requires_password_change"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// EmployeeSnapshot is the identity excerpt the backend returns after phone
// verification; it is held locally until onboarding completes.
type EmployeeSnapshot struct {
	EmployeeID string `json:"employee_id"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Email      string `json:"email"`
	Department string `json:"department"`
}

type VerifyPhoneRequest struct {
	Email       string `json:"email"`
	PhoneNumber string `json:"phone_number"`
}

type VerifyPhoneResponse struct {
	VerificationToken string           `json:"verification_token"`
	Employee          EmployeeSnapshot `json:"employee"`
}

type GenerateUsernameRequest struct {
	VerificationToken string `json:"verification_token"`
	FirstName         string `json:"first_name"`
	LastName          string `json:"last_name"`
	EmployeeID        string `json:"employee_id"`
}

type GenerateUsernameResponse struct {
	Username string `json:"username"`
}

type CompleteSetupRequest struct {
	VerificationToken string `json:"verification_token"`
	Username          string `json:"username"`
	Password          string `json:"password"`
}

// PreferencesPayload uses the backend's external field naming; translation
// from the portal's field names happens in the preferences package.
type PreferencesPayload struct {
	EmailNotifications *bool   `json:"email_notifications,omitempty"`
	SMSNotifications   *bool   `json:"sms_notifications,omitempty"`
	PushNotifications  *bool   `json:"push_notifications,omitempty"`
	Theme              *string `json:"theme,omitempty"`
	Language           *string `json:"language,omitempty"`
	Timezone           *string `json:"timezone,omitempty"`
}

type PreferencesResponse struct {
	EmailNotifications bool   `json:"email_notifications"`
	SMSNotifications   bool   `json:"sms_notifications"`
	PushNotifications  bool   `json:"push_notifications"`
	Theme              string `json:"theme"`
	Language           string `json:"language"`
	Timezone           string `json:"timezone"`
}
