package onboarding

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/campushr/hrms-portal/internal/transport"
	"github.com/campushr/hrms-portal/pkg/logger"
)

type Handler struct {
	*transport.BaseHandler
	Service *Service
}

func NewHandler(svc *Service) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     svc,
	}
}

// writeStepError keeps the attempts counter and lock flag in the body so
// the UI can render the inline banner; other errors fall through to the
// shared mapping.
func (h *Handler) writeStepError(w http.ResponseWriter, err error) {
	var stepErr *StepError
	if !errors.As(err, &stepErr) {
		h.WriteDomainError(w, err)
		return
	}

	body := map[string]interface{}{
		"code":    http.StatusUnprocessableEntity,
		"message": stepErr.Message,
		"locked":  stepErr.Locked,
	}
	if stepErr.AttemptsRemaining != nil {
		body["attempts_remaining"] = *stepErr.AttemptsRemaining
	}
	if stepErr.Locked {
		body["support_email"] = SupportEmail
	}
	h.WriteJSON(w, http.StatusUnprocessableEntity, body)
}

type verifyDTO struct {
	Email       string `json:"email"`
	PhoneNumber string `json:"phone_number"`
}

type confirmUsernameDTO struct {
	Username string `json:"username"`
}

type completeSetupDTO struct {
	Password        string `json:"password"`
	PasswordConfirm string `json:"password_confirm"`
}

type resendDTO struct {
	EmployeeID int64 `json:"employee_id"`
}

// Verify handles step 1 submission.
func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	var dto verifyDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	employee, err := h.Service.VerifyIdentity(r.Context(), dto.Email, dto.PhoneNumber)
	if err != nil {
		h.writeStepError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"employee": employee,
		"next":     "/onboarding/username",
	})
}

// Username serves step 2: the derived username beside the read-only
// profile fields, with the support contact for corrections.
func (h *Handler) Username(w http.ResponseWriter, r *http.Request) {
	proposal, err := h.Service.ProposeUsername(r.Context())
	if err != nil {
		h.writeStepError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"username":      proposal.Username,
		"employee":      proposal.Employee,
		"support_email": SupportEmail,
	})
}

// ConfirmUsername handles step 2 submission.
func (h *Handler) ConfirmUsername(w http.ResponseWriter, r *http.Request) {
	var dto confirmUsernameDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.Service.ConfirmUsername(dto.Username); err != nil {
		h.WriteDomainError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]string{"next": "/onboarding/password"})
}

// CompleteSetup handles the final step; on success the session is live and
// the UI moves to the dashboard.
func (h *Handler) CompleteSetup(w http.ResponseWriter, r *http.Request) {
	var dto completeSetupDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.Service.CompleteSetup(r.Context(), dto.Password, dto.PasswordConfirm); err != nil {
		h.writeStepError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]string{"next": "/dashboard"})
}

// Restart discards the flow's scratch state.
func (h *Handler) Restart(w http.ResponseWriter, r *http.Request) {
	h.Service.Restart()
	w.WriteHeader(http.StatusNoContent)
}

// ResendWelcomeEmail is the administrative resend; the router guards it
// behind the HR Manager role.
func (h *Handler) ResendWelcomeEmail(w http.ResponseWriter, r *http.Request) {
	var dto resendDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if dto.EmployeeID <= 0 {
		h.WriteError(w, http.StatusBadRequest, "employee_id is required")
		return
	}

	if err := h.Service.ResendWelcomeEmail(r.Context(), dto.EmployeeID); err != nil {
		h.writeStepError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
