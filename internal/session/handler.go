package session

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/campushr/hrms-portal/internal/api"
	"github.com/campushr/hrms-portal/internal/transport"
	"github.com/campushr/hrms-portal/pkg/logger"
)

type Handler struct {
	*transport.BaseHandler
	Store *Store
}

func NewHandler(store *Store) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Store:       store,
	}
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var dto LoginDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := dto.Validate(); err != nil {
		h.WriteDomainError(w, err)
		return
	}

	sess, err := h.Store.Login(r.Context(), dto.Email, dto.Password)
	if err != nil {
		h.Logger.Warn("login failed", "email", dto.Email, "error", err)

		if apiErr, ok := api.AsError(err); ok {
			if apiErr.StatusCode == http.StatusUnauthorized {
				h.WriteError(w, http.StatusUnauthorized, "invalid email or password")
				return
			}
			if apiErr.IsTransient() {
				h.WriteError(w, http.StatusBadGateway, "the server is unavailable, please try again")
				return
			}
			h.WriteError(w, apiErr.StatusCode, apiErr.Message)
			return
		}
		h.WriteError(w, http.StatusBadGateway, "the server is unavailable, please try again")
		return
	}

	h.WriteJSON(w, http.StatusOK, viewOf(StateAuthenticated, *sess))
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	h.Store.Logout(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

// Me serves the current session snapshot, refreshing roles and permissions
// from the backend first so a permission change made elsewhere is visible.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.RefreshPermissions(r.Context()); err != nil {
		h.WriteError(w, http.StatusUnauthorized, "session has expired")
		return
	}

	h.WriteJSON(w, http.StatusOK, viewOf(h.Store.State(), h.Store.Current()))
}
