package rest

import (
	"log/slog"
	"net/http"

	internal "github.com/campushr/hrms-portal/internal"
	"github.com/campushr/hrms-portal/internal/guard"
	"github.com/campushr/hrms-portal/internal/preferences"
	"github.com/campushr/hrms-portal/internal/session"
	"github.com/campushr/hrms-portal/internal/transport"
)

// PagesHandler serves the view payloads behind the guarded routes. The
// portal is API-shaped: each page returns the data its screen renders and
// the guards decide reachability before these run.
type PagesHandler struct {
	*transport.BaseHandler
	sessions *session.Store
	prefs    *preferences.Store
}

func NewPagesHandler(sessions *session.Store, prefs *preferences.Store, logger *slog.Logger) *PagesHandler {
	return &PagesHandler{
		BaseHandler: transport.NewBaseHandler(logger),
		sessions:    sessions,
		prefs:       prefs,
	}
}

func (h *PagesHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	sess := h.sessions.Current()
	h.prefs.Fetch(r.Context())
	h.Logger.Debug("dashboard viewed", "user_id", internal.UserIDFromContext(r.Context()))

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"page":        "dashboard",
		"greeting":    sess.FirstName,
		"department":  sess.Department,
		"roles":       sess.Roles,
		"preferences": h.prefs.Current(),
	})
}

func (h *PagesHandler) Employees(w http.ResponseWriter, r *http.Request) {
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"page":       "employees",
		"department": h.sessions.Current().Department,
	})
}

func (h *PagesHandler) Payroll(w http.ResponseWriter, r *http.Request) {
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"page": "payroll",
	})
}

func (h *PagesHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"page":     "change_password",
		"required": h.sessions.Current().RequiresPasswordChange,
	})
}

func (h *PagesHandler) Unauthorized(w http.ResponseWriter, r *http.Request) {
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"page":    "unauthorized",
		"message": "you do not have access to that page",
		"back":    guard.PathDashboard,
	})
}

func (h *PagesHandler) LoginPage(w http.ResponseWriter, r *http.Request) {
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"page":  "login",
		"state": h.sessions.State(),
	})
}
