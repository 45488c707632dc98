package preferences

import (
	"encoding/json"
	"log/slog"
	"net/http"

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

type viewDTO struct {
	Preferences Preferences `json:"preferences"`
	Loading     bool        `json:"loading"`
}

// Get serves the current preferences, letting the store decide between
// cache and network.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	h.Store.Fetch(r.Context())
	h.WriteJSON(w, http.StatusOK, viewDTO{
		Preferences: h.Store.Current(),
		Loading:     h.Store.Loading(),
	})
}

// Update applies a partial change immediately and returns the server's
// authoritative view.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var partial Partial
	if err := json.NewDecoder(r.Body).Decode(&partial); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if partial.IsEmpty() {
		h.WriteError(w, http.StatusBadRequest, "no preference fields supplied")
		return
	}

	updated, err := h.Store.Update(r.Context(), partial)
	if err != nil {
		h.WriteDomainError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, viewDTO{Preferences: updated})
}

// Queue accepts a partial change for a debounced write, for rapid toggle
// bursts on the settings page. The optimistic state is returned right away.
func (h *Handler) Queue(w http.ResponseWriter, r *http.Request) {
	var partial Partial
	if err := json.NewDecoder(r.Body).Decode(&partial); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if partial.IsEmpty() {
		h.WriteError(w, http.StatusBadRequest, "no preference fields supplied")
		return
	}

	h.Store.QueueUpdate(partial)
	h.WriteJSON(w, http.StatusAccepted, viewDTO{Preferences: h.Store.Current()})
}
