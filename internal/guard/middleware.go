package guard

import (
	"net/http"
	"strconv"

	internal "github.com/campushr/hrms-portal/internal"
	"github.com/campushr/hrms-portal/internal/session"
	"github.com/campushr/hrms-portal/internal/storage"
)

// SessionSource is the read-only view of the session the middleware needs.
type SessionSource interface {
	State() session.State
	Current() session.Session
}

// Protect wraps a route with the general guard. Redirects are served as
// 302s; a still-settling session answers with a retryable holding page
// instead of flashing the login screen.
func Protect(sessions SessionSource, req Requirement) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := sessions.Current()
			decision := Evaluate(sessions.State(), sess, req, r.URL.Path)
			if decision.Kind == KindAllow && sess.UserID != 0 {
				ctx := internal.ContextWithUserID(r.Context(), strconv.FormatInt(sess.UserID, 10))
				r = r.WithContext(ctx)
			}
			serve(w, r, decision, next)
		})
	}
}

// ProtectOnboarding wraps one wizard step with the sequencing guard.
func ProtectOnboarding(st storage.Store, sessions SessionSource, step Step) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authenticated := sessions.State() == session.StateAuthenticated
			decision := EvaluateOnboarding(st, authenticated, step)
			serve(w, r, decision, next)
		})
	}
}

func serve(w http.ResponseWriter, r *http.Request, decision Decision, next http.Handler) {
	switch decision.Kind {
	case KindRedirect:
		http.Redirect(w, r, decision.Target, http.StatusFound)
	case KindHold:
		w.Header().Set("Retry-After", "1")
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("session is loading, retry shortly"))
	default:
		next.ServeHTTP(w, r)
	}
}
