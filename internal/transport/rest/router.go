package rest

import (
	"log/slog"
	"net/http"

	"github.com/campushr/hrms-portal/internal/guard"
	"github.com/campushr/hrms-portal/internal/onboarding"
	"github.com/campushr/hrms-portal/internal/preferences"
	"github.com/campushr/hrms-portal/internal/session"
	"github.com/campushr/hrms-portal/internal/storage"
	"github.com/campushr/hrms-portal/internal/transport/middleware"
	"github.com/campushr/hrms-portal/internal/transport/swagger"
	"github.com/go-chi/chi"
)

// RegisterAllRoutes wires the portal surface: the auth endpoints, the
// guarded page routes, preferences, and the onboarding wizard. Guards run
// as route middleware so sequencing and access rules apply before any
// handler.
func RegisterAllRoutes(
	router *chi.Mux,
	store storage.Store,
	sessions *session.Store,
	sessionHandler *session.Handler,
	prefs *preferences.Store,
	prefsHandler *preferences.Handler,
	onboardingHandler *onboarding.Handler,
	logger *slog.Logger,
) {
	healthHandler := NewHealthHandler(store)
	pages := NewPagesHandler(sessions, prefs, logger)

	// Apply global middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.RecoveryMiddleware(logger))
	router.Use(middleware.LoggingMiddleware(logger))

	// Serve OpenAPI spec at root
	router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "./api/openapi.yml")
	})
	router.Handle("/swagger/*", swagger.Handler())

	// Health check routes
	router.Get("/health", healthHandler.healthCheckHandler)
	router.Get("/ping", healthHandler.pingHandler)

	// Session routes
	router.Post("/login", sessionHandler.Login)
	router.Post("/logout", sessionHandler.Logout)
	router.Get("/me", sessionHandler.Me)
	router.Get(guard.PathLogin, pages.LoginPage)
	router.Get(guard.PathUnauthorized, pages.Unauthorized)

	// Onboarding wizard with per-step sequencing guards
	router.Route("/onboarding", func(r chi.Router) {
		r.Group(func(sr chi.Router) {
			sr.Use(guard.ProtectOnboarding(store, sessions, guard.StepVerify))
			sr.Post("/verify", onboardingHandler.Verify)
		})
		r.Group(func(sr chi.Router) {
			sr.Use(guard.ProtectOnboarding(store, sessions, guard.StepUsername))
			sr.Get("/username", onboardingHandler.Username)
			sr.Post("/username", onboardingHandler.ConfirmUsername)
		})
		r.Group(func(sr chi.Router) {
			sr.Use(guard.ProtectOnboarding(store, sessions, guard.StepPassword))
			sr.Post("/password", onboardingHandler.CompleteSetup)
		})
		r.Post("/restart", onboardingHandler.Restart)
	})

	// Authenticated pages
	router.Group(func(pr chi.Router) {
		pr.Use(guard.Protect(sessions, guard.Requirement{}))
		pr.Get(guard.PathDashboard, pages.Dashboard)
		pr.Get(guard.PathChangePassword, pages.ChangePassword)

		pr.Route("/preferences", func(sr chi.Router) {
			sr.Get("/", prefsHandler.Get)
			sr.Patch("/", prefsHandler.Update)
			sr.Post("/queue", prefsHandler.Queue)
		})
	})

	// Role and permission protected pages
	router.Group(func(pr chi.Router) {
		pr.Use(guard.Protect(sessions, guard.Requirement{Role: session.RoleHRManager}))
		pr.Get("/employees", pages.Employees)
		pr.Post("/onboarding/resend-welcome-email", onboardingHandler.ResendWelcomeEmail)
	})

	router.Group(func(pr chi.Router) {
		pr.Use(guard.Protect(sessions, guard.Requirement{Permission: "view_all_payroll"}))
		pr.Get("/payroll", pages.Payroll)
	})
}
