package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/campushr/hrms-portal/internal"
	"github.com/campushr/hrms-portal/internal/api"
	"github.com/campushr/hrms-portal/internal/core/events"
	"github.com/campushr/hrms-portal/internal/onboarding"
	"github.com/campushr/hrms-portal/internal/preferences"
	"github.com/campushr/hrms-portal/internal/session"
	"github.com/campushr/hrms-portal/internal/storage"
	"github.com/campushr/hrms-portal/internal/transport/rest"
	"github.com/campushr/hrms-portal/pkg/logger"

	"github.com/go-chi/chi"
	"github.com/spf13/cobra"
)

var gatewayCmd = &cobra.Command{
	Use:   "gateway",
	Short: "Start the portal gateway",
	Long:  `Start the HTTP gateway that serves the portal routes and proxies the HRMS backend`,
	Run: func(cmd *cobra.Command, args []string) {
		startGateway()
	},
}

type Dependencies struct {
	Config      *internal.Config
	Store       storage.Store
	Sessions    *session.Store
	Preferences *preferences.Store
	Router      *chi.Mux
	Logger      *slog.Logger
}

func startGateway() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	// Confirm any restored session in the background; the guards hold
	// requests until this settles.
	go func() {
		ctx, cancel := internal.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := deps.Sessions.RefreshPermissions(ctx); err != nil {
			deps.Logger.Warn("session refresh on startup failed", "error", err)
		}
	}()

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	slog.Info("Starting portal gateway", "address", addr)

	server := &http.Server{
		Addr:         addr,
		Handler:      deps.Router,
		ReadTimeout:  deps.Config.Server.ReadTimeout,
		WriteTimeout: deps.Config.Server.WriteTimeout,
		IdleTimeout:  deps.Config.Server.IdleTimeout,
	}

	// Signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		slog.Info("Received signal, shutting down...", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}
		deps.Preferences.Close()
	case err := <-serverErrChan:
		if err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}

	slog.Info("Gateway stopped")
}

func initializeDependencies() (*Dependencies, error) {
	config, err := loadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger.Init(config.Observability.Logging.Format, config.Observability.Logging.Level)
	lg := logger.LoggerWrapper()

	store, err := initStore(config.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize client state store: %w", err)
	}

	client := api.NewClient(api.Config{
		BaseURL: config.API.BaseURL,
		Timeout: config.API.Timeout,
	}, lg)

	bus := events.NewEventBus(lg)
	sessions := session.NewStore(store, client, bus, lg)

	// A token the backend rejects on any call is fatal to the whole session,
	// not just the refresh path.
	client.SetUnauthorizedHook(func() {
		sessions.ClearAuthData(context.Background(), "token rejected by backend")
	})

	prefs := preferences.NewStore(store, client, preferences.NewMarkerApplier(), preferences.NewStaticScheme(preferences.SchemeLight), preferences.Config{
		CacheTTL:     config.Preferences.CacheTTL,
		SaveDebounce: config.Preferences.SaveDebounce,
	}, lg)

	// A cleared session invalidates every per-user cache.
	bus.Subscribe(events.EventTypeSessionCleared, func(ctx context.Context, event events.Event) error {
		prefs.ClearCache()
		return nil
	})

	retryPolicy := api.RetryPolicy{
		MaxRetries: uint64(config.Retry.MaxRetries),
		BaseDelay:  config.Retry.BaseDelay,
	}
	onboardingService := onboarding.NewService(store, client, sessions, retryPolicy, lg)

	router := chi.NewRouter()
	rest.RegisterAllRoutes(
		router,
		store,
		sessions,
		session.NewHandler(sessions),
		prefs,
		preferences.NewHandler(prefs),
		onboarding.NewHandler(onboardingService),
		lg,
	)

	return &Dependencies{
		Config:      config,
		Store:       store,
		Sessions:    sessions,
		Preferences: prefs,
		Router:      router,
		Logger:      lg,
	}, nil
}

// initStore opens the configured client state backend.
func initStore(cfg internal.StorageConfig) (storage.Store, error) {
	if cfg.Driver == "memory" {
		return storage.NewMemory(), nil
	}
	return storage.Open(cfg.Driver, cfg.GetDSN())
}
