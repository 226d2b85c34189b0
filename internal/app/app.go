package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/vadim/chatlink/internal/config"
	httpcontroller "github.com/vadim/chatlink/internal/controller/http"
	feedservice "github.com/vadim/chatlink/internal/domain/feed/service"
	feedstore "github.com/vadim/chatlink/internal/domain/feed/store"
	personaservice "github.com/vadim/chatlink/internal/domain/persona/service"
	threadentity "github.com/vadim/chatlink/internal/domain/thread/entity"
	"github.com/vadim/chatlink/internal/domain/thread/scheduler"
	threadservice "github.com/vadim/chatlink/internal/domain/thread/service"
	threadstore "github.com/vadim/chatlink/internal/domain/thread/store"
	"github.com/vadim/chatlink/internal/httpx/upstream/chatapi"
	"github.com/vadim/chatlink/internal/notify"
	"github.com/vadim/chatlink/internal/syncx"
)

// App is the main application container
type App struct {
	cfg        config.Config
	httpServer *http.Server
	router     *chi.Mux
	logger     *slog.Logger

	notices *notify.Bus

	threadStore   *threadstore.Store
	feedStore     *feedstore.Store
	threadService *threadservice.Service
	feedService   *feedservice.Service
	personas      *personaservice.Service

	// Scheduler for the periodic thread directory refresh
	scheduler *scheduler.Scheduler

	// Keyed poller driving the periodic feed reload
	feedPoller *syncx.Poller
}

// NewApp creates and initializes the application
func NewApp(ctx context.Context, cfg config.Config) (*App, error) {
	// Initialize logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	// Initialize router with middleware
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(middleware.Timeout(30 * time.Second))

	app := &App{
		cfg:    cfg,
		router: r,
		logger: logger,
	}

	// Initialize domain layers
	if err := app.initDomains(ctx); err != nil {
		return nil, fmt.Errorf("initializing domains: %w", err)
	}

	// Register routes
	app.registerRoutes()

	// Initialize HTTP server
	app.httpServer = &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      app.router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Initialize the directory refresh scheduler
	app.scheduler = scheduler.New(app.threadService, scheduler.Config{
		Interval: cfg.Sync.ThreadInterval,
	}, logger)

	return app, nil
}

// initDomains initializes domain layers (stores, services, upstream client)
func (a *App) initDomains(ctx context.Context) error {
	a.notices = notify.NewBus(a.logger)

	// Initialize the chat backend client
	client := chatapi.New(
		chatapi.WithBaseURL(a.cfg.Backend.BaseURL),
		chatapi.WithTokenSource(chatapi.StaticTokenSource(a.cfg.Backend.Token)),
		chatapi.WithUnauthorizedHook(func() {
			a.logger.Warn("backend rejected credentials")
			a.notices.Notify("Your session has expired. Please sign in again.")
		}),
	)

	a.threadStore = threadstore.New()
	a.feedStore = feedstore.New()

	role := threadentity.Role(a.cfg.Backend.Role)
	if role != threadentity.RoleUser && role != threadentity.RoleAgent {
		role = threadentity.RoleUser
	}

	a.threadService = threadservice.New(
		&chatAPIAdapter{client: client},
		a.threadStore,
		a.notices,
		threadservice.Config{
			Role:                role,
			PageLimit:           a.cfg.Sync.PageLimit,
			DebounceQuiet:       a.cfg.Sync.DebounceQuiet,
			MessagePollInterval: a.cfg.Sync.MessagePollInterval,
		},
		a.logger,
	)

	a.feedService = feedservice.New(
		&feedAPIAdapter{client: client},
		a.feedStore,
		a.notices,
		feedservice.Config{
			PageLimit:  a.cfg.Sync.FeedPageLimit,
			ReplyLimit: a.cfg.Sync.ReplyLimit,
		},
		a.logger,
	)

	a.personas = personaservice.New(&personaAPIAdapter{client: client})

	a.feedPoller = syncx.NewPoller(a.logger)

	return nil
}

// registerRoutes registers all HTTP routes
func (a *App) registerRoutes() {
	// Health check
	a.router.Get("/healthz", a.healthHandler)
	a.router.Get("/readyz", a.readyHandler)

	// API v1
	a.router.Route("/api/v1", func(r chi.Router) {
		threadHandler := httpcontroller.NewThreadHandler(a.threadService, a.threadStore)
		threadHandler.RegisterRoutes(r)

		feedHandler := httpcontroller.NewFeedHandler(a.feedService, a.feedStore)
		feedHandler.RegisterRoutes(r)

		personaHandler := httpcontroller.NewPersonaHandler(a.personas)
		personaHandler.RegisterRoutes(r)

		noticeHandler := httpcontroller.NewNoticeHandler(a.notices)
		noticeHandler.RegisterRoutes(r)
	})
}

// healthHandler handles health check requests
func (a *App) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

// readyHandler handles readiness check requests
func (a *App) readyHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ready"}`))
}

// Run starts the application and blocks until shutdown signal
func (a *App) Run(ctx context.Context) error {
	// Start the directory refresh loop
	a.scheduler.Start(ctx)

	// Start the feed reload loop
	feedInterval := a.cfg.Sync.FeedInterval
	if feedInterval <= 0 {
		feedInterval = 45 * time.Second
	}
	a.feedPoller.Start(ctx, "feed", feedInterval, func(ctx context.Context) {
		a.feedService.Refresh(ctx)
	})

	// Channel to receive errors from server
	errCh := make(chan error, 1)

	// Start HTTP server in goroutine
	go func() {
		a.logger.Info("starting HTTP server", "addr", a.cfg.Server.Address())
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case sig := <-quit:
		a.logger.Info("received shutdown signal", "signal", sig.String())
	case <-ctx.Done():
		a.logger.Info("context cancelled")
	}

	// Graceful shutdown
	return a.Shutdown(context.Background())
}

// Shutdown gracefully shuts down the application
func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("shutting down...")

	a.scheduler.Stop()
	a.feedPoller.StopAll()
	a.threadService.Close()

	// Shutdown HTTP server with timeout
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down HTTP server: %w", err)
	}

	a.logger.Info("shutdown complete")
	return nil
}
