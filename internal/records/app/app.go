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

	httpapi "github.com/folioworks/folio/internal/records/http"
	"github.com/folioworks/folio/internal/records/metrics"
	"github.com/folioworks/folio/internal/records/service"
	"github.com/folioworks/folio/internal/records/store"
	"github.com/folioworks/folio/internal/records/store/drivers/postgres"
	"github.com/folioworks/folio/internal/records/store/drivers/sqlite"
	"github.com/folioworks/folio/pkg/cryptox"
	"github.com/folioworks/folio/pkg/jwtx"
	"github.com/folioworks/folio/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags. Later problem
	BuildVersion = "v0.1.0"
)

// Application encapsulates the records service with all its dependencies
type Application struct {
	cfg    Config
	logger *slog.Logger

	// Core dependencies
	db      store.Store
	signer  *jwtx.HS256
	metrics *metrics.Metrics

	// Services
	authService      *service.AuthService
	accountService   *service.AccountService
	documentService  *service.DocumentService
	retentionService *service.RetentionService

	// HTTP server
	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "records-service",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	// Set pepper path for credential hashing
	cryptox.SetPepperPath(app.cfg.PepperFile)

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	if err := app.initSigner(); err != nil {
		_ = app.db.Close()
		return nil, err
	}

	app.metrics = metrics.New()

	app.initServices()
	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested
func (app *Application) Run() error {
	// Start the retention sweeper when a window is configured
	if app.retentionService.Enabled() {
		app.retentionService.Start()
	}

	app.logger.Info("records service starting",
		"port", app.cfg.Port,
		"version", BuildVersion,
		"driver", app.cfg.DBDriver,
	)

	// Start server in a goroutine
	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	// Setup signal handling for graceful shutdown
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a shutdown signal or server error
	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		// Perform graceful shutdown
		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the application
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down records service...")

	// Give outstanding requests a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	// Shutdown the HTTP server
	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	// Stop the retention sweeper
	if app.retentionService.Enabled() {
		app.retentionService.Stop()
	}

	// Close database connection
	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("records service stopped")
	return nil
}

// initDatabase opens the configured store driver and applies migrations
func (app *Application) initDatabase() error {
	var (
		db  store.Store
		err error
	)
	switch app.cfg.DBDriver {
	case "postgres":
		db, err = postgres.NewStore(app.cfg.DBDSN)
	case "sqlite":
		dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", app.cfg.DBDSN)
		db, err = sqlite.NewStore(dsn)
	default:
		return fmt.Errorf("unknown database driver %q", app.cfg.DBDriver)
	}
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully", "driver", app.cfg.DBDriver)
	return nil
}

// initSigner sets up the HS256 token signer. Without a configured secret the
// key is ephemeral, which invalidates outstanding tokens on restart.
func (app *Application) initSigner() error {
	if app.cfg.JWTSecret != "" {
		signer, err := jwtx.NewHS256([]byte(app.cfg.JWTSecret), app.cfg.JWTIssuer)
		if err != nil {
			return fmt.Errorf("failed to initialize token signer: %w", err)
		}
		app.signer = signer
		return nil
	}

	signer, err := jwtx.NewEphemeralHS256(app.cfg.JWTIssuer)
	if err != nil {
		return fmt.Errorf("failed to initialize ephemeral token signer: %w", err)
	}
	app.signer = signer
	app.logger.Warn("no token secret configured; using an ephemeral signing key")
	return nil
}

// initServices initializes all business logic services
func (app *Application) initServices() {
	opts := service.Options{
		AllowRedundantSoftDelete: !app.cfg.StrictDelete,
		EnforceOwnership:         app.cfg.EnforceOwnership,
	}

	app.accountService = service.NewAccounts(app.db, opts)
	app.documentService = service.NewDocuments(app.db, opts)
	app.authService = service.NewAuth(app.db, app.signer, app.cfg.JWTIssuer, app.cfg.TokenTTL)

	app.retentionService = service.NewRetentionService(
		app.db,
		app.logger,
		app.cfg.RetentionWindow,
		app.cfg.RetentionInterval,
	)
	app.retentionService.Metrics = app.metrics
}

// initHTTP initializes the HTTP router and server
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		app.signer,
		BuildVersion,
		app.db,
		app.logger,
		app.metrics,
	)

	// Wire services to router
	router.AuthService = app.authService
	router.AccountService = app.accountService
	router.DocumentService = app.documentService
	router.ApplyRoutes()

	app.router = router

	// Initialize HTTP server
	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
