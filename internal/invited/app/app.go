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

	httpapi "github.com/openoak/invited/internal/invited/http"
	"github.com/openoak/invited/internal/invited/mail"
	"github.com/openoak/invited/internal/invited/service"
	"github.com/openoak/invited/internal/invited/store"
	"github.com/openoak/invited/internal/invited/store/drivers/sqlite"
	"github.com/openoak/invited/pkg/cryptox"
	"github.com/openoak/invited/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags. Later problem
	BuildVersion = "v0.1.0"
)

// Application encapsulates the invitation service with all its dependencies.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db store.Store

	invitationService   *service.InvitationService
	sessionService      *service.SessionService
	bootstrapService    *service.BootstrapService
	quota               *service.QuotaPolicy
	housekeepingService *service.HousekeepingService

	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "invited",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	// Set pepper path for password hashing
	cryptox.SetPepperPath(app.cfg.PepperFile)

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	if err := app.initServices(); err != nil {
		return nil, err
	}
	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	app.housekeepingService.Start()

	app.logger.Info("invitation service starting", "port", app.cfg.Port, "version", BuildVersion)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	// Setup signal handling for graceful shutdown
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the application.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down invitation service...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.housekeepingService.Stop()

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("invitation service stopped")
	return nil
}

// initDatabase initializes the database and applies migrations.
func (app *Application) initDatabase() error {
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", app.cfg.DatabaseFile)
	db, err := sqlite.NewStore(dsn)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully")
	return nil
}

// initServices initializes all business logic services.
func (app *Application) initServices() error {
	secret := app.cfg.SessionSecret
	if secret == "" {
		// Sessions won't survive a restart without a configured secret.
		generated, err := cryptox.GenerateToken(cryptox.TokenSize256)
		if err != nil {
			return fmt.Errorf("failed to generate session secret: %w", err)
		}
		secret = generated
		app.logger.Warn("INVITED_SESSION_SECRET not set; using an ephemeral secret")
	}

	app.quota = &service.QuotaPolicy{
		Store:   app.db,
		PerUser: app.cfg.PerUserQuota,
	}

	app.sessionService = &service.SessionService{
		Store:  app.db,
		Secret: []byte(secret),
		Issuer: app.cfg.Issuer,
		TTL:    app.cfg.SessionTTL,
	}

	app.bootstrapService = &service.BootstrapService{
		Store: app.db,
		Token: app.cfg.BootstrapToken,
	}

	site := mail.SiteInfo{Name: app.cfg.SiteName, BaseURL: app.cfg.BaseURL}
	var notifier service.Notifier
	if app.cfg.SMTPHost != "" {
		smtp, err := mail.NewSMTPNotifier(mail.SMTPConfig{
			Host:     app.cfg.SMTPHost,
			Port:     app.cfg.SMTPPort,
			Username: app.cfg.SMTPUsername,
			Password: app.cfg.SMTPPassword,
			From:     app.cfg.FromAddress,
		}, site, app.cfg.ValidityDays)
		if err != nil {
			return fmt.Errorf("failed to initialize mailer: %w", err)
		}
		notifier = smtp
	} else {
		notifier = &mail.LogNotifier{Site: site, ValidityDays: app.cfg.ValidityDays}
		app.logger.Warn("SMTP_HOST not set; invitation emails will be logged, not sent")
	}

	app.invitationService = &service.InvitationService{
		Store:    app.db,
		Quota:    app.quota,
		Notifier: notifier,
		Validity: app.cfg.Validity(),
	}

	app.housekeepingService = service.NewHousekeepingService(
		app.invitationService,
		app.logger,
		app.cfg.HousekeepingInterval,
	)

	return nil
}

// initHTTP initializes the HTTP router and server.
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(BuildVersion, app.db, app.logger)

	// Wire services to router
	router.InvitationService = app.invitationService
	router.SessionService = app.sessionService
	router.BootstrapService = app.bootstrapService
	router.Quota = app.quota
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
