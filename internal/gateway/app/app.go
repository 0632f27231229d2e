package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aussiebroadwan/owsgate/internal/gateway/metrics"
	"github.com/aussiebroadwan/owsgate/internal/gateway/proxy"
	"github.com/aussiebroadwan/owsgate/internal/gateway/registry"
	"github.com/aussiebroadwan/owsgate/internal/gateway/service"
	"github.com/aussiebroadwan/owsgate/internal/gateway/store"
	"github.com/aussiebroadwan/owsgate/internal/gateway/store/drivers/sqlite"
	"github.com/aussiebroadwan/owsgate/internal/gateway/tokens"
	"github.com/aussiebroadwan/owsgate/pkg/cryptox"
	"github.com/aussiebroadwan/owsgate/pkg/slogx"

	httpapi "github.com/aussiebroadwan/owsgate/internal/gateway/http"
)

const (
	// BuildVersion should be set at build time via ldflags.
	BuildVersion = "v0.1.0"
)

// Application encapsulates the gateway with all its dependencies.
type Application struct {
	cfg    Config
	logger *slog.Logger

	// Core dependencies
	db       store.Store
	metrics  *metrics.Collector
	strategy tokens.Strategy

	// Services
	tokenService        *service.TokenService
	clientService       *service.ClientService
	serviceAdmin        *service.ServiceAdmin
	housekeepingService *service.HousekeepingService

	// Services file provisioning, nil when no file is configured
	loader  *registry.Loader
	watcher *registry.Watcher

	// Background work is cancelled on shutdown
	ctx    context.Context
	cancel context.CancelFunc

	// HTTP server
	server *http.Server
	router *httpapi.Router
}

// New creates an Application with all dependencies initialised.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "owsgate",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	cryptox.SetPepperPath(app.cfg.PepperFile)
	if err := cryptox.LoadPepper(); err != nil {
		return nil, fmt.Errorf("failed to load pepper: %w", err)
	}

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	if cfg.MetricsEnabled {
		app.metrics = metrics.New()
	}

	if err := app.initStrategy(); err != nil {
		_ = app.db.Close()
		return nil, err
	}

	app.ctx, app.cancel = context.WithCancel(context.Background())

	if err := app.initRegistry(); err != nil {
		app.cancel()
		_ = app.db.Close()
		return nil, err
	}

	app.initServices()
	app.initHTTP()

	return app, nil
}

// Handler returns the root HTTP handler.
func (app *Application) Handler() http.Handler {
	return app.router
}

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	if err := app.housekeepingService.Start(app.ctx); err != nil {
		return err
	}

	if app.watcher != nil {
		go func() {
			if err := app.watcher.Run(app.ctx); err != nil {
				app.logger.Error("services file watcher exited", "error", err)
			}
		}()
	}

	app.logger.Info("owsgate starting",
		"port", app.cfg.Port,
		"version", BuildVersion,
		"token_type", string(app.strategy.Kind()),
		"protected_path", app.cfg.ProtectedPath,
	)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
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
	app.logger.Info("shutting down owsgate...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.cancel()
	app.housekeepingService.Stop()

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("owsgate stopped")
	return nil
}

// initDatabase opens the database and applies migrations.
func (app *Application) initDatabase() error {
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)", app.cfg.DatabaseFile)
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

func (app *Application) initStrategy() error {
	kind, err := tokens.ParseKind(app.cfg.TokenType)
	if err != nil {
		return err
	}

	strategy, err := tokens.New(tokens.Config{
		Kind:      kind,
		ExpiresIn: app.cfg.TokenExpiresIn,
		Issuer:    app.cfg.TokenIssuer,
		CertFile:  app.cfg.TokenCertFile,
		KeyFile:   app.cfg.TokenKeyFile,
		Secret:    app.cfg.TokenSecret,
		Tokens:    app.db.Tokens(),
	})
	if err != nil {
		return fmt.Errorf("failed to initialize token strategy: %w", err)
	}

	app.strategy = tokens.Instrument(strategy, app.metrics)
	app.logger.Info("token strategy ready", "kind", string(kind), "expires_in", app.cfg.TokenExpiresIn.String())
	return nil
}

// initRegistry loads the services file once and prepares the watcher.
func (app *Application) initRegistry() error {
	if app.cfg.ServicesFile == "" {
		return nil
	}

	app.loader = &registry.Loader{
		Path:   app.cfg.ServicesFile,
		Store:  app.db,
		Logger: app.logger,
	}
	if _, err := app.loader.Load(app.ctx); err != nil {
		return fmt.Errorf("failed to load services file: %w", err)
	}

	if app.cfg.ServicesWatch {
		app.watcher = registry.NewWatcher(app.loader, 0)
	}
	return nil
}

// initServices initializes all business logic services.
func (app *Application) initServices() {
	app.tokenService = service.NewTokenService(app.db, app.strategy)
	app.clientService = &service.ClientService{Store: app.db}
	app.serviceAdmin = &service.ServiceAdmin{Store: app.db}
	app.housekeepingService = service.NewHousekeepingService(
		app.db,
		app.logger,
		app.cfg.HousekeepingSchedule,
	)
}

func (app *Application) adapter() proxy.Adapter {
	if len(app.cfg.RequestHeaders) == 0 && len(app.cfg.ResponseHeaders) == 0 {
		return proxy.IdentityAdapter{}
	}
	return proxy.NewHeaderAdapter(app.cfg.RequestHeaders, app.cfg.ResponseHeaders)
}

// initHTTP initializes the proxy pipeline, the router and the server.
func (app *Application) initHTTP() {
	forwarder := proxy.NewForwarder(proxy.ForwarderConfig{
		Timeout:       app.cfg.ProxyTimeout,
		GatewayURL:    app.cfg.GatewayURL,
		ProtectedPath: app.cfg.ProtectedPath,
		Metrics:       app.metrics,
	})
	gateway := proxy.NewGateway(
		app.db.Services(),
		proxy.NewGate(app.strategy, app.cfg.RequiredScopes),
		app.adapter(),
		forwarder,
		app.metrics,
	)

	router := httpapi.NewRouter(BuildVersion, app.db, app.strategy, app.logger)

	router.TokenService = app.tokenService
	router.ClientService = app.clientService
	router.ServiceAdmin = app.serviceAdmin
	router.Gateway = gateway
	router.Metrics = app.metrics
	router.AdminUser = app.cfg.AdminUser
	router.AdminPassword = app.cfg.AdminPassword
	router.ProtectedPath = app.cfg.ProtectedPath
	router.GatewayURL = app.cfg.GatewayURL
	router.ApplyRoutes()

	app.router = router

	// WriteTimeout stays zero so streamed downloads are not cut off.
	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
