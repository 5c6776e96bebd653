package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/haguru/llmvault/config"
	"github.com/haguru/llmvault/internal/interfaces"
	mongoResponseRepo "github.com/haguru/llmvault/internal/responserepo/mongo"
	postgresResponseRepo "github.com/haguru/llmvault/internal/responserepo/postgres"
	"github.com/haguru/llmvault/internal/responseservice"
	"github.com/haguru/llmvault/internal/routes"
	"github.com/haguru/llmvault/internal/server"
	mongoUserRepo "github.com/haguru/llmvault/internal/userrepo/mongo"
	postgresUserRepo "github.com/haguru/llmvault/internal/userrepo/postgres"
	"github.com/haguru/llmvault/internal/userservice"
	"github.com/haguru/llmvault/pkg/databases/mongo"
	"github.com/haguru/llmvault/pkg/databases/postgres"
	"github.com/haguru/llmvault/pkg/metrics"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// ShutdownTimeout bounds how long in-flight requests get after a stop signal.
var ShutdownTimeout = 15 * time.Second

// App represents the main application, containing server and configuration.
// It owns the single storage connection shared by every repository.
type App struct {
	Server   interfaces.Server
	Config   *config.ServiceConfig
	Logger   interfaces.Logger
	Metrics  interfaces.Metrics
	dbType   string
	dbClient interfaces.DBClient
}

// NewApp connects to the configured storage backend and wires the service.
// cfg must already be validated.
func NewApp(ctx context.Context, cfg *config.ServiceConfig, logger interfaces.Logger) (*App, error) {
	dbType, err := config.DatabaseTypeFromDSN(cfg.Database.DSN)
	if err != nil {
		return nil, err
	}

	dbClient, err := newDBClient(dbType, &cfg.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database client: %w", err)
	}

	if err := dbClient.Connect(ctx, cfg.Database.DSN); err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", dbType, err)
	}

	app, err := NewAppWithClient(ctx, cfg, logger, dbType, dbClient)
	if err != nil {
		_ = dbClient.Disconnect(context.Background())
		return nil, err
	}
	return app, nil
}

// NewAppWithClient wires the service on an already connected client.
func NewAppWithClient(ctx context.Context, cfg *config.ServiceConfig, logger interfaces.Logger, dbType string, dbClient interfaces.DBClient) (*App, error) {
	app := &App{
		Config:   cfg,
		Logger:   logger,
		dbType:   dbType,
		dbClient: dbClient,
	}

	app.Server = server.NewServer(cfg.Host, cfg.Port, cfg.ServiceName, logger)
	app.Metrics = app.initializeMetrics()

	userRepo, responseRepo, err := app.initializeRepositories(ctx)
	if err != nil {
		return nil, err
	}

	userService := userservice.NewUserService(userRepo, logger)
	responseService := responseservice.NewResponseService(userRepo, responseRepo, logger)

	route := routes.NewRoute(app.Metrics, userService, responseService, dbClient, logger, cfg.ServiceName)

	metricsHandler := promhttp.HandlerFor(
		app.Metrics.GetRegistry(),
		promhttp.HandlerOpts{})

	tracedMetricsHandler := otelhttp.NewHandler(metricsHandler, routes.MetricsRouteAPI)

	handlers := []struct {
		method  string
		route   string
		handler gin.HandlerFunc
	}{
		{http.MethodGet, routes.MetricsRouteAPI, gin.WrapH(tracedMetricsHandler)},
		{http.MethodGet, routes.HealthRouteAPI, route.Health},
		{http.MethodPost, routes.UsersRouteAPI, route.UpsertUser},
		{http.MethodPost, routes.ResponsesRouteAPI, route.UpsertResponse},
		{http.MethodGet, routes.HistoryRouteAPI, route.History},
	}
	for _, h := range handlers {
		if err := app.Server.AddRoute(h.method, h.route, h.handler); err != nil {
			return nil, fmt.Errorf("failed to add route %s %s: %w", h.method, h.route, err)
		}
	}

	return app, nil
}

// Run serves until the server fails or ctx is cancelled or SIGINT/SIGTERM
// arrives, then shuts the server down gracefully.
func (app *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Server.ListenAndServe()
	}()
	app.Logger.Info("Server listening", "addr", app.Config.Address(), "database", app.dbType)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	app.Logger.Info("Shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()

	if err := app.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return <-errCh
}

// Close releases the storage connection.
func (app *App) Close(ctx context.Context) error {
	if app.dbClient == nil {
		return nil
	}
	if err := app.dbClient.Disconnect(ctx); err != nil {
		return fmt.Errorf("failed to disconnect from %s: %w", app.dbType, err)
	}
	return nil
}

func (app *App) initializeMetrics() interfaces.Metrics {
	appMetrics := metrics.NewMetrics(app.Config.ServiceName)
	routes.RegisterMetrics(appMetrics)
	return appMetrics
}

func newDBClient(dbType string, dbConfig *config.Database, logger interfaces.Logger) (interfaces.DBClient, error) {
	switch dbType {
	case config.DatabaseTypeMongo:
		return mongo.NewMongoDB(dbConfig, logger)
	case config.DatabaseTypePostgres:
		return postgres.NewPostgresDatabaseClient(dbConfig, logger)
	default:
		return nil, fmt.Errorf("unsupported database type: %s", dbType)
	}
}

// initializeRepositories builds both repositories for the backend and ensures
// their indices. Users come first since responses reference them.
func (app *App) initializeRepositories(ctx context.Context) (interfaces.UserRepository, interfaces.ResponseRepository, error) {
	var userRepo interfaces.UserRepository
	var responseRepo interfaces.ResponseRepository
	var err error

	switch app.dbType {
	case config.DatabaseTypeMongo:
		if userRepo, err = mongoUserRepo.NewMongoUserRepository(app.dbClient); err != nil {
			return nil, nil, fmt.Errorf("failed to initialize MongoDB user repository: %w", err)
		}
		if responseRepo, err = mongoResponseRepo.NewMongoResponseRepository(app.dbClient); err != nil {
			return nil, nil, fmt.Errorf("failed to initialize MongoDB response repository: %w", err)
		}

	case config.DatabaseTypePostgres:
		if userRepo, err = postgresUserRepo.NewPostgresUserRepository(app.dbClient); err != nil {
			return nil, nil, fmt.Errorf("failed to initialize PostgreSQL user repository: %w", err)
		}
		if responseRepo, err = postgresResponseRepo.NewPostgresResponseRepository(app.dbClient); err != nil {
			return nil, nil, fmt.Errorf("failed to initialize PostgreSQL response repository: %w", err)
		}

	default:
		return nil, nil, fmt.Errorf("unsupported database type: %s", app.dbType)
	}

	if err = userRepo.EnsureIndices(ctx); err != nil {
		return nil, nil, fmt.Errorf("failed to ensure user indices: %w", err)
	}
	if err = responseRepo.EnsureIndices(ctx); err != nil {
		return nil, nil, fmt.Errorf("failed to ensure response indices: %w", err)
	}
	app.Logger.Info("Storage indices ensured", "database", app.dbType)

	return userRepo, responseRepo, nil
}
