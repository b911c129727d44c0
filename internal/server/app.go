// Package server initializes and runs the ministry auth server.
// It opens the store, applies migrations, wires the session service and
// starts the REST API, the gRPC health endpoint and the refresh-token
// janitor until the process receives a shutdown signal.
package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/ministry/internal/logging"
	"github.com/dmitrijs2005/ministry/internal/server/auth"
	"github.com/dmitrijs2005/ministry/internal/server/config"
	"github.com/dmitrijs2005/ministry/internal/server/metrics"
	"github.com/dmitrijs2005/ministry/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/ministry/internal/server/rest"
	"github.com/dmitrijs2005/ministry/internal/server/services"
	"github.com/dmitrijs2005/ministry/internal/server/shared/db"
	"github.com/jmoiron/sqlx"

	gs "github.com/dmitrijs2005/ministry/internal/server/grpc"
)

type App struct {
	config   *config.Config
	logger   logging.Logger
	db       *sqlx.DB
	metrics  *metrics.Metrics
	sessions *services.SessionService
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {

	logger, err := logging.New(c.LogFormat, c.LogLevel, os.Stdout)
	if err != nil {
		return nil, fmt.Errorf("logger init error: %w", err)
	}

	conn, err := db.Open(ctx, c.DatabaseDriver, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewSQLRepositoryManager()
	if err := rm.RunMigrations(ctx, conn); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	m := metrics.New()
	tokens := auth.NewTokenIssuer([]byte(c.AccessTokenSecret), []byte(c.RefreshTokenSecret), c.AccessTokenTTL, c.RefreshTokenTTL)
	sessions := services.NewSessionService(conn, rm, tokens, logger, services.WithRecorder(m))

	return &App{config: c, logger: logger, db: conn, metrics: m, sessions: sessions}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	cookie := rest.CookieConfig{Name: app.config.RefreshCookieName, Secure: app.config.IsProduction()}
	s := rest.NewHTTPServer(app.config.EndpointAddrHTTP, app.logger, app.sessions, app.db, app.metrics, cookie)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, app.db)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run blocks until ctx is cancelled, a signal arrives or a server fails.
// The database is closed once every worker has stopped.
func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "environment", app.config.Environment)

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(3)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		newJanitor(app.sessions, app.metrics, app.logger, app.config.CleanupInterval).Run(ctx)
	}()

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(context.Background(), "db close error", "error", err)
	}
	app.logger.Info(context.Background(), "App stopped")

	if s, ok := app.logger.(interface{ Sync() error }); ok {
		_ = s.Sync()
	}
}
