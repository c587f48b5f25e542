// Package server initializes and runs the sitepins server: it builds the
// tracker stack, serves the HTTP API and the gRPC health service, and
// drains the remote write-behind queue on shutdown.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/sitepins/internal/config"
	"github.com/dmitrijs2005/sitepins/internal/logging"
	"github.com/dmitrijs2005/sitepins/internal/metrics"
	"github.com/dmitrijs2005/sitepins/internal/server/rest"
	"github.com/dmitrijs2005/sitepins/internal/stack"

	gs "github.com/dmitrijs2005/sitepins/internal/server/grpc"
)

type App struct {
	config *config.Config
	logger logging.Logger
	stack  *stack.Stack
	health *gs.HealthServer
}

func NewApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	st, err := stack.Build(ctx, c, logger, metrics.New(c.MetricsEnabled))
	if err != nil {
		return nil, fmt.Errorf("stack init error: %w", err)
	}

	app := &App{config: c, logger: logger, stack: st}
	if c.GRPCHealthAddr != "" {
		app.health = gs.NewHealthServer(c.GRPCHealthAddr, logger)
	}
	return app, nil
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
	router := rest.NewRouter(app.stack.Tracker, app.stack.Metrics, app.logger, app.config.CORSOrigins)
	srv := &http.Server{
		Addr:              app.config.HTTPAddr,
		Handler:           router.Setup(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		app.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), app.config.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			app.logger.Error(ctx, "HTTP shutdown error", "error", err)
		}
	}()

	app.logger.Info(ctx, "Starting HTTP server", "address", app.config.HTTPAddr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.health.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run serves until a signal arrives or a server fails. The tracker state
// is loaded and reconciled while the servers already answer, so /ready and
// the gRPC health status report not-ready until that finishes.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "remote", app.stack.Remote())

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	if app.health != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			app.startGRPCServer(ctx, cancelFunc)
		}()
	}

	startErr := app.stack.Start(ctx)
	if startErr != nil {
		app.logger.Error(ctx, "failed to load local state", "error", startErr)
		cancelFunc()
	} else if app.health != nil {
		app.health.SetServing(true)
	}

	wg.Wait()

	closeCtx, cancel := context.WithTimeout(context.Background(), app.config.ShutdownTimeout)
	defer cancel()
	if err := app.stack.Close(closeCtx); err != nil {
		app.logger.Error(closeCtx, "shutdown incomplete", "error", err)
	}

	app.logger.Info(closeCtx, "App stopped")
	return startErr
}
