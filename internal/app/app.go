// Package app builds the service's dependency graph from configuration and
// owns its lifecycle.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/JakeFAU/pdfingest/internal/api"
	"github.com/JakeFAU/pdfingest/internal/config"
	"github.com/JakeFAU/pdfingest/internal/logging"
	"github.com/JakeFAU/pdfingest/internal/pipeline"
)

type closer struct {
	name string
	fn   func(context.Context) error
}

// App contains the application's dependencies.
type App struct {
	cfg          *config.Config
	logger       *zap.Logger
	orchestrator *pipeline.Orchestrator
	apiServer    *api.Server
	readiness    []api.ReadinessCheck
	closers      []closer
}

// Build creates the logger and every backend named by cfg.
func Build(ctx context.Context, cfg *config.Config) (*App, error) {
	logger, err := logging.New(cfg.Logging.Development, cfg.Logging.Level)
	if err != nil {
		return nil, fmt.Errorf("logger init failed: %w", err)
	}
	zap.ReplaceGlobals(logger)
	return BuildWithLogger(ctx, cfg, logger)
}

// BuildWithLogger is Build with a caller-supplied logger.
func BuildWithLogger(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	app := &App{cfg: cfg, logger: logger}
	logger.Info("building application dependencies",
		zap.String("storage", cfg.Storage.Backend),
		zap.String("partition", cfg.Partition.Backend),
		zap.String("docstore", cfg.DocStore.Backend),
		zap.String("bus", cfg.Bus.Backend),
	)

	objects, err := setupStorage(ctx, app)
	if err != nil {
		app.closeQuietly()
		return nil, err
	}
	partitioner, err := setupPartitioner(app)
	if err != nil {
		app.closeQuietly()
		return nil, err
	}
	documents, err := setupDocStore(ctx, app)
	if err != nil {
		app.closeQuietly()
		return nil, err
	}
	publisher, err := setupPublisher(ctx, app)
	if err != nil {
		app.closeQuietly()
		return nil, err
	}

	app.orchestrator = pipeline.New(
		objects,
		partitioner,
		documents,
		publisher,
		pipeline.Config{Topic: cfg.Bus.Topic},
		logger.Named("pipeline"),
	)
	app.apiServer = api.NewServer(app.orchestrator, logger.Named("api"), api.WithReadinessChecks(app.readiness...))
	return app, nil
}

func (a *App) addCloser(name string, fn func(context.Context) error) {
	a.closers = append(a.closers, closer{name: name, fn: fn})
}

// Handler exposes the HTTP routes.
func (a *App) Handler() http.Handler {
	return a.apiServer.Handler()
}

// ProcessOnce runs a single ingestion outside the HTTP server.
func (a *App) ProcessOnce(ctx context.Context, bucket, key string) (pipeline.Result, error) {
	req := pipeline.ProcessRequest{BucketName: bucket, PDFKey: key}
	if err := req.Validate(); err != nil {
		return pipeline.Result{}, err
	}
	res, err := a.orchestrator.Process(ctx, req)
	if err != nil {
		return pipeline.Result{}, fmt.Errorf("process %s/%s: %w", bucket, key, err)
	}
	return res, nil
}

// Run serves HTTP until the context is canceled or a signal arrives.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", a.cfg.Server.Port),
		Handler:           a.Handler(),
		ReadHeaderTimeout: a.cfg.Server.ReadHeaderTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		a.logger.Info("http server started", zap.Int("port", a.cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
			stop()
		}
		close(serveErr)
	}()

	<-ctx.Done()
	a.logger.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("server shutdown error", zap.Error(err))
	}
	closeErr := a.Close(shutdownCtx)
	if err := <-serveErr; err != nil {
		return fmt.Errorf("http server: %w", err)
	}
	return closeErr
}

// Close releases backends in reverse construction order.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		c := a.closers[i]
		if err := c.fn(ctx); err != nil {
			a.logger.Warn("close failed", zap.String("component", c.name), zap.Error(err))
			errs = append(errs, fmt.Errorf("close %s: %w", c.name, err))
		}
	}
	a.closers = nil
	_ = a.logger.Sync()
	a.logger.Info("shutdown complete")
	return errors.Join(errs...)
}

func (a *App) closeQuietly() {
	_ = a.Close(context.Background())
}
