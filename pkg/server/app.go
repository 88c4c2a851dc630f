package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"stockpulse/internal/usecase"
	"stockpulse/pkg/config"
	xhttp "stockpulse/pkg/http"
	pkgkafka "stockpulse/pkg/kafka"
	applogger "stockpulse/pkg/logger"
)

// App is the session worker process: it serves the admin API the
// controller talks to and owns the streaming sessions' lifecycle.
type App struct {
	cfg      *config.Config
	logger   *applogger.Logger
	mgr      *usecase.SessionManager
	handler  xhttp.Handler
	producer *pkgkafka.Producer

	httpServer *xhttp.Server
}

// New creates the worker application.
func New(
	cfg *config.Config,
	lgr *applogger.Logger,
	mgr *usecase.SessionManager,
	handler xhttp.Handler,
	producer *pkgkafka.Producer,
) *App {
	return &App{
		cfg:      cfg,
		logger:   lgr,
		mgr:      mgr,
		handler:  handler,
		producer: producer,
	}
}

// Run starts the admin API and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	opts := []xhttp.ServerOption{
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
	}
	if a.cfg.Metrics.Enabled {
		opts = append(opts, xhttp.WithRequestMetrics(a.logger, time.Second))
	}
	a.httpServer = xhttp.NewServer(a.handler, opts...)

	if err := a.httpServer.Start(); err != nil {
		a.logger.Error("http server start error", applogger.Error(err))
		return err
	}
	a.logger.Info("session worker started",
		applogger.Int("port", a.cfg.Server.Port),
		applogger.Strings("symbols", a.cfg.Symbols))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.logger.Info("shutdown signal received")
	return a.shutdown(ctx)
}

// shutdown stops sessions first so their final batches flush before the
// producer closes.
func (a *App) shutdown(ctx context.Context) error {
	if stopped := a.mgr.StopAll(ctx); stopped > 0 {
		a.logger.Info("stopped sessions", applogger.Int("count", stopped))
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.logger.Error("http shutdown error", applogger.Error(err))
	}

	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Warn("kafka producer close error", applogger.Error(err))
		}
	}

	a.logger.Info("shutdown complete")
	return nil
}
