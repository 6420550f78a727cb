package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"ChartFlux/internal/replay"
	pkgch "ChartFlux/pkg/clickhouse"
	"ChartFlux/pkg/config"
	xhttp "ChartFlux/pkg/http"
	pkgkafka "ChartFlux/pkg/kafka"
	applogger "ChartFlux/pkg/logger"
)

// Closer is anything holding a connection the app must release on shutdown.
type Closer interface {
	Close() error
}

// App encapsulates the entire application lifecycle: HTTP server, replay
// driver, optional Kafka ingestion, and infrastructure clients.
type App struct {
	cfg        *config.Config
	logger     *applogger.Logger
	handler    xhttp.Handler
	driver     *replay.Driver
	consumer   *pkgkafka.Consumer
	handlers   []pkgkafka.MessageHandler
	producer   *pkgkafka.Producer
	chClient   *pkgch.Client
	closers    []Closer
	httpServer *xhttp.Server
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	logger *applogger.Logger,
	handler xhttp.Handler,
	driver *replay.Driver,
	consumer *pkgkafka.Consumer,
	handlers []pkgkafka.MessageHandler,
	producer *pkgkafka.Producer,
	chClient *pkgch.Client,
	closers ...Closer,
) *App {
	return &App{
		cfg:      cfg,
		logger:   logger,
		handler:  handler,
		driver:   driver,
		consumer: consumer,
		handlers: handlers,
		producer: producer,
		chClient: chClient,
		closers:  closers,
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.httpServer = xhttp.NewServer(a.handler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
		xhttp.WithMetricsLogging(a.logger, a.cfg.Server.WriteTimeout),
	)

	// Autoplay driver
	go a.driver.Run(ctx)

	// Kafka ingestion, when configured
	if a.consumer != nil {
		for _, h := range a.handlers {
			a.consumer.RegisterHandler(h)
		}
		go func() {
			if err := a.consumer.Start(); err != nil {
				a.logger.Error("kafka consumer error", applogger.Error(err))
			}
		}()
		a.logger.Info("kafka consumer started", applogger.Int("topics", len(a.handlers)))
	}

	if err := a.httpServer.Start(); err != nil {
		a.logger.Error("http server start error", applogger.Error(err))
		return err
	}
	a.logger.Info("chartflux up", applogger.Int("port", a.cfg.Server.Port))

	// Wait for interrupt
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.logger.Info("shutdown signal received")
	cancel()
	return a.shutdown(context.Background())
}

// shutdown gracefully stops all services.
func (a *App) shutdown(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.logger.Error("http shutdown error", applogger.Error(err))
	}

	if a.consumer != nil {
		if err := a.consumer.Stop(shutdownCtx); err != nil {
			a.logger.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}

	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Warn("kafka producer close error", applogger.Error(err))
		}
	}

	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			a.logger.Warn("clickhouse close error", applogger.Error(err))
		}
	}

	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			a.logger.Warn("close error", applogger.Error(err))
		}
	}

	a.logger.Info("shutdown complete")
	return nil
}
