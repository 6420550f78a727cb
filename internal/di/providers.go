package di

import (
	"context"
	"fmt"
	"time"

	"ChartFlux/internal/domain/repository"
	"ChartFlux/internal/handler/api"
	internalrepo "ChartFlux/internal/repository"
	"ChartFlux/internal/replay"
	"ChartFlux/internal/series"
	"ChartFlux/internal/usecase"
	pkgch "ChartFlux/pkg/clickhouse"
	"ChartFlux/pkg/config"
	xhttp "ChartFlux/pkg/http"
	pkgkafka "ChartFlux/pkg/kafka"
	applogger "ChartFlux/pkg/logger"
	"ChartFlux/pkg/metrics"
	"ChartFlux/pkg/server"

	kafkago "github.com/segmentio/kafka-go"
)

// ProvideLogger creates the application logger from config.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	level := cfg.Logging.Level
	if level == "" {
		level = "info"
	}
	format := cfg.Logging.Format
	if format == "" {
		format = "console"
	}
	output := cfg.Logging.Output
	if output == "" {
		output = "stdout"
	}
	return applogger.New(&applogger.Config{Level: level, Format: format, Output: output})
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideClickHouseClient creates a ClickHouse client and ensures the
// candles schema exists.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	// Initialize schema. ReplacingMergeTree keyed (symbol, tf, ts) dedupes
	// re-imported bars; Decimal64(8) keeps OHLCV exact.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := client.InitSchema(ctx, []string{
		fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", cfg.ClickHouse.Database),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			symbol LowCardinality(String),
			tf LowCardinality(String),
			ts DateTime,
			open Decimal64(8),
			high Decimal64(8),
			low Decimal64(8),
			close Decimal64(8),
			volume Decimal64(8)
		) ENGINE=ReplacingMergeTree ORDER BY (symbol, tf, ts)`, cfg.Table()),
	}); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}

	return client, nil
}

// ProvideCandleStore creates the ClickHouse-backed candle store.
func ProvideCandleStore(chClient *pkgch.Client, cfg *config.Config, l *applogger.Logger) repository.CandleStore {
	store := internalrepo.NewCHCandleStore(chClient, cfg.Table())
	store.SetLogger(l)
	return store
}

// ProvideDrawingStore creates the Redis-backed drawing store.
func ProvideDrawingStore(cfg *config.Config) (repository.DrawingStore, error) {
	store, err := internalrepo.NewRedisDrawingStore(
		internalrepo.WithRedisAddr(cfg.Redis.Addr),
		internalrepo.WithRedisAuth(cfg.Redis.Password, cfg.Redis.DB),
		internalrepo.WithRedisPrefix(cfg.Redis.Prefix),
	)
	if err != nil {
		return nil, fmt.Errorf("drawing store: %w", err)
	}
	return store, nil
}

// ProvideSeriesCache creates the keyed series cache.
func ProvideSeriesCache(store repository.CandleStore, m repository.Metrics, l *applogger.Logger, cfg *config.Config) *series.Cache {
	return series.NewCache(store, m, l, cfg.Cache.MaxCandles)
}

// ProvideKafkaProducer creates a Kafka producer, or nil when Kafka is off.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideKafkaConsumer creates a Kafka consumer, or nil when Kafka is off.
// Handler errors are logged through a consumer hook.
func ProvideKafkaConsumer(cfg *config.Config, l *applogger.Logger) (*pkgkafka.Consumer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	consumer.WithConsumerHook(pkgkafka.HookFuncs{
		Err: func(_ context.Context, topic string, _ kafkago.Message, _ []byte, err error) {
			l.Error("kafka handler error", applogger.String("topic", topic), applogger.Error(err))
		},
	})
	return consumer, nil
}

// ProvideMarketDataUseCase wires the market data use case, with write
// invalidation fanout when a producer is configured.
func ProvideMarketDataUseCase(
	store repository.CandleStore,
	cache *series.Cache,
	m repository.Metrics,
	l *applogger.Logger,
	producer *pkgkafka.Producer,
	cfg *config.Config,
) *usecase.MarketDataUseCase {
	uc := usecase.NewMarketDataUseCase(store, cache, m, l)
	if producer != nil {
		uc.WithInvalidationEvents(producer, cfg.Kafka.InvalidationsTopic)
	}
	return uc
}

// ProvideKafkaHandlers registers the candle ingestion and invalidation
// fanout handlers. Empty when Kafka is off.
func ProvideKafkaHandlers(
	cfg *config.Config,
	store repository.CandleStore,
	cache *series.Cache,
	m repository.Metrics,
) []pkgkafka.MessageHandler {
	if !cfg.Kafka.Enabled {
		return nil
	}
	handlers := []pkgkafka.MessageHandler{
		usecase.NewKafkaCandlesHandler(cfg.Kafka.CandlesTopic, store, cache, m),
	}
	if cfg.Kafka.InvalidationsTopic != "" {
		handlers = append(handlers, usecase.NewKafkaInvalidationsHandler(cfg.Kafka.InvalidationsTopic, cache, m))
	}
	return handlers
}

// ProvideReplayEngine creates the single-session replay engine.
func ProvideReplayEngine(m repository.Metrics) *replay.Engine {
	return replay.NewEngine(m)
}

// ProvideReplayDriver creates the autoplay driver.
func ProvideReplayDriver(engine *replay.Engine, l *applogger.Logger, cfg *config.Config) *replay.Driver {
	return replay.NewDriver(engine, l, cfg.Replay.BaseInterval)
}

// ProvideRouter bundles the HTTP handlers.
func ProvideRouter(
	l *applogger.Logger,
	uc *usecase.MarketDataUseCase,
	drawings repository.DrawingStore,
	engine *replay.Engine,
	driver *replay.Driver,
) xhttp.Handler {
	market := api.NewMarketEchoHandler(l, uc, drawings)
	rp := api.NewReplayEchoHandler(l, uc, engine, driver)
	return api.NewRouter(market, rp)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	handler xhttp.Handler,
	driver *replay.Driver,
	consumer *pkgkafka.Consumer,
	handlers []pkgkafka.MessageHandler,
	producer *pkgkafka.Producer,
	chClient *pkgch.Client,
	drawings repository.DrawingStore,
) *server.App {
	return server.New(cfg, l, handler, driver, consumer, handlers, producer, chClient, drawings)
}
