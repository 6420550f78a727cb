package usecase

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"ChartFlux/internal/domain/models"
	domrepo "ChartFlux/internal/domain/repository"
	"ChartFlux/internal/series"
	pkgkafka "ChartFlux/pkg/kafka"
	applogger "ChartFlux/pkg/logger"
	"ChartFlux/pkg/util"
)

// InvalidationEvent tells other instances to drop their cached copy of a key
// after a write. Published on the invalidations topic, consumed by
// KafkaInvalidationsHandler.
type InvalidationEvent struct {
	Symbol    string `json:"symbol"`
	Timeframe string `json:"tf"`
}

// MarketDataUseCase fronts the candle store and series cache for the HTTP
// surface. It also owns the session config; the cache reads its eviction
// budget from here through UpdateSession.
type MarketDataUseCase struct {
	store   domrepo.CandleStore
	cache   *series.Cache
	metrics domrepo.Metrics
	logger  *applogger.Logger

	// optional fanout of write invalidations to sibling instances
	events      *pkgkafka.Producer
	eventsTopic string

	mu      sync.Mutex
	session models.SessionConfig
}

func NewMarketDataUseCase(
	store domrepo.CandleStore,
	cache *series.Cache,
	metrics domrepo.Metrics,
	logger *applogger.Logger,
) *MarketDataUseCase {
	uc := &MarketDataUseCase{
		store:   store,
		cache:   cache,
		metrics: metrics,
		logger:  logger,
		session: models.DefaultSessionConfig(),
	}
	uc.cache.SetMaxCandles(uc.session.MaxCacheSize)
	return uc
}

// WithInvalidationEvents enables publishing of cache invalidation events on
// every successful write. Nil producer leaves fanout disabled.
func (uc *MarketDataUseCase) WithInvalidationEvents(p *pkgkafka.Producer, topic string) {
	uc.events = p
	uc.eventsTopic = topic
}

// publishInvalidation is fire-and-forget: a failed publish never fails the
// write that triggered it.
func (uc *MarketDataUseCase) publishInvalidation(ctx context.Context, symbol string, tf models.TimeFrame) {
	if uc.events == nil || uc.eventsTopic == "" {
		return
	}
	ev := InvalidationEvent{Symbol: symbol, Timeframe: tf.String()}
	if err := uc.events.Publish(ctx, uc.eventsTopic, []byte(symbol), ev); err != nil {
		uc.metrics.RecordError("invalidation_publish")
		uc.logger.Warn("invalidation publish failed",
			applogger.String("symbol", symbol),
			applogger.String("tf", tf.String()),
			applogger.Error(err))
	}
}

// LoadSeries resolves the full series for (symbol, timeframe) through the
// cache. The returned slice is an immutable snapshot.
func (uc *MarketDataUseCase) LoadSeries(ctx context.Context, symbol, tfLabel string) ([]models.Candle, error) {
	tf, err := models.ParseTimeFrame(tfLabel)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	out, err := uc.cache.GetOrLoad(ctx, symbol, tf)
	uc.metrics.RecordLatency("load_series", time.Since(start).Seconds())
	return out, err
}

// Window returns the [startIdx, endIdx) sub-sequence with the end clamped
// to the series length; out-of-range windows come back empty, never fail.
func (uc *MarketDataUseCase) Window(ctx context.Context, symbol, tfLabel string, startIdx, endIdx int) ([]models.Candle, error) {
	data, err := uc.LoadSeries(ctx, symbol, tfLabel)
	if err != nil {
		return nil, err
	}
	if startIdx < 0 {
		startIdx = 0
	}
	if endIdx > len(data) {
		endIdx = len(data)
	}
	if startIdx >= endIdx {
		return []models.Candle{}, nil
	}
	return data[startIdx:endIdx], nil
}

// AggregateSeries loads the declared source series and folds it into the
// target timeframe on demand, without touching the cache index for the
// target key.
func (uc *MarketDataUseCase) AggregateSeries(ctx context.Context, symbol, sourceLabel, targetLabel string) ([]models.Candle, error) {
	sourceTF, err := models.ParseTimeFrame(sourceLabel)
	if err != nil {
		return nil, err
	}
	targetTF, err := models.ParseTimeFrame(targetLabel)
	if err != nil {
		return nil, err
	}
	data, err := uc.cache.GetOrLoad(ctx, symbol, sourceTF)
	if err != nil {
		return nil, err
	}
	return series.Aggregate(data, sourceTF, targetTF)
}

// SaveSeries normalizes, persists, and invalidates the cached key.
func (uc *MarketDataUseCase) SaveSeries(ctx context.Context, symbol, tfLabel string, candles []models.Candle) error {
	tf, err := models.ParseTimeFrame(tfLabel)
	if err != nil {
		return err
	}
	if err := uc.cache.Save(ctx, symbol, tf, models.NormalizeCandles(candles)); err != nil {
		return err
	}
	uc.publishInvalidation(ctx, symbol, tf)
	return nil
}

// ImportCSV reads time,open,high,low,close,volume rows from the file and
// saves the parsed series. Malformed rows are skipped so a partially bad
// file still yields usable data; a malformed volume alone degrades to
// zero rather than dropping the bar.
func (uc *MarketDataUseCase) ImportCSV(ctx context.Context, filePath, symbol, tfLabel string) (models.ImportResult, error) {
	tf, err := models.ParseTimeFrame(tfLabel)
	if err != nil {
		return models.ImportResult{}, err
	}

	f, err := os.Open(filePath)
	if err != nil {
		return models.ImportResult{}, fmt.Errorf("open import file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	records, err := r.ReadAll()
	if err != nil {
		return models.ImportResult{}, fmt.Errorf("read csv: %w", err)
	}

	candles := make([]models.Candle, 0, len(records))
	skipped := 0
	for _, rec := range records {
		c, ok := parseCandleRow(rec)
		if !ok {
			skipped++
			continue
		}
		candles = append(candles, c)
	}

	if err := uc.cache.Save(ctx, symbol, tf, models.NormalizeCandles(candles)); err != nil {
		return models.ImportResult{}, err
	}
	uc.publishInvalidation(ctx, symbol, tf)

	uc.metrics.RecordImportRows(symbol, len(candles), skipped)
	uc.logger.Info("csv import complete",
		applogger.String("symbol", symbol),
		applogger.String("tf", tf.String()),
		applogger.Int("imported", len(candles)),
		applogger.Int("skipped", skipped))

	return models.ImportResult{
		CandlesImported: len(candles),
		RowsSkipped:     skipped,
		Symbol:          symbol,
		Timeframe:       tf.String(),
	}, nil
}

// parseCandleRow decodes one CSV record. Rows with a short field count or
// an unparseable time/OHLC field are rejected; volume falls back to zero.
// The time field is epoch seconds, with RFC3339 accepted as a fallback.
func parseCandleRow(rec []string) (models.Candle, bool) {
	if len(rec) < 6 {
		return models.Candle{}, false
	}
	t, err := strconv.ParseInt(rec[0], 10, 64)
	if err != nil {
		ts, ok := util.ParseTime(rec[0])
		if !ok {
			return models.Candle{}, false
		}
		t = ts.Unix()
	}
	open, err := decimal.NewFromString(rec[1])
	if err != nil {
		return models.Candle{}, false
	}
	high, err := decimal.NewFromString(rec[2])
	if err != nil {
		return models.Candle{}, false
	}
	low, err := decimal.NewFromString(rec[3])
	if err != nil {
		return models.Candle{}, false
	}
	closeP, err := decimal.NewFromString(rec[4])
	if err != nil {
		return models.Candle{}, false
	}
	volume, err := decimal.NewFromString(rec[5])
	if err != nil {
		volume = decimal.Zero
	}
	return models.Candle{
		Time:   t,
		Open:   open,
		High:   high,
		Low:    low,
		Close:  closeP,
		Volume: volume,
	}, true
}

// Symbols lists every symbol with stored data.
func (uc *MarketDataUseCase) Symbols(ctx context.Context) ([]string, error) {
	return uc.store.Symbols(ctx)
}

// CacheStats snapshots the series cache counters.
func (uc *MarketDataUseCase) CacheStats() models.CacheStats {
	return uc.cache.Stats()
}

// ClearCache evicts everything.
func (uc *MarketDataUseCase) ClearCache() {
	uc.cache.Clear()
	uc.logger.Info("cache cleared")
}

// Session returns the current session config.
func (uc *MarketDataUseCase) Session() models.SessionConfig {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	return uc.session
}

// UpdateSession replaces the session config and pushes the new cache
// budget to the series cache.
func (uc *MarketDataUseCase) UpdateSession(req models.SessionConfigRequest) (models.SessionConfig, error) {
	tf, err := models.ParseTimeFrame(req.Timeframe)
	if err != nil {
		return models.SessionConfig{}, err
	}

	// Window bounds snap down to bar boundaries of the session timeframe.
	start, end := req.StartTime, req.EndTime
	if start != nil {
		v := util.AlignEpoch(*start, tf.Duration())
		start = &v
	}
	if end != nil {
		v := util.AlignEpoch(*end, tf.Duration())
		end = &v
	}

	uc.mu.Lock()
	uc.session = models.SessionConfig{
		Symbol:       req.Symbol,
		Timeframe:    tf,
		StartTime:    start,
		EndTime:      end,
		MaxCacheSize: req.MaxCacheSize,
	}
	cfg := uc.session
	uc.mu.Unlock()

	uc.cache.SetMaxCandles(cfg.MaxCacheSize)
	uc.logger.Info("session updated",
		applogger.String("symbol", cfg.Symbol),
		applogger.String("tf", cfg.Timeframe.String()),
		applogger.Int("max_cache_size", cfg.MaxCacheSize))
	return cfg, nil
}
