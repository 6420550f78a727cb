package usecase

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	"ChartFlux/internal/domain/models"
	"ChartFlux/internal/series"
	applogger "ChartFlux/pkg/logger"
)

type noopMetrics struct{}

func (noopMetrics) RecordCacheHit(string, string)     {}
func (noopMetrics) RecordCacheMiss(string, string)    {}
func (noopMetrics) RecordCacheEviction()              {}
func (noopMetrics) SetCacheResidency(int, int)        {}
func (noopMetrics) RecordImportRows(string, int, int) {}
func (noopMetrics) RecordReplayOp(string)             {}
func (noopMetrics) RecordError(string)                {}
func (noopMetrics) RecordLatency(string, float64)     {}

type memStore struct {
	data map[string]map[models.TimeFrame][]models.Candle
}

func newMemStore() *memStore {
	return &memStore{data: make(map[string]map[models.TimeFrame][]models.Candle)}
}

func (s *memStore) put(symbol string, tf models.TimeFrame, candles []models.Candle) {
	if s.data[symbol] == nil {
		s.data[symbol] = make(map[models.TimeFrame][]models.Candle)
	}
	s.data[symbol][tf] = candles
}

func (s *memStore) Load(_ context.Context, symbol string, tf models.TimeFrame) ([]models.Candle, error) {
	return s.data[symbol][tf], nil
}

func (s *memStore) FinestTimeframe(_ context.Context, symbol string) (models.TimeFrame, error) {
	var finest models.TimeFrame
	for tf, cs := range s.data[symbol] {
		if len(cs) == 0 {
			continue
		}
		if finest == 0 || tf.Seconds() < finest.Seconds() {
			finest = tf
		}
	}
	if finest == 0 {
		return 0, models.ErrSymbolNotFound
	}
	return finest, nil
}

func (s *memStore) Save(_ context.Context, symbol string, tf models.TimeFrame, candles []models.Candle) error {
	s.put(symbol, tf, candles)
	return nil
}

func (s *memStore) Append(_ context.Context, symbol string, tf models.TimeFrame, candle models.Candle) error {
	s.put(symbol, tf, append(s.data[symbol][tf], candle))
	return nil
}

func (s *memStore) Symbols(context.Context) ([]string, error) {
	out := make([]string, 0, len(s.data))
	for sym := range s.data {
		out = append(out, sym)
	}
	return out, nil
}

func (s *memStore) Health(context.Context) error { return nil }
func (s *memStore) Close() error                 { return nil }

func newTestUseCase(t *testing.T, store *memStore) *MarketDataUseCase {
	t.Helper()
	l, err := applogger.New(&applogger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	cache := series.NewCache(store, noopMetrics{}, l, 0)
	return NewMarketDataUseCase(store, cache, noopMetrics{}, l)
}

func bars(startTs int64, n int) []models.Candle {
	out := make([]models.Candle, 0, n)
	for i := 0; i < n; i++ {
		p := decimal.NewFromInt(int64(100 + i))
		out = append(out, models.Candle{
			Time: startTs + int64(i)*60,
			Open: p, High: p, Low: p, Close: p,
			Volume: decimal.NewFromInt(1),
		})
	}
	return out
}

func TestLoadSeriesInvalidTimeframe(t *testing.T) {
	uc := newTestUseCase(t, newMemStore())
	if _, err := uc.LoadSeries(context.Background(), "EURUSD", "2H"); err != models.ErrInvalidTimeframe {
		t.Fatalf("expected ErrInvalidTimeframe, got %v", err)
	}
}

func TestWindowClampsEnd(t *testing.T) {
	store := newMemStore()
	store.put("EURUSD", models.TFM1, bars(0, 10))
	uc := newTestUseCase(t, store)

	got, err := uc.Window(context.Background(), "EURUSD", "M1", 7, 100)
	if err != nil {
		t.Fatalf("window: %v", err)
	}
	if len(got) != 3 || got[0].Time != 7*60 {
		t.Fatalf("window [7,100) over 10 bars: len %d first %d", len(got), got[0].Time)
	}

	empty, err := uc.Window(context.Background(), "EURUSD", "M1", 5, 3)
	if err != nil {
		t.Fatalf("inverted window: %v", err)
	}
	if len(empty) != 0 {
		t.Fatalf("inverted window must be empty, got %d", len(empty))
	}
}

func TestAggregateSeriesDirection(t *testing.T) {
	store := newMemStore()
	store.put("EURUSD", models.TFH1, bars(0, 4))
	uc := newTestUseCase(t, store)

	if _, err := uc.AggregateSeries(context.Background(), "EURUSD", "H1", "M5"); err != models.ErrAggregationDirection {
		t.Fatalf("expected ErrAggregationDirection, got %v", err)
	}
}

func TestImportCSVSkipsMalformedRows(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "eurusd.csv")
	csv := "0,1.1000,1.1010,1.0990,1.1005,1000\n" +
		"60,not-a-price,1.1020,1.1000,1.1010,500\n" +
		"120,1.1010,1.1030,1.1005,1.1025,750\n"
	if err := os.WriteFile(path, []byte(csv), 0o644); err != nil {
		t.Fatalf("write csv: %v", err)
	}

	store := newMemStore()
	uc := newTestUseCase(t, store)

	res, err := uc.ImportCSV(context.Background(), path, "EURUSD", "M1")
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if res.CandlesImported != 2 || res.RowsSkipped != 1 {
		t.Fatalf("imported %d skipped %d, want 2/1", res.CandlesImported, res.RowsSkipped)
	}

	saved := store.data["EURUSD"][models.TFM1]
	if len(saved) != 2 || saved[0].Time != 0 || saved[1].Time != 120 {
		t.Fatalf("unexpected stored series: %+v", saved)
	}
}

func TestImportCSVBadVolumeDefaultsToZero(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "v.csv")
	if err := os.WriteFile(path, []byte("0,1,1,1,1,oops\n"), 0o644); err != nil {
		t.Fatalf("write csv: %v", err)
	}

	store := newMemStore()
	uc := newTestUseCase(t, store)

	res, err := uc.ImportCSV(context.Background(), path, "EURUSD", "M1")
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if res.CandlesImported != 1 {
		t.Fatalf("bad volume must not drop the bar: %+v", res)
	}
	if !store.data["EURUSD"][models.TFM1][0].Volume.IsZero() {
		t.Fatalf("bad volume must degrade to zero")
	}
}

func TestImportCSVRFC3339Fallback(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "t.csv")
	if err := os.WriteFile(path, []byte("2024-10-10T10:10:00Z,1,1,1,1,2\n"), 0o644); err != nil {
		t.Fatalf("write csv: %v", err)
	}

	store := newMemStore()
	uc := newTestUseCase(t, store)

	res, err := uc.ImportCSV(context.Background(), path, "EURUSD", "M1")
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if res.CandlesImported != 1 {
		t.Fatalf("RFC3339 timestamps must parse: %+v", res)
	}
}

func TestSaveThenLoadRoundTrip(t *testing.T) {
	store := newMemStore()
	store.put("EURUSD", models.TFM1, bars(0, 5))
	uc := newTestUseCase(t, store)

	ctx := context.Background()
	if _, err := uc.LoadSeries(ctx, "EURUSD", "M1"); err != nil {
		t.Fatalf("prime: %v", err)
	}

	if err := uc.SaveSeries(ctx, "EURUSD", "M1", bars(600, 3)); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := uc.LoadSeries(ctx, "EURUSD", "M1")
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if len(got) != 3 || got[0].Time != 600 {
		t.Fatalf("reload returned stale data: len %d first %d", len(got), got[0].Time)
	}
}

func TestUpdateSessionAlignsWindowAndResizesCache(t *testing.T) {
	store := newMemStore()
	uc := newTestUseCase(t, store)

	start := int64(3723) // 01:02:03
	end := int64(7999)
	cfg, err := uc.UpdateSession(models.SessionConfigRequest{
		Symbol:       "GBPUSD",
		Timeframe:    "H1",
		StartTime:    &start,
		EndTime:      &end,
		MaxCacheSize: 500,
	})
	if err != nil {
		t.Fatalf("update session: %v", err)
	}
	if *cfg.StartTime != 3600 || *cfg.EndTime != 7200 {
		t.Fatalf("window not aligned: %d..%d", *cfg.StartTime, *cfg.EndTime)
	}
	if got := uc.Session(); got.Symbol != "GBPUSD" || got.MaxCacheSize != 500 {
		t.Fatalf("session not persisted: %+v", got)
	}

	if _, err := uc.UpdateSession(models.SessionConfigRequest{Symbol: "X", Timeframe: "nope", MaxCacheSize: 1}); err != models.ErrInvalidTimeframe {
		t.Fatalf("bad timeframe must fail: %v", err)
	}
}

func TestCacheStatsAndClear(t *testing.T) {
	store := newMemStore()
	store.put("EURUSD", models.TFM1, bars(0, 10))
	uc := newTestUseCase(t, store)

	uc.LoadSeries(context.Background(), "EURUSD", "M1")
	if stats := uc.CacheStats(); stats.Entries != 1 || stats.TotalCandles != 10 {
		t.Fatalf("stats %+v", stats)
	}
	uc.ClearCache()
	if stats := uc.CacheStats(); stats.Entries != 0 || stats.TotalCandles != 0 {
		t.Fatalf("stats after clear %+v", stats)
	}
}
