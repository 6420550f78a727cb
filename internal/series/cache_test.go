package series

import (
	"context"
	"testing"

	"ChartFlux/internal/domain/models"
	applogger "ChartFlux/pkg/logger"
)

type noopMetrics struct{}

func (noopMetrics) RecordCacheHit(string, string)       {}
func (noopMetrics) RecordCacheMiss(string, string)      {}
func (noopMetrics) RecordCacheEviction()                {}
func (noopMetrics) SetCacheResidency(int, int)          {}
func (noopMetrics) RecordImportRows(string, int, int)   {}
func (noopMetrics) RecordReplayOp(string)               {}
func (noopMetrics) RecordError(string)                  {}
func (noopMetrics) RecordLatency(string, float64)       {}

// fakeStore keeps series in memory and counts loads.
type fakeStore struct {
	data  map[string]map[models.TimeFrame][]models.Candle
	loads int
}

func newFakeStore() *fakeStore {
	return &fakeStore{data: make(map[string]map[models.TimeFrame][]models.Candle)}
}

func (s *fakeStore) put(symbol string, tf models.TimeFrame, candles []models.Candle) {
	if s.data[symbol] == nil {
		s.data[symbol] = make(map[models.TimeFrame][]models.Candle)
	}
	s.data[symbol][tf] = candles
}

func (s *fakeStore) Load(_ context.Context, symbol string, tf models.TimeFrame) ([]models.Candle, error) {
	s.loads++
	return s.data[symbol][tf], nil
}

func (s *fakeStore) FinestTimeframe(_ context.Context, symbol string) (models.TimeFrame, error) {
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

func (s *fakeStore) Save(_ context.Context, symbol string, tf models.TimeFrame, candles []models.Candle) error {
	s.put(symbol, tf, candles)
	return nil
}

func (s *fakeStore) Append(_ context.Context, symbol string, tf models.TimeFrame, candle models.Candle) error {
	s.put(symbol, tf, append(s.data[symbol][tf], candle))
	return nil
}

func (s *fakeStore) Symbols(context.Context) ([]string, error) {
	out := make([]string, 0, len(s.data))
	for sym := range s.data {
		out = append(out, sym)
	}
	return out, nil
}

func (s *fakeStore) Health(context.Context) error { return nil }
func (s *fakeStore) Close() error                 { return nil }

func testLogger(t *testing.T) *applogger.Logger {
	t.Helper()
	l, err := applogger.New(&applogger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return l
}

func TestGetOrLoadCachesNativeSeries(t *testing.T) {
	store := newFakeStore()
	store.put("EURUSD", models.TFM1, minuteSeries(0, 10))
	cache := NewCache(store, noopMetrics{}, testLogger(t), 0)

	ctx := context.Background()
	first, err := cache.GetOrLoad(ctx, "EURUSD", models.TFM1)
	if err != nil {
		t.Fatalf("first load: %v", err)
	}
	if len(first) != 10 {
		t.Fatalf("expected 10 candles, got %d", len(first))
	}
	loadsAfterFirst := store.loads

	second, err := cache.GetOrLoad(ctx, "EURUSD", models.TFM1)
	if err != nil {
		t.Fatalf("second load: %v", err)
	}
	if store.loads != loadsAfterFirst {
		t.Fatalf("cache hit must not touch the store")
	}
	if len(second) != len(first) {
		t.Fatalf("hit returned different series")
	}
}

func TestGetOrLoadAggregatesFromFinest(t *testing.T) {
	store := newFakeStore()
	store.put("EURUSD", models.TFM1, minuteSeries(0, 120))
	cache := NewCache(store, noopMetrics{}, testLogger(t), 0)

	out, err := cache.GetOrLoad(context.Background(), "EURUSD", models.TFH1)
	if err != nil {
		t.Fatalf("load H1 from M1: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 hourly candles, got %d", len(out))
	}
	if out[0].Time != 0 || out[1].Time != 3600 {
		t.Fatalf("unexpected bucket times %d,%d", out[0].Time, out[1].Time)
	}
}

func TestGetOrLoadUnknownSymbol(t *testing.T) {
	cache := NewCache(newFakeStore(), noopMetrics{}, testLogger(t), 0)
	if _, err := cache.GetOrLoad(context.Background(), "NOPE", models.TFM1); err != models.ErrSymbolNotFound {
		t.Fatalf("expected ErrSymbolNotFound, got %v", err)
	}
}

func TestSaveInvalidatesAndRoundTrips(t *testing.T) {
	store := newFakeStore()
	store.put("EURUSD", models.TFM1, minuteSeries(0, 5))
	cache := NewCache(store, noopMetrics{}, testLogger(t), 0)

	ctx := context.Background()
	if _, err := cache.GetOrLoad(ctx, "EURUSD", models.TFM1); err != nil {
		t.Fatalf("prime cache: %v", err)
	}

	replacement := minuteSeries(7200, 8)
	if err := cache.Save(ctx, "EURUSD", models.TFM1, replacement); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := cache.GetOrLoad(ctx, "EURUSD", models.TFM1)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if len(got) != 8 || got[0].Time != 7200 {
		t.Fatalf("stale series returned after save: len=%d first=%d", len(got), got[0].Time)
	}
}

func TestStatsInvariant(t *testing.T) {
	store := newFakeStore()
	store.put("EURUSD", models.TFM1, minuteSeries(0, 10))
	store.put("GBPUSD", models.TFM1, minuteSeries(0, 20))
	cache := NewCache(store, noopMetrics{}, testLogger(t), 0)

	ctx := context.Background()
	cache.GetOrLoad(ctx, "EURUSD", models.TFM1)
	cache.GetOrLoad(ctx, "GBPUSD", models.TFM1)

	stats := cache.Stats()
	if stats.Entries != 2 || stats.TotalCandles != 30 {
		t.Fatalf("stats %+v, want 2 entries / 30 candles", stats)
	}

	cache.Invalidate("EURUSD", models.TFM1)
	stats = cache.Stats()
	if stats.Entries != 1 || stats.TotalCandles != 20 {
		t.Fatalf("stats after invalidate %+v, want 1 entry / 20 candles", stats)
	}

	cache.Clear()
	stats = cache.Stats()
	if stats.Entries != 0 || stats.TotalCandles != 0 {
		t.Fatalf("stats after clear %+v, want zeros", stats)
	}
}

func TestLRUEviction(t *testing.T) {
	store := newFakeStore()
	store.put("A", models.TFM1, minuteSeries(0, 60))
	store.put("B", models.TFM1, minuteSeries(0, 60))
	store.put("C", models.TFM1, minuteSeries(0, 60))
	cache := NewCache(store, noopMetrics{}, testLogger(t), 150)

	ctx := context.Background()
	cache.GetOrLoad(ctx, "A", models.TFM1)
	cache.GetOrLoad(ctx, "B", models.TFM1)
	// Touch A so B becomes the least recently used.
	cache.GetOrLoad(ctx, "A", models.TFM1)

	loadsBefore := store.loads
	cache.GetOrLoad(ctx, "C", models.TFM1)

	stats := cache.Stats()
	if stats.Entries != 2 || stats.TotalCandles != 120 {
		t.Fatalf("stats after eviction %+v, want 2 entries / 120 candles", stats)
	}

	// A must still be resident, B must reload.
	cache.GetOrLoad(ctx, "A", models.TFM1)
	if store.loads != loadsBefore+1 {
		t.Fatalf("A was evicted instead of B")
	}
	cache.GetOrLoad(ctx, "B", models.TFM1)
	if store.loads != loadsBefore+2 {
		t.Fatalf("expected B to reload from store")
	}
}

func TestOversizedEntryAdmitted(t *testing.T) {
	store := newFakeStore()
	store.put("BIG", models.TFM1, minuteSeries(0, 500))
	cache := NewCache(store, noopMetrics{}, testLogger(t), 100)

	out, err := cache.GetOrLoad(context.Background(), "BIG", models.TFM1)
	if err != nil {
		t.Fatalf("oversized load must succeed: %v", err)
	}
	if len(out) != 500 {
		t.Fatalf("expected full series, got %d", len(out))
	}
	if stats := cache.Stats(); stats.Entries != 1 || stats.TotalCandles != 500 {
		t.Fatalf("oversized entry not resident: %+v", stats)
	}
}

func TestClearLeavesReturnedViewsIntact(t *testing.T) {
	store := newFakeStore()
	store.put("EURUSD", models.TFM1, minuteSeries(0, 5))
	cache := NewCache(store, noopMetrics{}, testLogger(t), 0)

	view, err := cache.GetOrLoad(context.Background(), "EURUSD", models.TFM1)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	cache.Clear()
	if len(view) != 5 || view[0].Time != 0 {
		t.Fatalf("returned view must survive Clear")
	}
}
