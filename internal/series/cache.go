package series

import (
	"context"
	"fmt"
	"sync"

	"ChartFlux/internal/domain/models"
	"ChartFlux/internal/domain/repository"
	applogger "ChartFlux/pkg/logger"
)

// Key identifies one resident series.
type Key struct {
	Symbol    string
	Timeframe models.TimeFrame
}

func (k Key) String() string {
	return fmt.Sprintf("%s/%s", k.Symbol, k.Timeframe)
}

// candleBytes is the rough resident cost of one candle (five decimals plus
// the timestamp), used only for the stats gauge.
const candleBytes = 96

type entry struct {
	candles    []models.Candle
	rows       int
	bytes      int
	lastAccess uint64
}

// Cache is the keyed series cache. Entries hold immutable snapshots:
// callers receive the entry's slice directly and must never mutate it, so
// a returned view stays valid after eviction or Clear. All index mutation
// is serialized by mu; store I/O and aggregation always happen outside it.
type Cache struct {
	store   repository.CandleStore
	metrics repository.Metrics
	logger  *applogger.Logger

	mu         sync.Mutex
	entries    map[Key]*entry
	total      int
	maxCandles int
	clock      uint64
}

// NewCache creates a series cache over the given store. maxCandles is a
// soft budget on total resident candles; zero means unbounded.
func NewCache(store repository.CandleStore, metrics repository.Metrics, logger *applogger.Logger, maxCandles int) *Cache {
	return &Cache{
		store:      store,
		metrics:    metrics,
		logger:     logger,
		entries:    make(map[Key]*entry),
		maxCandles: maxCandles,
	}
}

// SetMaxCandles updates the eviction budget (session config changes).
// The new budget applies on the next insert; resident entries stay.
func (c *Cache) SetMaxCandles(n int) {
	c.mu.Lock()
	c.maxCandles = n
	c.mu.Unlock()
}

// GetOrLoad returns the cached series for the key, loading on miss. When
// the store has nothing at the exact timeframe it loads the finest native
// series for the symbol and aggregates up. The load and aggregation run
// outside the index lock; if another caller populated the key first, the
// redundant result is discarded and the resident one returned.
func (c *Cache) GetOrLoad(ctx context.Context, symbol string, tf models.TimeFrame) ([]models.Candle, error) {
	key := Key{Symbol: symbol, Timeframe: tf}

	c.mu.Lock()
	if e, ok := c.entries[key]; ok {
		c.clock++
		e.lastAccess = c.clock
		c.mu.Unlock()
		c.metrics.RecordCacheHit(symbol, tf.String())
		return e.candles, nil
	}
	c.mu.Unlock()
	c.metrics.RecordCacheMiss(symbol, tf.String())

	candles, err := c.loadSeries(ctx, symbol, tf)
	if err != nil {
		return nil, err
	}
	return c.insert(key, candles), nil
}

func (c *Cache) loadSeries(ctx context.Context, symbol string, tf models.TimeFrame) ([]models.Candle, error) {
	native, err := c.store.Load(ctx, symbol, tf)
	if err != nil {
		return nil, fmt.Errorf("load %s %s: %w", symbol, tf, err)
	}
	if len(native) > 0 {
		return native, nil
	}

	finest, err := c.store.FinestTimeframe(ctx, symbol)
	if err != nil {
		return nil, err
	}
	if finest == tf {
		// Finest equals the requested timeframe but Load saw no rows: the
		// series vanished between the two queries.
		return nil, models.ErrSymbolNotFound
	}
	base, err := c.store.Load(ctx, symbol, finest)
	if err != nil {
		return nil, fmt.Errorf("load %s %s: %w", symbol, finest, err)
	}
	if len(base) == 0 {
		return nil, models.ErrSymbolNotFound
	}

	out, err := Aggregate(base, finest, tf)
	if err != nil {
		return nil, err
	}
	c.logger.Debug("aggregated on cache miss",
		applogger.String("symbol", symbol),
		applogger.String("from", finest.String()),
		applogger.String("to", tf.String()),
		applogger.Int("rows", len(out)))
	return out, nil
}

// insert adds the series under the index lock, evicting least recently
// accessed entries until the newcomer fits. The newcomer itself is never
// evicted: an oversized series is admitted and the budget treated as a
// soft target, because rejecting a load would be worse than overshooting.
func (c *Cache) insert(key Key, candles []models.Candle) []models.Candle {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		c.clock++
		e.lastAccess = c.clock
		return e.candles
	}

	if c.maxCandles > 0 {
		for c.total > 0 && c.total+len(candles) > c.maxCandles {
			c.evictLRULocked()
		}
	}

	c.clock++
	c.entries[key] = &entry{
		candles:    candles,
		rows:       len(candles),
		bytes:      len(candles) * candleBytes,
		lastAccess: c.clock,
	}
	c.total += len(candles)
	c.metrics.SetCacheResidency(len(c.entries), c.total)
	return candles
}

func (c *Cache) evictLRULocked() {
	var victim Key
	oldest := ^uint64(0)
	for k, e := range c.entries {
		if e.lastAccess < oldest {
			oldest = e.lastAccess
			victim = k
		}
	}
	e := c.entries[victim]
	delete(c.entries, victim)
	c.total -= e.rows
	c.metrics.RecordCacheEviction()
	c.logger.Debug("evicted series", applogger.String("key", victim.String()), applogger.Int("rows", e.rows))
}

// Save persists through the store and invalidates the exact key so the
// next read reloads. Stale-data avoidance wins over hit rate on writes.
func (c *Cache) Save(ctx context.Context, symbol string, tf models.TimeFrame, candles []models.Candle) error {
	if err := c.store.Save(ctx, symbol, tf, candles); err != nil {
		return fmt.Errorf("save %s %s: %w", symbol, tf, err)
	}
	c.Invalidate(symbol, tf)
	return nil
}

// Invalidate evicts one key if resident.
func (c *Cache) Invalidate(symbol string, tf models.TimeFrame) {
	key := Key{Symbol: symbol, Timeframe: tf}
	c.mu.Lock()
	if e, ok := c.entries[key]; ok {
		delete(c.entries, key)
		c.total -= e.rows
		c.metrics.SetCacheResidency(len(c.entries), c.total)
	}
	c.mu.Unlock()
}

// Stats returns the aggregate counters; they always equal the sum over
// live entries.
func (c *Cache) Stats() models.CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return models.CacheStats{Entries: len(c.entries), TotalCandles: c.total}
}

// Clear evicts everything. Views handed out earlier are unaffected.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.entries = make(map[Key]*entry)
	c.total = 0
	c.metrics.SetCacheResidency(0, 0)
	c.mu.Unlock()
}
