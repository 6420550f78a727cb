package repository

import (
	"context"

	"ChartFlux/internal/domain/models"
)

// CandleStore is the durable home of per-(symbol, timeframe) candle series.
// Implementations own persistence; callers own ordering guarantees via
// models.NormalizeCandles before Save.
type CandleStore interface {
	// Load returns the stored series for the exact (symbol, timeframe) key,
	// or an empty slice when nothing is stored at that key.
	Load(ctx context.Context, symbol string, tf models.TimeFrame) ([]models.Candle, error)
	// FinestTimeframe returns the smallest timeframe with stored data for
	// the symbol, or models.ErrSymbolNotFound when the symbol is unknown.
	FinestTimeframe(ctx context.Context, symbol string) (models.TimeFrame, error)
	// Save replaces the stored series for the key.
	Save(ctx context.Context, symbol string, tf models.TimeFrame, candles []models.Candle) error
	// Append adds a single bar to the stored series (live ingestion path).
	Append(ctx context.Context, symbol string, tf models.TimeFrame, candle models.Candle) error
	Symbols(ctx context.Context) ([]string, error)
	Health(ctx context.Context) error
	Close() error
}

// DrawingStore persists opaque per-(symbol, timeframe) annotation blobs.
type DrawingStore interface {
	SaveDrawings(ctx context.Context, symbol string, tf models.TimeFrame, drawings string) error
	// LoadDrawings returns "[]" when nothing has been saved for the key.
	LoadDrawings(ctx context.Context, symbol string, tf models.TimeFrame) (string, error)
	Close() error
}

// Metrics abstracts the Prometheus recorder from domain code.
type Metrics interface {
	RecordCacheHit(symbol, tf string)
	RecordCacheMiss(symbol, tf string)
	RecordCacheEviction()
	SetCacheResidency(entries, candles int)
	RecordImportRows(symbol string, accepted, skipped int)
	RecordReplayOp(op string)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
}
