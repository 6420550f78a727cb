package models

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Candle is one OHLCV bar. Time is epoch seconds UTC; prices and volume are
// fixed-precision decimals so sums and comparisons stay exact across
// aggregation (never binary floats).
type Candle struct {
	Time   int64
	Open   decimal.Decimal
	High   decimal.Decimal
	Low    decimal.Decimal
	Close  decimal.Decimal
	Volume decimal.Decimal
}

// NormalizeCandles sorts by time ascending and drops duplicate timestamps,
// keeping the last occurrence. Every stored or cached sequence must be
// strictly increasing in time; this is the single place that enforces it.
func NormalizeCandles(candles []Candle) []Candle {
	if len(candles) == 0 {
		return candles
	}
	out := make([]Candle, len(candles))
	copy(out, candles)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Time < out[j].Time })

	n := 0
	for i := range out {
		if n > 0 && out[n-1].Time == out[i].Time {
			out[n-1] = out[i]
			continue
		}
		out[n] = out[i]
		n++
	}
	return out[:n]
}

// CacheStats is an aggregate view over the series cache.
type CacheStats struct {
	Entries      int
	TotalCandles int
}
