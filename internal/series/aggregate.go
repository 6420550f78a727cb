package series

import (
	"ChartFlux/internal/domain/models"
)

// Aggregate folds a finer-timeframe series into a coarser one. Buckets are
// epoch-aligned: a candle at time t belongs to the bucket starting at
// t - (t mod target width). Within a bucket, open comes from the first
// candle, close from the last, high/low are the extremes, volume is the
// exact decimal sum, and the output time is the bucket boundary.
//
// The source must be ordered by time ascending (stored series always are).
// An empty source yields an empty output, not an error.
func Aggregate(src []models.Candle, sourceTF, targetTF models.TimeFrame) ([]models.Candle, error) {
	if !sourceTF.Valid() || !targetTF.Valid() {
		return nil, models.ErrInvalidTimeframe
	}
	srcSec, dstSec := sourceTF.Seconds(), targetTF.Seconds()
	if dstSec <= srcSec || dstSec%srcSec != 0 {
		return nil, models.ErrAggregationDirection
	}
	if len(src) == 0 {
		return []models.Candle{}, nil
	}

	out := make([]models.Candle, 0, len(src)/int(dstSec/srcSec)+1)
	var cur models.Candle
	var curBucket int64
	started := false

	for _, c := range src {
		bucket := c.Time - mod(c.Time, dstSec)
		if !started || bucket != curBucket {
			if started {
				out = append(out, cur)
			}
			started = true
			curBucket = bucket
			cur = c
			cur.Time = bucket
			continue
		}
		if c.High.GreaterThan(cur.High) {
			cur.High = c.High
		}
		if c.Low.LessThan(cur.Low) {
			cur.Low = c.Low
		}
		cur.Close = c.Close
		cur.Volume = cur.Volume.Add(c.Volume)
	}
	out = append(out, cur)
	return out, nil
}

// mod is a floored modulo so pre-epoch timestamps still land on the
// boundary below them.
func mod(a, b int64) int64 {
	m := a % b
	if m < 0 {
		m += b
	}
	return m
}
