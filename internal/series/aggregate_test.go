package series

import (
	"testing"

	"github.com/shopspring/decimal"

	"ChartFlux/internal/domain/models"
)

func mkCandle(ts int64, o, h, l, c, v string) models.Candle {
	return models.Candle{
		Time:   ts,
		Open:   decimal.RequireFromString(o),
		High:   decimal.RequireFromString(h),
		Low:    decimal.RequireFromString(l),
		Close:  decimal.RequireFromString(c),
		Volume: decimal.RequireFromString(v),
	}
}

// minuteSeries builds n consecutive M1 candles starting at startTs.
func minuteSeries(startTs int64, n int) []models.Candle {
	out := make([]models.Candle, 0, n)
	for i := 0; i < n; i++ {
		p := decimal.NewFromInt(int64(100 + i%7))
		out = append(out, models.Candle{
			Time:   startTs + int64(i)*60,
			Open:   p,
			High:   p.Add(decimal.NewFromInt(2)),
			Low:    p.Sub(decimal.NewFromInt(1)),
			Close:  p.Add(decimal.NewFromInt(1)),
			Volume: decimal.NewFromInt(int64(10 + i%3)),
		})
	}
	return out
}

func TestAggregateDirection(t *testing.T) {
	src := minuteSeries(0, 5)

	if _, err := Aggregate(src, models.TFM5, models.TFM1); err != models.ErrAggregationDirection {
		t.Fatalf("coarser to finer: expected ErrAggregationDirection, got %v", err)
	}
	if _, err := Aggregate(src, models.TFH1, models.TFH1); err != models.ErrAggregationDirection {
		t.Fatalf("same timeframe: expected ErrAggregationDirection, got %v", err)
	}
	if _, err := Aggregate(src, 0, models.TFH1); err != models.ErrInvalidTimeframe {
		t.Fatalf("invalid source: expected ErrInvalidTimeframe, got %v", err)
	}
}

func TestAggregateEmpty(t *testing.T) {
	out, err := Aggregate(nil, models.TFM1, models.TFH1)
	if err != nil {
		t.Fatalf("empty source must not fail: %v", err)
	}
	if len(out) != 0 {
		t.Fatalf("expected empty output, got %d candles", len(out))
	}
}

func TestAggregateFold(t *testing.T) {
	src := []models.Candle{
		mkCandle(0, "10", "12", "9", "11", "1.5"),
		mkCandle(60, "11", "15", "10", "14", "2"),
		mkCandle(120, "14", "14", "8", "9", "0.5"),
		mkCandle(180, "9", "10", "9", "10", "1"),
		mkCandle(240, "10", "11", "7", "8", "3"),
	}
	out, err := Aggregate(src, models.TFM1, models.TFM5)
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("expected 1 bucket, got %d", len(out))
	}
	got := out[0]
	if got.Time != 0 {
		t.Fatalf("bucket time %d, want 0", got.Time)
	}
	if got.Open.String() != "10" || got.Close.String() != "8" {
		t.Fatalf("open/close %s/%s, want 10/8", got.Open, got.Close)
	}
	if got.High.String() != "15" || got.Low.String() != "7" {
		t.Fatalf("high/low %s/%s, want 15/7", got.High, got.Low)
	}
	if got.Volume.String() != "8" {
		t.Fatalf("volume %s, want 8", got.Volume)
	}
}

func TestAggregateBucketBoundaries(t *testing.T) {
	// 240 falls in bucket 0, 300 starts the next one.
	src := []models.Candle{
		mkCandle(240, "1", "1", "1", "1", "1"),
		mkCandle(300, "2", "2", "2", "2", "1"),
	}
	out, err := Aggregate(src, models.TFM1, models.TFM5)
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 buckets, got %d", len(out))
	}
	if out[0].Time != 0 || out[1].Time != 300 {
		t.Fatalf("bucket times %d,%d, want 0,300", out[0].Time, out[1].Time)
	}
}

func TestAggregateSingleCandleRealigned(t *testing.T) {
	src := []models.Candle{mkCandle(310, "5", "6", "4", "5", "2")}
	out, err := Aggregate(src, models.TFM1, models.TFM5)
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	if len(out) != 1 || out[0].Time != 300 {
		t.Fatalf("expected single candle realigned to 300, got %+v", out)
	}
	if !out[0].Open.Equal(src[0].Open) || !out[0].Volume.Equal(src[0].Volume) {
		t.Fatalf("single-candle bucket must pass through unchanged")
	}
}

func TestAggregateVolumeConserved(t *testing.T) {
	src := minuteSeries(0, 360)
	out, err := Aggregate(src, models.TFM1, models.TFH1)
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}

	sum := func(cs []models.Candle) decimal.Decimal {
		total := decimal.Zero
		for _, c := range cs {
			total = total.Add(c.Volume)
		}
		return total
	}
	if !sum(src).Equal(sum(out)) {
		t.Fatalf("volume not conserved: src %s, out %s", sum(src), sum(out))
	}

	// Per-bucket high/low must bound the sources.
	for _, b := range out {
		for _, c := range src {
			if c.Time < b.Time || c.Time >= b.Time+models.TFH1.Seconds() {
				continue
			}
			if c.High.GreaterThan(b.High) || c.Low.LessThan(b.Low) {
				t.Fatalf("bucket %d does not bound candle at %d", b.Time, c.Time)
			}
		}
	}
}

func TestAggregateAssociative(t *testing.T) {
	src := minuteSeries(0, 2*24*60)

	hourly, err := Aggregate(src, models.TFM1, models.TFH1)
	if err != nil {
		t.Fatalf("M1->H1: %v", err)
	}
	viaHourly, err := Aggregate(hourly, models.TFH1, models.TFD1)
	if err != nil {
		t.Fatalf("H1->D1: %v", err)
	}
	direct, err := Aggregate(src, models.TFM1, models.TFD1)
	if err != nil {
		t.Fatalf("M1->D1: %v", err)
	}

	if len(viaHourly) != len(direct) {
		t.Fatalf("length mismatch: via H1 %d, direct %d", len(viaHourly), len(direct))
	}
	for i := range direct {
		a, b := viaHourly[i], direct[i]
		if a.Time != b.Time ||
			!a.Open.Equal(b.Open) || !a.High.Equal(b.High) ||
			!a.Low.Equal(b.Low) || !a.Close.Equal(b.Close) ||
			!a.Volume.Equal(b.Volume) {
			t.Fatalf("bucket %d differs:\nvia H1: %+v\ndirect: %+v", i, a, b)
		}
	}
}

func TestAggregatePreEpoch(t *testing.T) {
	src := []models.Candle{mkCandle(-60, "1", "1", "1", "1", "1")}
	out, err := Aggregate(src, models.TFM1, models.TFM5)
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	if out[0].Time != -300 {
		t.Fatalf("pre-epoch bucket %d, want -300", out[0].Time)
	}
}

func TestAggregatePreEpochMultipleBuckets(t *testing.T) {
	// Two bars in distinct negative buckets: the first bucket must flush
	// when the second starts, not vanish.
	src := []models.Candle{
		mkCandle(-600, "1", "1", "1", "1", "1"),
		mkCandle(-300, "2", "2", "2", "2", "1"),
	}
	out, err := Aggregate(src, models.TFM1, models.TFM5)
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 buckets, got %d: %+v", len(out), out)
	}
	if out[0].Time != -600 || out[1].Time != -300 {
		t.Fatalf("bucket times %d,%d, want -600,-300", out[0].Time, out[1].Time)
	}

	var in, got decimal.Decimal
	for _, c := range src {
		in = in.Add(c.Volume)
	}
	for _, c := range out {
		got = got.Add(c.Volume)
	}
	if !in.Equal(got) {
		t.Fatalf("volume not conserved: in %s out %s", in, got)
	}
}

func TestAggregateBucketAtZero(t *testing.T) {
	// A completed bucket at t=0 must flush when the next bucket begins.
	src := []models.Candle{
		mkCandle(0, "1", "1", "1", "1", "1"),
		mkCandle(300, "2", "2", "2", "2", "1"),
	}
	out, err := Aggregate(src, models.TFM1, models.TFM5)
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	if len(out) != 2 || out[0].Time != 0 || out[1].Time != 300 {
		t.Fatalf("unexpected buckets: %+v", out)
	}
}
