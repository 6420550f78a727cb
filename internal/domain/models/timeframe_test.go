package models

import "testing"

func TestTimeFrameRoundTrip(t *testing.T) {
	for _, tf := range AllTimeFrames() {
		got, err := ParseTimeFrame(tf.String())
		if err != nil {
			t.Fatalf("parse %q: %v", tf.String(), err)
		}
		if got != tf {
			t.Fatalf("round trip %q: got %v want %v", tf.String(), got, tf)
		}
	}
}

func TestParseTimeFrameUnknown(t *testing.T) {
	for _, label := range []string{"", "m1", "M2", "1H", "h1", "D"} {
		if _, err := ParseTimeFrame(label); err != ErrInvalidTimeframe {
			t.Fatalf("parse %q: expected ErrInvalidTimeframe, got %v", label, err)
		}
	}
}

func TestTimeFrameOrdering(t *testing.T) {
	all := AllTimeFrames()
	for i := 1; i < len(all); i++ {
		if all[i].Seconds() <= all[i-1].Seconds() {
			t.Fatalf("%v (%d s) must be longer than %v (%d s)",
				all[i], all[i].Seconds(), all[i-1], all[i-1].Seconds())
		}
	}
	if TFM1.Seconds() != 60 || TFH1.Seconds() != 3600 || TFD1.Seconds() != 86400 {
		t.Fatalf("unexpected bar lengths: M1=%d H1=%d D1=%d",
			TFM1.Seconds(), TFH1.Seconds(), TFD1.Seconds())
	}
}

func TestNormalizeCandlesSortsAndDedupes(t *testing.T) {
	in := []Candle{
		{Time: 120}, {Time: 0}, {Time: 60}, {Time: 60}, {Time: 0},
	}
	out := NormalizeCandles(in)
	if len(out) != 3 {
		t.Fatalf("expected 3 candles, got %d", len(out))
	}
	for i, want := range []int64{0, 60, 120} {
		if out[i].Time != want {
			t.Fatalf("index %d: time %d, want %d", i, out[i].Time, want)
		}
	}
	// input untouched
	if in[0].Time != 120 {
		t.Fatalf("input slice was mutated")
	}
}
