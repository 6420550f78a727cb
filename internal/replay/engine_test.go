package replay

import (
	"testing"

	"github.com/shopspring/decimal"

	"ChartFlux/internal/domain/models"
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

// fiveCandles returns bars at 0,60,120,180,240 seconds.
func fiveCandles() []models.Candle {
	out := make([]models.Candle, 0, 5)
	for i := int64(0); i < 5; i++ {
		p := decimal.NewFromInt(100 + i)
		out = append(out, models.Candle{
			Time: i * 60, Open: p, High: p, Low: p, Close: p,
			Volume: decimal.NewFromInt(1),
		})
	}
	return out
}

func loadedEngine(t *testing.T) *Engine {
	t.Helper()
	e := NewEngine(noopMetrics{})
	if _, err := e.Load("EURUSD", models.TFM1, fiveCandles()); err != nil {
		t.Fatalf("load: %v", err)
	}
	return e
}

func TestLoadRequiresCandles(t *testing.T) {
	e := NewEngine(noopMetrics{})
	if _, err := e.Load("EURUSD", models.TFM1, nil); err != models.ErrEmptyReplaySession {
		t.Fatalf("expected ErrEmptyReplaySession, got %v", err)
	}
}

func TestLoadResetsSession(t *testing.T) {
	e := loadedEngine(t)
	e.Start()
	e.Seek(3)
	e.SetSpeed(4)

	info, err := e.Load("GBPUSD", models.TFM5, fiveCandles())
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if info.Symbol != "GBPUSD" || info.CurrentIndex != 0 || info.IsPlaying || info.Speed != 1.0 {
		t.Fatalf("reload did not reset session: %+v", info)
	}
	if info.StartTime != 0 || info.EndTime != 240 {
		t.Fatalf("unexpected time range: %+v", info)
	}
}

func TestEmptyOperationsFail(t *testing.T) {
	e := NewEngine(noopMetrics{})
	if err := e.Start(); err != models.ErrEmptyReplaySession {
		t.Fatalf("start on empty: %v", err)
	}
	if _, err := e.StepForward(1); err != models.ErrEmptyReplaySession {
		t.Fatalf("step on empty: %v", err)
	}
	if _, err := e.Seek(0); err != models.ErrEmptyReplaySession {
		t.Fatalf("seek on empty: %v", err)
	}
	// Pause and Stop never fail.
	e.Pause()
	e.Stop()
}

func TestStepScenario(t *testing.T) {
	e := loadedEngine(t)

	upd, err := e.StepForward(2)
	if err != nil {
		t.Fatalf("step forward: %v", err)
	}
	if upd.CurrentIndex != 2 || upd.Time != 120 {
		t.Fatalf("after +2: index %d time %d, want 2/120", upd.CurrentIndex, upd.Time)
	}

	upd, err = e.StepBackward(10)
	if err != nil {
		t.Fatalf("step backward: %v", err)
	}
	if upd.CurrentIndex != 0 || upd.Time != 0 {
		t.Fatalf("after -10: index %d time %d, want 0/0", upd.CurrentIndex, upd.Time)
	}

	upd, err = e.Seek(4)
	if err != nil {
		t.Fatalf("seek: %v", err)
	}
	if upd.CurrentIndex != 4 || upd.Progress != 1.0 {
		t.Fatalf("after seek(4): index %d progress %v, want 4/1.0", upd.CurrentIndex, upd.Progress)
	}
}

func TestStepRoundTrip(t *testing.T) {
	e := loadedEngine(t)
	e.Seek(2)
	e.StepForward(1)
	upd, _ := e.StepBackward(1)
	if upd.CurrentIndex != 2 {
		t.Fatalf("forward then backward must return to 2, got %d", upd.CurrentIndex)
	}
}

func TestSeekClampsToLastIndex(t *testing.T) {
	e := loadedEngine(t)
	upd, err := e.Seek(1 << 20)
	if err != nil {
		t.Fatalf("seek: %v", err)
	}
	if upd.CurrentIndex != 4 || upd.Progress != 1.0 {
		t.Fatalf("huge seek: index %d progress %v, want last/1.0", upd.CurrentIndex, upd.Progress)
	}
}

func TestSteppingInterruptsPlayback(t *testing.T) {
	e := loadedEngine(t)
	if err := e.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	e.StepForward(1)
	if snap := e.Snapshot(); snap.IsPlaying {
		t.Fatalf("manual step must pause playback")
	}
}

func TestStopRewindsButKeepsData(t *testing.T) {
	e := loadedEngine(t)
	e.Start()
	e.Seek(3)
	e.Stop()

	snap := e.Snapshot()
	if !snap.IsLoaded || snap.IsPlaying || snap.CurrentIndex != 0 {
		t.Fatalf("stop must rewind and pause, keeping data: %+v", snap)
	}
	if err := e.Start(); err != nil {
		t.Fatalf("restart after stop: %v", err)
	}
}

func TestSetSpeedClamps(t *testing.T) {
	e := loadedEngine(t)
	if got := e.SetSpeed(0.01); got != MinSpeed {
		t.Fatalf("low speed clamped to %v, want %v", got, MinSpeed)
	}
	if got := e.SetSpeed(99); got != MaxSpeed {
		t.Fatalf("high speed clamped to %v, want %v", got, MaxSpeed)
	}
	if got := e.SetSpeed(2.5); got != 2.5 {
		t.Fatalf("in-range speed changed to %v", got)
	}
	if snap := e.Snapshot(); snap.CurrentIndex != 0 {
		t.Fatalf("speed change moved the cursor")
	}
}

func TestSnapshotEmpty(t *testing.T) {
	e := NewEngine(noopMetrics{})
	snap := e.Snapshot()
	if snap.IsLoaded || snap.IsPlaying || snap.TotalCandles != 0 || snap.Speed != 1.0 {
		t.Fatalf("unexpected empty snapshot: %+v", snap)
	}
}

func TestTickAdvancesWhilePlaying(t *testing.T) {
	e := loadedEngine(t)

	if _, ok := e.Tick(); ok {
		t.Fatalf("tick while paused must emit nothing")
	}

	e.Start()
	for i := 1; i <= 4; i++ {
		upd, ok := e.Tick()
		if !ok {
			t.Fatalf("tick %d emitted nothing", i)
		}
		if upd.CurrentIndex != i {
			t.Fatalf("tick %d landed on %d", i, upd.CurrentIndex)
		}
		if snap := e.Snapshot(); !snap.IsPlaying {
			t.Fatalf("tick must keep playback running")
		}
	}

	// At the last bar playback pauses itself.
	if _, ok := e.Tick(); ok {
		t.Fatalf("tick at the end must emit nothing")
	}
	if snap := e.Snapshot(); snap.IsPlaying {
		t.Fatalf("playback must pause at the last bar")
	}
}

func TestSingleCandleProgress(t *testing.T) {
	e := NewEngine(noopMetrics{})
	if _, err := e.Load("EURUSD", models.TFM1, fiveCandles()[:1]); err != nil {
		t.Fatalf("load: %v", err)
	}
	upd, err := e.Seek(0)
	if err != nil {
		t.Fatalf("seek: %v", err)
	}
	if upd.Progress != 1.0 {
		t.Fatalf("single candle progress %v, want 1.0", upd.Progress)
	}
}
