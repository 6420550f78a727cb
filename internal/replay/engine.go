package replay

import (
	"sync"

	"ChartFlux/internal/domain/models"
	"ChartFlux/internal/domain/repository"
)

// Speed bounds for playback. Values outside are clamped, never rejected.
const (
	MinSpeed = 0.1
	MaxSpeed = 10.0
)

// Engine owns the single active replay session: a cursor over one cached
// series plus play/pause state. Every mutation is a short constant-time
// operation under one mutex; no I/O ever happens while it is held.
type Engine struct {
	metrics repository.Metrics

	mu        sync.Mutex
	symbol    string
	timeframe models.TimeFrame
	data      []models.Candle
	index     int
	speed     float64
	playing   bool
}

func NewEngine(metrics repository.Metrics) *Engine {
	return &Engine{metrics: metrics, speed: 1.0}
}

// Load starts a new session over the series, unconditionally replacing any
// prior one. The series must be non-empty.
func (e *Engine) Load(symbol string, tf models.TimeFrame, candles []models.Candle) (models.ReplayInfo, error) {
	if len(candles) == 0 {
		return models.ReplayInfo{}, models.ErrEmptyReplaySession
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	e.symbol = symbol
	e.timeframe = tf
	e.data = candles
	e.index = 0
	e.speed = 1.0
	e.playing = false
	e.metrics.RecordReplayOp("load")

	return models.ReplayInfo{
		Symbol:       symbol,
		Timeframe:    tf.String(),
		TotalCandles: len(candles),
		CurrentIndex: 0,
		StartTime:    candles[0].Time,
		EndTime:      candles[len(candles)-1].Time,
		IsPlaying:    false,
		Speed:        1.0,
	}, nil
}

// Start begins playback. Idempotent when already playing.
func (e *Engine) Start() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.data) == 0 {
		return models.ErrEmptyReplaySession
	}
	e.playing = true
	e.metrics.RecordReplayOp("start")
	return nil
}

// Pause is always safe, even with nothing loaded.
func (e *Engine) Pause() {
	e.mu.Lock()
	e.playing = false
	e.mu.Unlock()
	e.metrics.RecordReplayOp("pause")
}

// Stop pauses and rewinds to the first bar. Loaded data stays.
func (e *Engine) Stop() {
	e.mu.Lock()
	e.playing = false
	e.index = 0
	e.mu.Unlock()
	e.metrics.RecordReplayOp("stop")
}

// StepForward moves the cursor ahead by n bars, clamped to the last bar.
// Manual stepping always interrupts autoplay.
func (e *Engine) StepForward(n int) (models.ReplayUpdate, error) {
	return e.step(n)
}

// StepBackward moves the cursor back by n bars, clamped to the first bar.
func (e *Engine) StepBackward(n int) (models.ReplayUpdate, error) {
	return e.step(-n)
}

func (e *Engine) step(delta int) (models.ReplayUpdate, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.data) == 0 {
		return models.ReplayUpdate{}, models.ErrEmptyReplaySession
	}
	e.index = clamp(e.index+delta, 0, len(e.data)-1)
	e.playing = false
	e.metrics.RecordReplayOp("step")
	return e.updateLocked(), nil
}

// Seek jumps to the index, clamped to the series bounds. Same side effects
// as stepping.
func (e *Engine) Seek(index int) (models.ReplayUpdate, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.data) == 0 {
		return models.ReplayUpdate{}, models.ErrEmptyReplaySession
	}
	e.index = clamp(index, 0, len(e.data)-1)
	e.playing = false
	e.metrics.RecordReplayOp("seek")
	return e.updateLocked(), nil
}

// SetSpeed clamps into [MinSpeed, MaxSpeed] and returns the applied value.
// The cursor is untouched.
func (e *Engine) SetSpeed(v float64) float64 {
	if v < MinSpeed {
		v = MinSpeed
	}
	if v > MaxSpeed {
		v = MaxSpeed
	}
	e.mu.Lock()
	e.speed = v
	e.mu.Unlock()
	e.metrics.RecordReplayOp("speed")
	return v
}

// Tick is the autoplay advance used by the driver: one bar forward while
// playing, keeping the playing flag set. Playback pauses itself on the
// last bar. The second return is false when no frame should be emitted.
func (e *Engine) Tick() (models.ReplayUpdate, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.data) == 0 || !e.playing {
		return models.ReplayUpdate{}, false
	}
	if e.index >= len(e.data)-1 {
		e.playing = false
		return models.ReplayUpdate{}, false
	}
	e.index++
	return e.updateLocked(), true
}

// Speed returns the current playback speed.
func (e *Engine) Speed() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.speed
}

// Snapshot is safe in any state; with nothing loaded it returns the
// defined empty projection.
func (e *Engine) Snapshot() models.ReplayStatus {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.data) == 0 {
		return models.ReplayStatus{Speed: 1.0}
	}
	return models.ReplayStatus{
		IsLoaded:     true,
		IsPlaying:    e.playing,
		CurrentIndex: e.index,
		TotalCandles: len(e.data),
		Speed:        e.speed,
		Symbol:       e.symbol,
		Timeframe:    e.timeframe.String(),
		Progress:     progress(e.index, len(e.data)),
	}
}

func (e *Engine) updateLocked() models.ReplayUpdate {
	c := e.data[e.index]
	return models.ReplayUpdate{
		CurrentIndex: e.index,
		TotalCandles: len(e.data),
		Time:         c.Time,
		Open:         c.Open.String(),
		High:         c.High.String(),
		Low:          c.Low.String(),
		Close:        c.Close.String(),
		Volume:       c.Volume.String(),
		Progress:     progress(e.index, len(e.data)),
	}
}

// progress maps the cursor onto [0,1] with the last bar at exactly 1.0.
func progress(index, total int) float64 {
	if total <= 1 {
		return 1.0
	}
	return float64(index) / float64(total-1)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
