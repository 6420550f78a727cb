package replay

import (
	"context"
	"sync"
	"time"

	"ChartFlux/internal/domain/models"
	applogger "ChartFlux/pkg/logger"
)

// Driver is the autonomous advancement loop: while the session is playing
// it ticks the engine every baseInterval/speed and fans the resulting
// frames out to subscribers (the websocket stream). The engine itself
// stays timer-free; stopping the driver never corrupts session state.
type Driver struct {
	engine       *Engine
	logger       *applogger.Logger
	baseInterval time.Duration

	mu   sync.Mutex
	subs map[chan models.ReplayUpdate]struct{}
}

// NewDriver creates a driver. baseInterval is the wall-clock time one bar
// takes at speed 1.0 (the UI plays compressed time, not bar duration).
func NewDriver(engine *Engine, logger *applogger.Logger, baseInterval time.Duration) *Driver {
	if baseInterval <= 0 {
		baseInterval = time.Second
	}
	return &Driver{
		engine:       engine,
		logger:       logger,
		baseInterval: baseInterval,
		subs:         make(map[chan models.ReplayUpdate]struct{}),
	}
}

// Subscribe registers a frame channel. The returned cancel must be called
// when the consumer goes away.
func (d *Driver) Subscribe() (<-chan models.ReplayUpdate, func()) {
	ch := make(chan models.ReplayUpdate, 16)
	d.mu.Lock()
	d.subs[ch] = struct{}{}
	d.mu.Unlock()

	cancel := func() {
		d.mu.Lock()
		delete(d.subs, ch)
		d.mu.Unlock()
	}
	return ch, cancel
}

// Run blocks until the context is cancelled, ticking the engine whenever
// playback is active. Slow subscribers drop frames rather than stall the
// loop.
func (d *Driver) Run(ctx context.Context) {
	d.logger.Info("replay driver started",
		applogger.Duration("base_interval", d.baseInterval))
	for {
		select {
		case <-ctx.Done():
			d.logger.Info("replay driver stopped")
			return
		case <-time.After(d.interval()):
			upd, ok := d.engine.Tick()
			if !ok {
				continue
			}
			d.broadcast(upd)
		}
	}
}

func (d *Driver) interval() time.Duration {
	speed := d.engine.Speed()
	if speed < MinSpeed {
		speed = 1.0
	}
	return time.Duration(float64(d.baseInterval) / speed)
}

func (d *Driver) broadcast(upd models.ReplayUpdate) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for ch := range d.subs {
		select {
		case ch <- upd:
		default:
		}
	}
}
