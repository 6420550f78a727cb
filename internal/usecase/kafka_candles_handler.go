package usecase

import (
	"context"
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"ChartFlux/internal/domain/models"
	domrepo "ChartFlux/internal/domain/repository"
	"ChartFlux/internal/series"
	pkgkafka "ChartFlux/pkg/kafka"
)

// KafkaCandlesHandler consumes finished bars from Kafka, appends them to
// the store, and invalidates the affected cache key so readers see the new
// bar on their next load.
type KafkaCandlesHandler struct {
	topic   string
	store   domrepo.CandleStore
	cache   *series.Cache
	metrics domrepo.Metrics
}

func NewKafkaCandlesHandler(topic string, store domrepo.CandleStore, cache *series.Cache, metrics domrepo.Metrics) *KafkaCandlesHandler {
	return &KafkaCandlesHandler{topic: topic, store: store, cache: cache, metrics: metrics}
}

func (h *KafkaCandlesHandler) Topic() string { return h.topic }

// incoming message schema: {symbol, tf, time, open, high, low, close, volume}
// with decimal values as strings.
func (h *KafkaCandlesHandler) Handle(ctx context.Context, b []byte) error {
	var m struct {
		Symbol string `json:"symbol"`
		TF     string `json:"tf"`
		Time   int64  `json:"time"`
		Open   string `json:"open"`
		High   string `json:"high"`
		Low    string `json:"low"`
		Close  string `json:"close"`
		Volume string `json:"volume"`
	}
	if err := json.Unmarshal(b, &m); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return err
	}
	tf, err := models.ParseTimeFrame(m.TF)
	if err != nil {
		h.metrics.RecordError("consumer_timeframe")
		return err
	}
	if m.Time > 1e11 { // ms
		m.Time = m.Time / 1000
	}

	c := models.Candle{Time: m.Time}
	if c.Open, err = decimal.NewFromString(m.Open); err != nil {
		h.metrics.RecordError("consumer_decode")
		return err
	}
	if c.High, err = decimal.NewFromString(m.High); err != nil {
		h.metrics.RecordError("consumer_decode")
		return err
	}
	if c.Low, err = decimal.NewFromString(m.Low); err != nil {
		h.metrics.RecordError("consumer_decode")
		return err
	}
	if c.Close, err = decimal.NewFromString(m.Close); err != nil {
		h.metrics.RecordError("consumer_decode")
		return err
	}
	if c.Volume, err = decimal.NewFromString(m.Volume); err != nil {
		c.Volume = decimal.Zero
	}

	start := time.Now()
	if err := h.store.Append(ctx, m.Symbol, tf, c); err != nil {
		h.metrics.RecordError("consumer_store")
		return err
	}
	h.metrics.RecordLatency("ch_append_seconds", time.Since(start).Seconds())

	// The resident series no longer matches the store; force a reload.
	h.cache.Invalidate(m.Symbol, tf)
	return nil
}

var _ pkgkafka.MessageHandler = (*KafkaCandlesHandler)(nil)
