package usecase

import (
	"context"
	"encoding/json"

	"ChartFlux/internal/domain/models"
	domrepo "ChartFlux/internal/domain/repository"
	"ChartFlux/internal/series"
	pkgkafka "ChartFlux/pkg/kafka"
)

// KafkaInvalidationsHandler drops cached series keys announced by other
// instances. An instance also consumes its own events; re-invalidating an
// absent key is a no-op.
type KafkaInvalidationsHandler struct {
	topic   string
	cache   *series.Cache
	metrics domrepo.Metrics
}

func NewKafkaInvalidationsHandler(topic string, cache *series.Cache, metrics domrepo.Metrics) *KafkaInvalidationsHandler {
	return &KafkaInvalidationsHandler{topic: topic, cache: cache, metrics: metrics}
}

func (h *KafkaInvalidationsHandler) Topic() string { return h.topic }

func (h *KafkaInvalidationsHandler) Handle(_ context.Context, b []byte) error {
	var ev InvalidationEvent
	if err := json.Unmarshal(b, &ev); err != nil {
		h.metrics.RecordError("invalidation_unmarshal")
		return err
	}
	tf, err := models.ParseTimeFrame(ev.Timeframe)
	if err != nil {
		h.metrics.RecordError("invalidation_timeframe")
		return err
	}
	h.cache.Invalidate(ev.Symbol, tf)
	return nil
}

var _ pkgkafka.MessageHandler = (*KafkaInvalidationsHandler)(nil)
