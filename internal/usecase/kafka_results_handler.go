package usecase

import (
	"context"
	"encoding/json"
	"time"

	"ZPulse/internal/domain/models"
	domrepo "ZPulse/internal/domain/repository"
	pkgkafka "ZPulse/pkg/kafka"
)

// KafkaResultsHandler consumes computed result rows from Kafka and writes
// them to the result store.
type KafkaResultsHandler struct {
	topic   string
	store   domrepo.ResultStore
	metrics domrepo.Metrics
}

func NewKafkaResultsHandler(topic string, store domrepo.ResultStore, metrics domrepo.Metrics) *KafkaResultsHandler {
	return &KafkaResultsHandler{topic: topic, store: store, metrics: metrics}
}

func (h *KafkaResultsHandler) Topic() string { return h.topic }

func (h *KafkaResultsHandler) Handle(ctx context.Context, b []byte) error {
	var row models.QuarterRow
	if err := json.Unmarshal(b, &row); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return err
	}

	start := time.Now()
	err := h.store.Store(ctx, &row)
	h.metrics.RecordLatency("ch_insert_seconds", time.Since(start).Seconds())
	if err != nil {
		h.metrics.RecordError("consumer_store")
		return err
	}
	h.metrics.RecordRowSent("clickhouse", row.Ticker)
	return nil
}

var _ pkgkafka.MessageHandler = (*KafkaResultsHandler)(nil)
