package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"FinTrack/internal/domain/models"
	domrepo "FinTrack/internal/domain/repository"
	pkgkafka "FinTrack/pkg/kafka"
	"FinTrack/pkg/metrics"
	"FinTrack/pkg/util"
)

// KafkaTransactionsHandler stores transactions received on the ingest topic.
// Malformed or invalid messages fail permanently and go straight to the DLQ;
// store failures are retried by the consumer.
type KafkaTransactionsHandler struct {
	topic   string
	txs     *TransactionsUseCase
	loc     *time.Location
	metrics domrepo.Metrics
}

func NewKafkaTransactionsHandler(topic string, txs *TransactionsUseCase, loc *time.Location, m domrepo.Metrics) *KafkaTransactionsHandler {
	if loc == nil {
		loc = time.Local
	}
	if m == nil {
		m = metrics.Noop{}
	}
	return &KafkaTransactionsHandler{topic: topic, txs: txs, loc: loc, metrics: m}
}

func (h *KafkaTransactionsHandler) Topic() string { return h.topic }

// incoming message schema: {id?, amount, date, description}
func (h *KafkaTransactionsHandler) Handle(ctx context.Context, b []byte) error {
	start := time.Now()
	defer func() { h.metrics.RecordLatency("ingest", time.Since(start).Seconds()) }()

	var m models.TransactionMessage
	if err := json.Unmarshal(b, &m); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return pkgkafka.Permanent(fmt.Errorf("decode transaction message: %w", err))
	}
	if m.Amount == nil {
		h.metrics.RecordError("consumer_invalid")
		return pkgkafka.Permanent(fmt.Errorf("%w: amount is required", models.ErrInvalidTransaction))
	}
	date, ok := util.ParseTime(m.Date, h.loc)
	if !ok {
		h.metrics.RecordError("consumer_invalid")
		return pkgkafka.Permanent(fmt.Errorf("%w: date %q", util.ErrInvalidDate, m.Date))
	}

	in := TransactionInput{Amount: *m.Amount, Date: date, Description: m.Description}
	var err error
	if m.ID != nil {
		_, err = h.txs.Upsert(ctx, *m.ID, in)
	} else {
		_, err = h.txs.Create(ctx, in)
	}
	if err != nil {
		if errors.Is(err, models.ErrInvalidTransaction) {
			h.metrics.RecordError("consumer_invalid")
			return pkgkafka.Permanent(err)
		}
		h.metrics.RecordError("consumer_store")
		return err
	}
	return nil
}

var _ pkgkafka.MessageHandler = (*KafkaTransactionsHandler)(nil)
