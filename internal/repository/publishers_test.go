package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"FinTrack/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeKeyedProducer struct {
	topic  string
	key    []byte
	value  interface{}
	err    error
	closed bool
}

func (f *fakeKeyedProducer) Publish(_ context.Context, topic string, key []byte, value interface{}) error {
	f.topic, f.key, f.value = topic, key, value
	return f.err
}

func (f *fakeKeyedProducer) Close() error { f.closed = true; return nil }

type fakeRoutedProducer struct {
	routingKey string
	payload    interface{}
}

func (f *fakeRoutedProducer) Publish(_ context.Context, routingKey string, payload interface{}) error {
	f.routingKey, f.payload = routingKey, payload
	return nil
}

func (f *fakeRoutedProducer) Close() error { return nil }

func sampleEvent() models.TransactionEvent {
	return models.TransactionEvent{
		Type:        models.EventTransactionCreated,
		Transaction: newTx("9.99", day(2024, 6, 1)),
		OccurredAt:  time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestKafkaEventPublisher(t *testing.T) {
	fp := &fakeKeyedProducer{}
	p := NewKafkaEventPublisher(fp, "fintrack.transactions")
	ev := sampleEvent()

	require.NoError(t, p.Publish(context.Background(), ev))
	assert.Equal(t, "fintrack.transactions", fp.topic)
	assert.Equal(t, ev.Transaction.ID.String(), string(fp.key))
	payload, ok := fp.value.(models.TransactionEventJSON)
	require.True(t, ok)
	assert.Equal(t, models.EventTransactionCreated, payload.Type)
	assert.Equal(t, ev.Transaction.ID, payload.Transaction.ID)

	require.NoError(t, p.Close())
	assert.True(t, fp.closed)
}

func TestAMQPEventPublisherRoutesByEventType(t *testing.T) {
	fp := &fakeRoutedProducer{}
	p := NewAMQPEventPublisher(fp)
	ev := sampleEvent()
	ev.Type = models.EventTransactionDeleted

	require.NoError(t, p.Publish(context.Background(), ev))
	assert.Equal(t, models.EventTransactionDeleted, fp.routingKey)
}

func TestFanoutPublisherJoinsErrors(t *testing.T) {
	boom := errors.New("broker down")
	ok := &fakeKeyedProducer{}
	failing := &fakeKeyedProducer{err: boom}
	f := NewFanoutPublisher(
		NewKafkaEventPublisher(ok, "a"),
		nil,
		NewKafkaEventPublisher(failing, "b"),
	)
	assert.Len(t, f, 2)

	err := f.Publish(context.Background(), sampleEvent())
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, "a", ok.topic, "healthy publishers still receive the event")

	require.NoError(t, f.Close())
	assert.True(t, ok.closed)
	assert.True(t, failing.closed)
}
