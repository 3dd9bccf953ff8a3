package repository

import (
	"context"
	"errors"

	"FinTrack/internal/domain/models"
	domrepo "FinTrack/internal/domain/repository"
)

// keyedProducer is satisfied by *pkgkafka.Producer.
type keyedProducer interface {
	Publish(ctx context.Context, topic string, key []byte, value interface{}) error
	Close() error
}

// KafkaEventPublisher writes transaction events to a Kafka topic keyed by
// transaction id, so every event of one transaction lands on one partition.
type KafkaEventPublisher struct {
	producer keyedProducer
	topic    string
}

func NewKafkaEventPublisher(producer keyedProducer, topic string) *KafkaEventPublisher {
	return &KafkaEventPublisher{producer: producer, topic: topic}
}

func (p *KafkaEventPublisher) Publish(ctx context.Context, ev models.TransactionEvent) error {
	return p.producer.Publish(ctx, p.topic, []byte(ev.Transaction.ID.String()), models.NewTransactionEventJSON(ev))
}

func (p *KafkaEventPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

// routedProducer is satisfied by *pkgamqp.Publisher.
type routedProducer interface {
	Publish(ctx context.Context, routingKey string, payload interface{}) error
	Close() error
}

// AMQPEventPublisher publishes events to a topic exchange using the event
// type (transaction.created, ...) as routing key.
type AMQPEventPublisher struct {
	pub routedProducer
}

func NewAMQPEventPublisher(pub routedProducer) *AMQPEventPublisher {
	return &AMQPEventPublisher{pub: pub}
}

func (p *AMQPEventPublisher) Publish(ctx context.Context, ev models.TransactionEvent) error {
	return p.pub.Publish(ctx, ev.Type, models.NewTransactionEventJSON(ev))
}

func (p *AMQPEventPublisher) Close() error {
	if p.pub != nil {
		return p.pub.Close()
	}
	return nil
}

// FanoutPublisher delivers each event to every publisher and joins their errors.
type FanoutPublisher []domrepo.EventPublisher

func NewFanoutPublisher(pubs ...domrepo.EventPublisher) FanoutPublisher {
	out := make(FanoutPublisher, 0, len(pubs))
	for _, p := range pubs {
		if p != nil {
			out = append(out, p)
		}
	}
	return out
}

func (f FanoutPublisher) Publish(ctx context.Context, ev models.TransactionEvent) error {
	var errs []error
	for _, p := range f {
		if err := p.Publish(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (f FanoutPublisher) Close() error {
	var errs []error
	for _, p := range f {
		if err := p.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// NoopPublisher discards events.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, models.TransactionEvent) error { return nil }
func (NoopPublisher) Close() error                                           { return nil }
