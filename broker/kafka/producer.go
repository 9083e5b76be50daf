package kafka

import (
	"context"
	"encoding/json"
	"time"

	"parcel-delivery-api/broker/messages"

	"github.com/pkg/errors"
	"github.com/segmentio/kafka-go"
)

type writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

type Producer struct {
	w     writer
	topic string
}

func NewProducer(brokers []string, topic string) *Producer {
	return newProducerWithWriter(&kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Balancer:     &kafka.Hash{},
		BatchTimeout: 50 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
	}, topic)
}

func newProducerWithWriter(w writer, topic string) *Producer {
	return &Producer{w: w, topic: topic}
}

func (p *Producer) Publish(ctx context.Context, key, value []byte) error {
	if err := p.w.WriteMessages(ctx, kafka.Message{
		Topic: p.topic,
		Key:   key,
		Value: value,
	}); err != nil {
		return errors.Wrap(err, "kafka publish")
	}
	return nil
}

// PublishEvent encodes ev as JSON keyed by its parcel
func (p *Producer) PublishEvent(ctx context.Context, ev messages.ParcelEvent) error {
	b, err := json.Marshal(ev)
	if err != nil {
		return errors.Wrap(err, "encode event")
	}
	return p.Publish(ctx, []byte(ev.Key()), b)
}

func (p *Producer) Close() error {
	if c, ok := p.w.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}
