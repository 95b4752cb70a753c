package kafka

import (
	"context"
	"fmt"
	"strconv"

	"github.com/ariefcatur/storefront-orders/internal/shop"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const (
	HeaderEventType    = "x-event-type"
	HeaderEventVersion = "x-event-version"
)

// Bus routes envelopes to one Producer per topic.
type Bus struct {
	Producers map[string]*Producer
}

func NewBus(brokers []string, buf int, log *zap.Logger, topics ...string) *Bus {
	b := &Bus{Producers: make(map[string]*Producer, len(topics))}
	for _, t := range topics {
		b.Producers[t] = NewProducer(brokers, t, buf, log.With(zap.String("topic", t)))
	}
	return b
}

func (b *Bus) Start(ctx context.Context) {
	for _, p := range b.Producers {
		p.Start(ctx)
	}
}

// Publish keys the message by correlation id so events for one order or
// client stay on one partition.
func (b *Bus) Publish(ctx context.Context, topic string, env shop.Envelope) error {
	p, ok := b.Producers[topic]
	if !ok {
		return fmt.Errorf("kafka: no producer for topic %q", topic)
	}
	return p.Publish(ctx, []byte(env.CorrelationID), MustMarshal(env),
		kafka.Header{Key: HeaderEventType, Value: []byte(env.EventType)},
		kafka.Header{Key: HeaderEventVersion, Value: []byte(strconv.Itoa(env.EventVersion))},
	)
}

func (b *Bus) Close() {
	for _, p := range b.Producers {
		p.Close()
	}
}

func (b *Bus) WaitClosed() {
	for _, p := range b.Producers {
		p.WaitClosed()
	}
}
