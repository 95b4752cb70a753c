package popularity

import (
	"context"
	"fmt"

	kafkax "github.com/ariefcatur/storefront-orders/internal/kafka"
	"github.com/ariefcatur/storefront-orders/internal/redisx"
	"github.com/ariefcatur/storefront-orders/internal/shop"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const dedupService = "popularity"

type Counter interface {
	IncrMany(ctx context.Context, qty map[int64]int) error
}

type Service struct {
	Redis redis.Cmdable
	Board Counter
	Log   *zap.Logger
}

// HandleOrderPlaced is installed as the consumer handler. Each event id is
// counted at most once; a failed count releases the claim so redelivery
// can try again.
func (s *Service) HandleOrderPlaced(ctx context.Context, m kafkago.Message) error {
	env, err := kafkax.DecodeEnvelope(m)
	if err != nil {
		s.logger().Warn("dropping undecodable message", zap.Int64("offset", m.Offset), zap.Error(err))
		return nil
	}
	if env.EventType != shop.EventOrderPlaced {
		return nil
	}
	p, err := kafkax.UnwrapPayload[shop.OrderPlacedPayload](env.Payload)
	if err != nil {
		s.logger().Warn("dropping event with bad payload", zap.String("event_id", env.EventID), zap.Error(err))
		return nil
	}

	key := redisx.DedupKey(dedupService, env.EventID)
	fresh, err := redisx.Claim(ctx, s.Redis, key, redisx.TTLDedup)
	if err != nil {
		return fmt.Errorf("claim %s: %w", env.EventID, err)
	}
	if !fresh {
		return nil
	}

	qty := make(map[int64]int, len(p.Items))
	for _, it := range p.Items {
		if it.Quantity > 0 {
			qty[it.ProductID] += it.Quantity
		}
	}
	if err := s.Board.IncrMany(ctx, qty); err != nil {
		if rerr := redisx.Release(context.WithoutCancel(ctx), s.Redis, key); rerr != nil {
			s.logger().Warn("release dedup claim failed", zap.String("key", key), zap.Error(rerr))
		}
		return fmt.Errorf("count order %d: %w", p.OrderID, err)
	}

	s.logger().Debug("order counted",
		zap.Int64("order_id", p.OrderID),
		zap.String("trace_id", env.TraceID),
		zap.Int("products", len(qty)),
	)
	return nil
}

func (s *Service) logger() *zap.Logger {
	if s.Log == nil {
		return zap.NewNop()
	}
	return s.Log
}
