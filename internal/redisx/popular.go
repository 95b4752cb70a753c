package redisx

import (
	"context"
	"strconv"

	"github.com/redis/go-redis/v9"
)

type Ranked struct {
	ProductID int64   `json:"productId"`
	Score     float64 `json:"score"`
}

// Board ranks products by how many units have been ordered.
type Board struct {
	RDB redis.Cmdable
}

// IncrMany applies every increment in one MULTI/EXEC so a retry never
// double counts part of an order.
func (b *Board) IncrMany(ctx context.Context, qty map[int64]int) error {
	if len(qty) == 0 {
		return nil
	}
	_, err := b.RDB.TxPipelined(ctx, func(p redis.Pipeliner) error {
		for id, n := range qty {
			p.ZIncrBy(ctx, KeyPopular, float64(n), strconv.FormatInt(id, 10))
		}
		return nil
	})
	return err
}

// Top returns up to limit products, highest score first.
func (b *Board) Top(ctx context.Context, limit int) ([]Ranked, error) {
	zs, err := b.RDB.ZRevRangeWithScores(ctx, KeyPopular, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}
	out := make([]Ranked, 0, len(zs))
	for _, z := range zs {
		member, _ := z.Member.(string)
		id, err := strconv.ParseInt(member, 10, 64)
		if err != nil {
			continue
		}
		out = append(out, Ranked{ProductID: id, Score: z.Score})
	}
	return out, nil
}
