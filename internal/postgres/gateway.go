package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Session is one connection held out of the pool.
type Session interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Release()
}

// Gateway hands out sessions. Acquire blocks while the pool is exhausted.
type Gateway interface {
	Acquire(ctx context.Context) (Session, error)
}

type PoolGateway struct{ Pool *pgxpool.Pool }

func (g PoolGateway) Acquire(ctx context.Context) (Session, error) {
	c, err := g.Pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	return c, nil
}
