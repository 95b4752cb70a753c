package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/ariefcatur/storefront-orders/internal/shop"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// Store implements shop.Store on top of TxManager.
type Store struct {
	Tx  *TxManager
	Log *zap.Logger
}

type txRepos struct {
	clients *ClientRepo
	orders  *OrderRepo
	reviews *ReviewRepo
}

func (r *txRepos) Clients() shop.ClientRepository { return r.clients }
func (r *txRepos) Orders() shop.OrderRepository   { return r.orders }
func (r *txRepos) Reviews() shop.ReviewRepository { return r.reviews }

func (s *Store) WithinTx(ctx context.Context, fn func(r shop.TxRepos) error) error {
	err := s.Tx.WithinTx(ctx, func(tx pgx.Tx) error {
		return fn(&txRepos{
			clients: &ClientRepo{DB: tx},
			orders:  &OrderRepo{DB: tx},
			reviews: &ReviewRepo{DB: tx},
		})
	})
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrSessionUnavailable):
		return fmt.Errorf("%w: %w", shop.ErrUnavailable, err)
	case IsUniqueViolation(err):
		// Two first-time submissions for one email can race past the lookup.
		if s.Log != nil {
			s.Log.Warn("unique violation rolled back", zap.String("constraint", constraintName(err)))
		}
	}
	return err
}
