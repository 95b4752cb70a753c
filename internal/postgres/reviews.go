package postgres

import (
	"context"

	"github.com/ariefcatur/storefront-orders/internal/shop"
)

type ReviewRepo struct{ DB DBTX }

func (r *ReviewRepo) Insert(ctx context.Context, rev shop.Review) (int64, error) {
	var id int64
	err := r.DB.QueryRow(ctx, `
		INSERT INTO reviews (client_id, order_id, rating, comment)
		VALUES ($1, $2, $3, $4) RETURNING id`,
		rev.ClientID, rev.OrderID, rev.Rating, rev.Comment,
	).Scan(&id)
	return id, err
}
