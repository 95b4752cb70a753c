package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ariefcatur/storefront-orders/internal/shop"
	"github.com/jackc/pgx/v5"
)

type OrderRepo struct{ DB DBTX }

// InsertHeader stamps date_created server side. A taken order_code inserts
// nothing and reports inserted=false.
func (r *OrderRepo) InsertHeader(ctx context.Context, o shop.Order) (int64, bool, error) {
	var id int64
	err := r.DB.QueryRow(ctx, `
		INSERT INTO orders (order_code, date_created, client_id, delivery_address)
		VALUES ($1, now(), $2, $3)
		ON CONFLICT (order_code) DO NOTHING
		RETURNING id`,
		o.Code, o.ClientID, o.DeliveryAddress,
	).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return id, true, nil
}

func (r *OrderRepo) InsertLineItems(ctx context.Context, items []shop.LineItem) error {
	if len(items) == 0 {
		return nil
	}
	values := make([]string, 0, len(items))
	args := make([]any, 0, len(items)*3)
	for i, it := range items {
		n := i * 3
		values = append(values, fmt.Sprintf("($%d, $%d, $%d)", n+1, n+2, n+3))
		args = append(args, it.OrderID, it.ProductID, it.Quantity)
	}
	sql := "INSERT INTO order_products (order_id, product_id, quantity) VALUES " + strings.Join(values, ", ")
	_, err := r.DB.Exec(ctx, sql, args...)
	return err
}
