package postgres

import (
	"context"
	"errors"
	"strings"

	"github.com/ariefcatur/storefront-orders/internal/shop"
	"github.com/jackc/pgx/v5"
)

const productColumns = `SELECT p.id, p.name, p.description, p.price, p.category_id, pic.content
	FROM products p
	LEFT JOIN pictures pic ON p.picture_id = pic.id`

// ProductRepo serves catalog reads straight off the pool.
type ProductRepo struct{ DB DBTX }

func (r *ProductRepo) ListByCategory(ctx context.Context, categoryID int64) ([]shop.Product, error) {
	rows, err := r.DB.Query(ctx, productColumns+` WHERE p.category_id = $1 ORDER BY p.id`, categoryID)
	if err != nil {
		return nil, err
	}
	return collectProducts(rows)
}

func (r *ProductRepo) Search(ctx context.Context, query string, limit int) ([]shop.Product, error) {
	pattern := "%" + escapeLike(query) + "%"
	rows, err := r.DB.Query(ctx, productColumns+` WHERE p.name ILIKE $1 OR p.description ILIKE $1 ORDER BY p.id LIMIT $2`, pattern, limit)
	if err != nil {
		return nil, err
	}
	return collectProducts(rows)
}

func (r *ProductRepo) FindByID(ctx context.Context, id int64) (shop.Product, bool, error) {
	var p shop.Product
	err := r.DB.QueryRow(ctx, productColumns+` WHERE p.id = $1`, id).
		Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.CategoryID, &p.Image)
	if errors.Is(err, pgx.ErrNoRows) {
		return shop.Product{}, false, nil
	}
	if err != nil {
		return shop.Product{}, false, err
	}
	return p, true, nil
}

func collectProducts(rows pgx.Rows) ([]shop.Product, error) {
	defer rows.Close()
	out := []shop.Product{}
	for rows.Next() {
		var p shop.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.CategoryID, &p.Image); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string { return likeEscaper.Replace(s) }
