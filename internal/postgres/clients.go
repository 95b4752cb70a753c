package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ariefcatur/storefront-orders/internal/shop"
	"github.com/jackc/pgx/v5"
)

type ClientRepo struct{ DB DBTX }

func (r *ClientRepo) FindIDByEmail(ctx context.Context, email string) (int64, bool, error) {
	var id int64
	err := r.DB.QueryRow(ctx, `SELECT id FROM clients WHERE email = $1`, email).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return id, true, nil
}

func (r *ClientRepo) Insert(ctx context.Context, in shop.Identity) (int64, error) {
	var id int64
	err := r.DB.QueryRow(ctx, `
		INSERT INTO clients (first_name, last_name, phone, email)
		VALUES ($1, $2, $3, $4) RETURNING id`,
		in.FirstName, in.LastName, in.Phone, in.Email,
	).Scan(&id)
	return id, err
}

func (r *ClientRepo) Update(ctx context.Context, id int64, in shop.Identity) error {
	sets := make([]string, 0, 3)
	args := make([]any, 0, 4)
	set := func(col string, v *string) {
		if v == nil {
			return
		}
		args = append(args, *v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	set("first_name", in.FirstName)
	set("last_name", in.LastName)
	set("phone", in.Phone)
	if len(sets) == 0 {
		return nil
	}
	args = append(args, id)

	sql := fmt.Sprintf("UPDATE clients SET %s WHERE id = $%d", strings.Join(sets, ", "), len(args))
	_, err := r.DB.Exec(ctx, sql, args...)
	return err
}
