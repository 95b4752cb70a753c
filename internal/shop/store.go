package shop

import "context"

type ClientRepository interface {
	// FindIDByEmail matches the email exactly.
	FindIDByEmail(ctx context.Context, email string) (id int64, found bool, err error)
	Insert(ctx context.Context, in Identity) (int64, error)
	// Update overwrites the non-nil fields of in. Email is never changed.
	Update(ctx context.Context, id int64, in Identity) error
}

type OrderRepository interface {
	// InsertHeader reports inserted=false when o.Code is already taken.
	InsertHeader(ctx context.Context, o Order) (id int64, inserted bool, err error)
	// InsertLineItems writes all rows in one statement.
	InsertLineItems(ctx context.Context, items []LineItem) error
}

type ReviewRepository interface {
	Insert(ctx context.Context, r Review) (int64, error)
}

// TxRepos are repositories bound to one open transaction.
type TxRepos interface {
	Clients() ClientRepository
	Orders() OrderRepository
	Reviews() ReviewRepository
}

// Store runs fn inside a single transaction: committed when fn returns nil,
// rolled back otherwise. The session is released on every path.
type Store interface {
	WithinTx(ctx context.Context, fn func(r TxRepos) error) error
}
