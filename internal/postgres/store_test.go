package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/ariefcatur/storefront-orders/internal/shop"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func newMockService(t *testing.T) (*shop.Service, pgxmock.PgxConnIface, *mockSession, *observer.ObservedLogs) {
	t.Helper()
	m, conn, sess, logs := newMockManager(t)
	t.Cleanup(func() { assert.NoError(t, conn.ExpectationsWereMet()) })
	svc := &shop.Service{
		Store:   &Store{Tx: m, Log: m.Log},
		Log:     m.Log,
		NewCode: func() string { return "ORD-1700000000000-42" },
	}
	return svc, conn, sess, logs
}

func orderInput() shop.PlaceOrderInput {
	id := int64(1)
	return shop.PlaceOrderInput{
		FirstName: "A", LastName: "B", Phone: "123", Email: "a@b.com", Address: "X",
		Products: []shop.LineItemInput{{ID: &id}},
	}
}

func TestStore_PlaceOrder_NewClientStatementOrder(t *testing.T) {
	svc, conn, sess, _ := newMockService(t)

	conn.ExpectBegin()
	conn.ExpectQuery(regexp.QuoteMeta(`SELECT id FROM clients WHERE email = $1`)).
		WithArgs("a@b.com").
		WillReturnRows(pgxmock.NewRows([]string{"id"}))
	conn.ExpectQuery(`INSERT INTO clients`).
		WithArgs(strp("A"), strp("B"), strp("123"), "a@b.com").
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(1)))
	conn.ExpectQuery(`INSERT INTO orders`).
		WithArgs("ORD-1700000000000-42", int64(1), "X").
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(1)))
	conn.ExpectExec(`INSERT INTO order_products`).
		WithArgs(int64(1), int64(1), 1).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	conn.ExpectCommit()

	out, err := svc.PlaceOrder(context.Background(), orderInput())
	require.NoError(t, err)
	assert.Equal(t, shop.PlaceOrderResult{OrderCode: "ORD-1700000000000-42", OrderID: 1, ClientID: 1}, out)
	assert.Equal(t, 1, sess.released)
}

func TestStore_PlaceOrder_LineItemFailureRollsBack(t *testing.T) {
	svc, conn, sess, _ := newMockService(t)

	conn.ExpectBegin()
	conn.ExpectQuery(`SELECT id FROM clients`).WithArgs("a@b.com").
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(9)))
	conn.ExpectExec(`UPDATE clients`).WithArgs("A", "B", "123", int64(9)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	conn.ExpectQuery(`INSERT INTO orders`).WithArgs("ORD-1700000000000-42", int64(9), "X").
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(3)))
	conn.ExpectExec(`INSERT INTO order_products`).WithArgs(int64(3), int64(1), 1).
		WillReturnError(&pgconn.PgError{Code: "23503", Message: "violates foreign key"})
	conn.ExpectRollback()

	_, err := svc.PlaceOrder(context.Background(), orderInput())
	require.Error(t, err)
	assert.Equal(t, shop.KindTransaction, shop.KindOf(err))
	var se *shop.Error
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "order could not be placed", se.Message)
	assert.Equal(t, 1, sess.released)
}

func TestStore_UniqueViolationRollsBackAndLogs(t *testing.T) {
	svc, conn, _, logs := newMockService(t)

	conn.ExpectBegin()
	conn.ExpectQuery(`SELECT id FROM clients`).WithArgs("a@b.com").
		WillReturnRows(pgxmock.NewRows([]string{"id"}))
	conn.ExpectQuery(`INSERT INTO clients`).
		WithArgs(strp("A"), strp("B"), strp("123"), "a@b.com").
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "clients_email_key"})
	conn.ExpectRollback()

	_, err := svc.PlaceOrder(context.Background(), orderInput())
	require.Error(t, err)
	assert.Equal(t, shop.KindTransaction, shop.KindOf(err))

	entries := logs.FilterMessage("unique violation rolled back").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "clients_email_key", entries[0].ContextMap()["constraint"])
}

func TestStore_SubmitReview(t *testing.T) {
	svc, conn, _, _ := newMockService(t)

	conn.ExpectBegin()
	conn.ExpectQuery(`SELECT id FROM clients`).WithArgs("c@d.com").
		WillReturnRows(pgxmock.NewRows([]string{"id"}))
	conn.ExpectQuery(`INSERT INTO clients`).
		WithArgs(strp("C"), (*string)(nil), (*string)(nil), "c@d.com").
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(2)))
	conn.ExpectQuery(`INSERT INTO reviews`).
		WithArgs(int64(2), (*int64)(nil), 3, "ok").
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(1)))
	conn.ExpectCommit()

	err := svc.SubmitReview(context.Background(), shop.SubmitReviewInput{
		Name: "C", Email: "c@d.com", Comment: "ok", Rating: shop.NewRating(3),
	})
	require.NoError(t, err)
}

func TestStore_AcquireFailureIsResourceError(t *testing.T) {
	core, _ := observer.New(zap.WarnLevel)
	m := &TxManager{Gateway: &fakeGateway{err: errors.New("dial tcp: refused")}, Log: zap.New(core)}
	svc := &shop.Service{Store: &Store{Tx: m}}

	_, err := svc.PlaceOrder(context.Background(), orderInput())
	require.Error(t, err)
	assert.Equal(t, shop.KindResource, shop.KindOf(err))
	assert.ErrorIs(t, err, shop.ErrUnavailable)
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, IsUniqueViolation(&pgconn.PgError{Code: "23505"}))
	assert.False(t, IsUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.False(t, IsUniqueViolation(errors.New("23505")))
}
