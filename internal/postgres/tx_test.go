package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type mockSession struct {
	pgxmock.PgxConnIface
	released int
}

func (s *mockSession) Release() { s.released++ }

type fakeGateway struct {
	sess     Session
	err      error
	acquired int
}

func (g *fakeGateway) Acquire(context.Context) (Session, error) {
	g.acquired++
	if g.err != nil {
		return nil, g.err
	}
	return g.sess, nil
}

func newMockManager(t *testing.T) (*TxManager, pgxmock.PgxConnIface, *mockSession, *observer.ObservedLogs) {
	t.Helper()
	conn, err := pgxmock.NewConn()
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close(context.Background()) })

	sess := &mockSession{PgxConnIface: conn}
	core, logs := observer.New(zap.WarnLevel)
	return &TxManager{Gateway: &fakeGateway{sess: sess}, Log: zap.New(core)}, conn, sess, logs
}

func TestWithinTx_Commit(t *testing.T) {
	m, conn, sess, _ := newMockManager(t)
	conn.ExpectBegin()
	conn.ExpectCommit()

	called := false
	err := m.WithinTx(context.Background(), func(tx pgx.Tx) error {
		called = true
		return nil
	})
	require.NoError(t, err)
	assert.True(t, called)
	assert.Equal(t, 1, sess.released)
	assert.NoError(t, conn.ExpectationsWereMet())
}

func TestWithinTx_RollbackOnError(t *testing.T) {
	m, conn, sess, logs := newMockManager(t)
	conn.ExpectBegin()
	conn.ExpectRollback()

	boom := errors.New("insert failed")
	err := m.WithinTx(context.Background(), func(tx pgx.Tx) error { return boom })
	assert.Same(t, boom, err)
	assert.Equal(t, 1, sess.released)
	assert.Zero(t, logs.Len())
	assert.NoError(t, conn.ExpectationsWereMet())
}

func TestWithinTx_RollbackFailureIsLoggedNotRaised(t *testing.T) {
	m, conn, sess, logs := newMockManager(t)
	conn.ExpectBegin()
	conn.ExpectRollback().WillReturnError(errors.New("connection reset"))

	boom := errors.New("insert failed")
	err := m.WithinTx(context.Background(), func(tx pgx.Tx) error { return boom })
	assert.Same(t, boom, err, "the fn error is returned")
	assert.Equal(t, 1, sess.released)
	assert.Equal(t, 1, logs.FilterMessage("rollback failed").Len())
	assert.NoError(t, conn.ExpectationsWereMet())
}

func TestWithinTx_BeginFailure(t *testing.T) {
	m, conn, sess, _ := newMockManager(t)
	conn.ExpectBegin().WillReturnError(errors.New("no begin"))

	err := m.WithinTx(context.Background(), func(tx pgx.Tx) error {
		t.Fatal("fn must not run")
		return nil
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "begin")
	assert.Equal(t, 1, sess.released)
	assert.NoError(t, conn.ExpectationsWereMet())
}

func TestWithinTx_CommitFailure(t *testing.T) {
	m, conn, sess, _ := newMockManager(t)
	conn.ExpectBegin()
	conn.ExpectCommit().WillReturnError(errors.New("serialization failure"))

	err := m.WithinTx(context.Background(), func(tx pgx.Tx) error { return nil })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "commit")
	assert.Equal(t, 1, sess.released)
	assert.NoError(t, conn.ExpectationsWereMet())
}

func TestWithinTx_AcquireFailure(t *testing.T) {
	gw := &fakeGateway{err: errors.New("pool exhausted")}
	m := &TxManager{Gateway: gw}

	err := m.WithinTx(context.Background(), func(tx pgx.Tx) error {
		t.Fatal("fn must not run")
		return nil
	})
	assert.ErrorIs(t, err, ErrSessionUnavailable)
	assert.Equal(t, 1, gw.acquired)
}

func TestWithinTx_PanicRollsBackAndReleases(t *testing.T) {
	m, conn, sess, _ := newMockManager(t)
	conn.ExpectBegin()
	conn.ExpectRollback()

	assert.PanicsWithValue(t, "bad state", func() {
		_ = m.WithinTx(context.Background(), func(tx pgx.Tx) error { panic("bad state") })
	})
	assert.Equal(t, 1, sess.released)
	assert.NoError(t, conn.ExpectationsWereMet())
}
