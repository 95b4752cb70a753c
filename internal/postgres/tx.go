package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// TxManager owns the acquire, begin, commit or rollback, release sequence.
type TxManager struct {
	Gateway Gateway
	Log     *zap.Logger
}

// WithinTx runs fn in a fresh transaction on a freshly acquired session.
// fn's error triggers a rollback and is returned as is; a failed rollback is
// logged and swallowed. The session is released on every path, panics included.
func (m *TxManager) WithinTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	sess, err := m.Gateway.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSessionUnavailable, err)
	}
	defer sess.Release()

	tx, err := sess.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			m.rollback(ctx, tx)
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		m.rollback(ctx, tx)
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (m *TxManager) rollback(ctx context.Context, tx pgx.Tx) {
	// ctx may already be done; the rollback still has to reach the server.
	if err := tx.Rollback(context.WithoutCancel(ctx)); err != nil {
		m.logger().Warn("rollback failed", zap.Error(err))
	}
}

func (m *TxManager) logger() *zap.Logger {
	if m.Log == nil {
		return zap.NewNop()
	}
	return m.Log
}
