package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	apperrors "studio-system/pkg/errors"
)

type TxManagerInterface interface {
	RunInTransaction(ctx context.Context, fn func(tx pgx.Tx) error) error
}

// TxManager runs units of work in one transaction. Slot and request rows are
// locked FOR UPDATE inside them; a lock not granted within lockTimeout fails
// the unit with ErrResourceBusy instead of queueing the request.
type TxManager struct {
	pool        *pgxpool.Pool
	lockTimeout time.Duration
}

func NewTxManager(pool *pgxpool.Pool, lockTimeout time.Duration) TxManagerInterface {
	return &TxManager{pool: pool, lockTimeout: lockTimeout}
}

// RunInTransaction commits when fn returns nil and rolls back on an error
// or a panic.
func (m *TxManager) RunInTransaction(ctx context.Context, fn func(tx pgx.Tx) error) error {
	err := pgx.BeginFunc(ctx, m.pool, func(tx pgx.Tx) error {
		if stmt := lockTimeoutStatement(m.lockTimeout); stmt != "" {
			if _, err := tx.Exec(ctx, stmt); err != nil {
				return fmt.Errorf("set lock timeout: %w", err)
			}
		}
		return fn(tx)
	})
	return translateTxError(err)
}

// lockTimeoutStatement scopes lock_timeout to the current transaction.
func lockTimeoutStatement(d time.Duration) string {
	if d <= 0 {
		return ""
	}
	ms := d.Milliseconds()
	if ms == 0 {
		ms = 1
	}
	return fmt.Sprintf("SET LOCAL lock_timeout = %d", ms)
}

func translateTxError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgLockNotAvailable {
		return fmt.Errorf("%w: %s", apperrors.ErrResourceBusy, pgErr.Message)
	}
	return err
}
