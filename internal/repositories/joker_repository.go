package repositories

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"studio-system/internal/entities"
	apperrors "studio-system/pkg/errors"
)

const (
	jokerTable  = "joker_balances"
	jokerFields = "id, student_id, period, allotted, used, created_at, updated_at"
)

type JokerRepositoryInterface interface {
	Find(ctx context.Context, tx pgx.Tx, studentID uint64, period time.Time) (*entities.JokerBalance, error)
	// Ensure inserts the balance row unless it exists and reports whether it
	// was created. An existing row keeps its allotment.
	Ensure(ctx context.Context, tx pgx.Tx, studentID uint64, period time.Time, allotted int) (bool, error)
	// Consume spends one joker, failing with ErrNoJokersLeft when none is left.
	Consume(ctx context.Context, tx pgx.Tx, studentID uint64, period time.Time) error
	// Refund gives one joker back; a balance already at zero use is left alone.
	Refund(ctx context.Context, tx pgx.Tx, studentID uint64, period time.Time) (bool, error)
}

type jokerRepository struct {
	storage *pgxpool.Pool
}

func NewJokerRepository(storage *pgxpool.Pool) JokerRepositoryInterface {
	return &jokerRepository{storage: storage}
}

func (r *jokerRepository) getQuerier(tx pgx.Tx) Querier {
	if tx != nil {
		return tx
	}
	return r.storage
}

func (r *jokerRepository) Find(ctx context.Context, tx pgx.Tx, studentID uint64, period time.Time) (*entities.JokerBalance, error) {
	query, args, err := psql.Select(jokerFields).From(jokerTable).
		Where(sq.Eq{"student_id": studentID, "period": period}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build joker balance query: %w", err)
	}

	var b entities.JokerBalance
	err = r.getQuerier(tx).QueryRow(ctx, query, args...).Scan(&b.ID, &b.StudentID, &b.Period, &b.Allotted, &b.Used, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, mapPgError(err, nil)
	}
	return &b, nil
}

func (r *jokerRepository) Ensure(ctx context.Context, tx pgx.Tx, studentID uint64, period time.Time, allotted int) (bool, error) {
	query, args, err := psql.Insert(jokerTable).
		Columns("student_id", "period", "allotted", "used", "created_at", "updated_at").
		Values(studentID, period, allotted, 0, sq.Expr("NOW()"), sq.Expr("NOW()")).
		Suffix("ON CONFLICT (student_id, period) DO NOTHING").
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build joker balance insert: %w", err)
	}

	result, err := r.getQuerier(tx).Exec(ctx, query, args...)
	if err != nil {
		return false, mapPgError(err, nil)
	}
	return result.RowsAffected() == 1, nil
}

func (r *jokerRepository) Consume(ctx context.Context, tx pgx.Tx, studentID uint64, period time.Time) error {
	query, args, err := psql.Update(jokerTable).
		Set("used", sq.Expr("used + 1")).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"student_id": studentID, "period": period}).
		Where("used < allotted").
		ToSql()
	if err != nil {
		return fmt.Errorf("build joker consume: %w", err)
	}

	result, err := r.getQuerier(tx).Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("consume joker: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNoJokersLeft
	}
	return nil
}

func (r *jokerRepository) Refund(ctx context.Context, tx pgx.Tx, studentID uint64, period time.Time) (bool, error) {
	query, args, err := psql.Update(jokerTable).
		Set("used", sq.Expr("used - 1")).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"student_id": studentID, "period": period}).
		Where(sq.Gt{"used": 0}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build joker refund: %w", err)
	}

	result, err := r.getQuerier(tx).Exec(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("refund joker: %w", err)
	}
	return result.RowsAffected() == 1, nil
}
