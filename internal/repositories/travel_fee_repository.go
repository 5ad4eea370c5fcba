package repositories

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"studio-system/internal/entities"
	"studio-system/pkg/constants"
)

const (
	travelFeeTable  = "travel_fee_movements"
	travelFeeFields = "id, student_id, leave_id, kind, amount, note, created_by, created_at"
)

type TravelFeeRepositoryInterface interface {
	Create(ctx context.Context, tx pgx.Tx, m entities.TravelFeeMovement) (uint64, error)
	ListByStudent(ctx context.Context, tx pgx.Tx, studentID uint64) ([]*entities.TravelFeeMovement, error)
	// Balance is payments plus reversals minus charges.
	Balance(ctx context.Context, tx pgx.Tx, studentID uint64) (decimal.Decimal, error)
	FindChargeByLeave(ctx context.Context, tx pgx.Tx, leaveID uint64) (*entities.TravelFeeMovement, error)
}

type travelFeeRepository struct {
	storage *pgxpool.Pool
}

func NewTravelFeeRepository(storage *pgxpool.Pool) TravelFeeRepositoryInterface {
	return &travelFeeRepository{storage: storage}
}

func (r *travelFeeRepository) getQuerier(tx pgx.Tx) Querier {
	if tx != nil {
		return tx
	}
	return r.storage
}

func (r *travelFeeRepository) scanRow(row pgx.Row) (*entities.TravelFeeMovement, error) {
	var m entities.TravelFeeMovement
	if err := row.Scan(&m.ID, &m.StudentID, &m.LeaveID, &m.Kind, &m.Amount, &m.Note, &m.CreatedBy, &m.CreatedAt); err != nil {
		return nil, mapPgError(err, nil)
	}
	return &m, nil
}

func (r *travelFeeRepository) Create(ctx context.Context, tx pgx.Tx, m entities.TravelFeeMovement) (uint64, error) {
	query, args, err := psql.Insert(travelFeeTable).
		Columns("student_id", "leave_id", "kind", "amount", "note", "created_by", "created_at").
		Values(m.StudentID, m.LeaveID, m.Kind, m.Amount, m.Note, m.CreatedBy, sq.Expr("NOW()")).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build travel fee insert: %w", err)
	}

	var id uint64
	if err := r.getQuerier(tx).QueryRow(ctx, query, args...).Scan(&id); err != nil {
		return 0, mapPgError(err, nil)
	}
	return id, nil
}

func (r *travelFeeRepository) ListByStudent(ctx context.Context, tx pgx.Tx, studentID uint64) ([]*entities.TravelFeeMovement, error) {
	query, args, err := psql.Select(travelFeeFields).From(travelFeeTable).
		Where(sq.Eq{"student_id": studentID}).
		OrderBy("created_at DESC", "id DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build travel fee list: %w", err)
	}

	rows, err := r.getQuerier(tx).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query travel fees: %w", err)
	}
	defer rows.Close()

	list := make([]*entities.TravelFeeMovement, 0)
	for rows.Next() {
		m, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate travel fees: %w", err)
	}
	return list, nil
}

func (r *travelFeeRepository) Balance(ctx context.Context, tx pgx.Tx, studentID uint64) (decimal.Decimal, error) {
	query, args, err := psql.Select().
		Column(sq.Expr("COALESCE(SUM(CASE WHEN kind = ? THEN -amount ELSE amount END), 0)", constants.MovementCharge)).
		From(travelFeeTable).
		Where(sq.Eq{"student_id": studentID}).
		ToSql()
	if err != nil {
		return decimal.Zero, fmt.Errorf("build travel fee balance: %w", err)
	}

	var balance decimal.Decimal
	if err := r.getQuerier(tx).QueryRow(ctx, query, args...).Scan(&balance); err != nil {
		return decimal.Zero, fmt.Errorf("travel fee balance: %w", err)
	}
	return balance, nil
}

func (r *travelFeeRepository) FindChargeByLeave(ctx context.Context, tx pgx.Tx, leaveID uint64) (*entities.TravelFeeMovement, error) {
	query, args, err := psql.Select(travelFeeFields).From(travelFeeTable).
		Where(sq.Eq{"leave_id": leaveID, "kind": constants.MovementCharge}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build leave charge query: %w", err)
	}
	return r.scanRow(r.getQuerier(tx).QueryRow(ctx, query, args...))
}
