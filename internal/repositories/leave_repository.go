package repositories

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"studio-system/internal/entities"
	"studio-system/pkg/constants"
	"studio-system/pkg/types"
)

const (
	leaveTable  = "temporary_leaves"
	leaveFields = "id, student_id, start_date, end_date, reason, status, created_at, updated_at"
)

var leaveList = listSpec{
	filters: map[string]string{
		"id":         "id",
		"student_id": "student_id",
		"status":     "status",
	},
	sorts: map[string]string{
		"id":         "id",
		"start_date": "start_date",
		"end_date":   "end_date",
		"created_at": "created_at",
	},
	search:      []string{"reason"},
	defaultSort: "start_date DESC",
}

type LeaveRepositoryInterface interface {
	FindByID(ctx context.Context, tx pgx.Tx, id uint64) (*entities.TemporaryLeave, error)
	LockByID(ctx context.Context, tx pgx.Tx, id uint64) (*entities.TemporaryLeave, error)
	GetAll(ctx context.Context, filter types.Filter) ([]*entities.TemporaryLeave, uint64, error)
	Create(ctx context.Context, tx pgx.Tx, l entities.TemporaryLeave) (uint64, error)
	SetStatus(ctx context.Context, tx pgx.Tx, id uint64, from, to string) error
	// HasOverlap reports an open leave of the student sharing a day with
	// [start, end].
	HasOverlap(ctx context.Context, tx pgx.Tx, studentID uint64, start, end time.Time) (bool, error)
	IsOnLeave(ctx context.Context, tx pgx.Tx, studentID uint64, date time.Time) (bool, error)
	HasActive(ctx context.Context, tx pgx.Tx, studentID uint64) (bool, error)
	ListDueToStart(ctx context.Context, tx pgx.Tx, today time.Time) ([]*entities.TemporaryLeave, error)
	ListFinished(ctx context.Context, tx pgx.Tx, today time.Time) ([]*entities.TemporaryLeave, error)
}

type leaveRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewLeaveRepository(storage *pgxpool.Pool, logger *zap.Logger) LeaveRepositoryInterface {
	return &leaveRepository{storage: storage, logger: logger}
}

func (r *leaveRepository) getQuerier(tx pgx.Tx) Querier {
	if tx != nil {
		return tx
	}
	return r.storage
}

func (r *leaveRepository) scanRow(row pgx.Row) (*entities.TemporaryLeave, error) {
	var l entities.TemporaryLeave
	if err := row.Scan(&l.ID, &l.StudentID, &l.StartDate, &l.EndDate, &l.Reason, &l.Status, &l.CreatedAt, &l.UpdatedAt); err != nil {
		return nil, mapPgError(err, nil)
	}
	return &l, nil
}

func (r *leaveRepository) query(ctx context.Context, q Querier, b sq.SelectBuilder) ([]*entities.TemporaryLeave, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build leave list: %w", err)
	}
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query leaves: %w", err)
	}
	defer rows.Close()

	list := make([]*entities.TemporaryLeave, 0)
	for rows.Next() {
		l, err := r.scanRow(rows)
		if err != nil {
			r.logger.Error("leave scan failed", zap.Error(err))
			return nil, err
		}
		list = append(list, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate leaves: %w", err)
	}
	return list, nil
}

func (r *leaveRepository) findOne(ctx context.Context, q Querier, id uint64, suffix string) (*entities.TemporaryLeave, error) {
	b := psql.Select(leaveFields).From(leaveTable).Where(sq.Eq{"id": id})
	if suffix != "" {
		b = b.Suffix(suffix)
	}
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build leave query: %w", err)
	}
	return r.scanRow(q.QueryRow(ctx, query, args...))
}

func (r *leaveRepository) FindByID(ctx context.Context, tx pgx.Tx, id uint64) (*entities.TemporaryLeave, error) {
	return r.findOne(ctx, r.getQuerier(tx), id, "")
}

func (r *leaveRepository) LockByID(ctx context.Context, tx pgx.Tx, id uint64) (*entities.TemporaryLeave, error) {
	return r.findOne(ctx, tx, id, "FOR UPDATE")
}

func (r *leaveRepository) GetAll(ctx context.Context, filter types.Filter) ([]*entities.TemporaryLeave, uint64, error) {
	total, err := countRows(ctx, r.storage, leaveList.applyFilters(psql.Select("COUNT(id)").From(leaveTable), filter))
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []*entities.TemporaryLeave{}, 0, nil
	}

	b := leaveList.applyFilters(psql.Select(leaveFields).From(leaveTable), filter)
	list, err := r.query(ctx, r.storage, leaveList.applySortAndPage(b, filter))
	if err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

func (r *leaveRepository) Create(ctx context.Context, tx pgx.Tx, l entities.TemporaryLeave) (uint64, error) {
	query, args, err := psql.Insert(leaveTable).
		Columns("student_id", "start_date", "end_date", "reason", "status", "created_at", "updated_at").
		Values(l.StudentID, l.StartDate, l.EndDate, l.Reason, l.Status, sq.Expr("NOW()"), sq.Expr("NOW()")).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build leave insert: %w", err)
	}

	var id uint64
	if err := r.getQuerier(tx).QueryRow(ctx, query, args...).Scan(&id); err != nil {
		return 0, mapPgError(err, nil)
	}
	return id, nil
}

func (r *leaveRepository) SetStatus(ctx context.Context, tx pgx.Tx, id uint64, from, to string) error {
	query, args, err := psql.Update(leaveTable).
		Set("status", to).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": id, "status": from}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build leave status update: %w", err)
	}
	result, err := r.getQuerier(tx).Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update leave status: %w", err)
	}
	if result.RowsAffected() == 0 {
		return mapPgError(pgx.ErrNoRows, nil)
	}
	return nil
}

func (r *leaveRepository) exists(ctx context.Context, tx pgx.Tx, where ...sq.Sqlizer) (bool, error) {
	b := psql.Select("1").From(leaveTable).Prefix("SELECT EXISTS (").Suffix(")")
	for _, w := range where {
		b = b.Where(w)
	}
	query, args, err := b.ToSql()
	if err != nil {
		return false, fmt.Errorf("build leave exists query: %w", err)
	}
	var ok bool
	if err := r.getQuerier(tx).QueryRow(ctx, query, args...).Scan(&ok); err != nil {
		return false, fmt.Errorf("check leaves: %w", err)
	}
	return ok, nil
}

func (r *leaveRepository) HasOverlap(ctx context.Context, tx pgx.Tx, studentID uint64, start, end time.Time) (bool, error) {
	return r.exists(ctx, tx,
		sq.Eq{"student_id": studentID, "status": constants.OpenLeaveStatuses},
		sq.LtOrEq{"start_date": end},
		sq.GtOrEq{"end_date": start},
	)
}

func (r *leaveRepository) IsOnLeave(ctx context.Context, tx pgx.Tx, studentID uint64, date time.Time) (bool, error) {
	return r.HasOverlap(ctx, tx, studentID, date, date)
}

func (r *leaveRepository) HasActive(ctx context.Context, tx pgx.Tx, studentID uint64) (bool, error) {
	return r.exists(ctx, tx, sq.Eq{"student_id": studentID, "status": constants.LeaveActive})
}

func (r *leaveRepository) ListDueToStart(ctx context.Context, tx pgx.Tx, today time.Time) ([]*entities.TemporaryLeave, error) {
	b := psql.Select(leaveFields).From(leaveTable).
		Where(sq.Eq{"status": constants.LeaveScheduled}).
		Where(sq.LtOrEq{"start_date": today}).
		OrderBy("id").
		Suffix("FOR UPDATE")
	return r.query(ctx, r.getQuerier(tx), b)
}

func (r *leaveRepository) ListFinished(ctx context.Context, tx pgx.Tx, today time.Time) ([]*entities.TemporaryLeave, error) {
	b := psql.Select(leaveFields).From(leaveTable).
		Where(sq.Eq{"status": constants.LeaveActive}).
		Where(sq.Lt{"end_date": today}).
		OrderBy("id").
		Suffix("FOR UPDATE")
	return r.query(ctx, r.getQuerier(tx), b)
}
