package repositories

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"studio-system/internal/entities"
	"studio-system/pkg/constants"
)

const (
	waitlistTable  = "waitlist_entries"
	waitlistFrom   = "waitlist_entries w JOIN schedule_changes c ON c.id = w.schedule_change_id"
	waitlistFields = "w.id, w.schedule_change_id, w.class_schedule_id, w.class_date, w.status, c.student_id, w.created_at, w.updated_at"
	// FIFO order of a waitlist
	waitlistOrder = "w.created_at ASC, w.id ASC"
)

type WaitlistRepositoryInterface interface {
	Create(ctx context.Context, tx pgx.Tx, e entities.WaitlistEntry) (uint64, error)
	// LockHead returns the first WAITING entry of the occurrence, locked, or
	// ErrNotFound when the waitlist is empty.
	LockHead(ctx context.Context, tx pgx.Tx, scheduleID uint64, date time.Time) (*entities.WaitlistEntry, error)
	ListWaiting(ctx context.Context, tx pgx.Tx, scheduleID uint64, date time.Time) ([]*entities.WaitlistEntry, error)
	// WaitingDates lists the distinct dates in [from, to] that have WAITING
	// entries on the schedule.
	WaitingDates(ctx context.Context, tx pgx.Tx, scheduleID uint64, from, to time.Time) ([]time.Time, error)
	SetStatus(ctx context.Context, tx pgx.Tx, id uint64, status string) error
	SetStatusByChange(ctx context.Context, tx pgx.Tx, changeID uint64, from, to string) (int64, error)
	ExpireBefore(ctx context.Context, tx pgx.Tx, date time.Time) (int64, error)
}

type waitlistRepository struct {
	storage *pgxpool.Pool
}

func NewWaitlistRepository(storage *pgxpool.Pool) WaitlistRepositoryInterface {
	return &waitlistRepository{storage: storage}
}

func (r *waitlistRepository) getQuerier(tx pgx.Tx) Querier {
	if tx != nil {
		return tx
	}
	return r.storage
}

func (r *waitlistRepository) scanRow(row pgx.Row) (*entities.WaitlistEntry, error) {
	var e entities.WaitlistEntry
	if err := row.Scan(&e.ID, &e.ScheduleChangeID, &e.ClassScheduleID, &e.ClassDate, &e.Status, &e.StudentID, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return nil, mapPgError(err, nil)
	}
	return &e, nil
}

func (r *waitlistRepository) Create(ctx context.Context, tx pgx.Tx, e entities.WaitlistEntry) (uint64, error) {
	query, args, err := psql.Insert(waitlistTable).
		Columns("schedule_change_id", "class_schedule_id", "class_date", "status", "created_at", "updated_at").
		Values(e.ScheduleChangeID, e.ClassScheduleID, e.ClassDate, constants.WaitlistWaiting, sq.Expr("NOW()"), sq.Expr("NOW()")).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build waitlist insert: %w", err)
	}

	var id uint64
	if err := r.getQuerier(tx).QueryRow(ctx, query, args...).Scan(&id); err != nil {
		return 0, mapPgError(err, nil)
	}
	return id, nil
}

func (r *waitlistRepository) waitingOn(scheduleID uint64, date time.Time) sq.SelectBuilder {
	return psql.Select(waitlistFields).From(waitlistFrom).
		Where(sq.Eq{"w.class_schedule_id": scheduleID, "w.class_date": date, "w.status": constants.WaitlistWaiting}).
		OrderBy(waitlistOrder)
}

func (r *waitlistRepository) LockHead(ctx context.Context, tx pgx.Tx, scheduleID uint64, date time.Time) (*entities.WaitlistEntry, error) {
	query, args, err := r.waitingOn(scheduleID, date).Limit(1).Suffix("FOR UPDATE OF w").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build waitlist head query: %w", err)
	}
	return r.scanRow(r.getQuerier(tx).QueryRow(ctx, query, args...))
}

func (r *waitlistRepository) ListWaiting(ctx context.Context, tx pgx.Tx, scheduleID uint64, date time.Time) ([]*entities.WaitlistEntry, error) {
	query, args, err := r.waitingOn(scheduleID, date).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build waitlist query: %w", err)
	}
	rows, err := r.getQuerier(tx).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query waitlist: %w", err)
	}
	defer rows.Close()

	list := make([]*entities.WaitlistEntry, 0)
	for rows.Next() {
		e, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate waitlist: %w", err)
	}
	return list, nil
}

func (r *waitlistRepository) WaitingDates(ctx context.Context, tx pgx.Tx, scheduleID uint64, from, to time.Time) ([]time.Time, error) {
	query, args, err := psql.Select("DISTINCT class_date").
		From(waitlistTable).
		Where(sq.Eq{"class_schedule_id": scheduleID, "status": constants.WaitlistWaiting}).
		Where(sq.GtOrEq{"class_date": from}).
		Where(sq.LtOrEq{"class_date": to}).
		OrderBy("class_date").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build waiting dates query: %w", err)
	}

	rows, err := r.getQuerier(tx).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query waiting dates: %w", err)
	}
	dates, err := pgx.CollectRows(rows, pgx.RowTo[time.Time])
	if err != nil {
		return nil, fmt.Errorf("collect waiting dates: %w", err)
	}
	return dates, nil
}

func (r *waitlistRepository) SetStatus(ctx context.Context, tx pgx.Tx, id uint64, status string) error {
	query, args, err := psql.Update(waitlistTable).
		Set("status", status).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build waitlist status update: %w", err)
	}
	result, err := r.getQuerier(tx).Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update waitlist status: %w", err)
	}
	if result.RowsAffected() == 0 {
		return mapPgError(pgx.ErrNoRows, nil)
	}
	return nil
}

func (r *waitlistRepository) SetStatusByChange(ctx context.Context, tx pgx.Tx, changeID uint64, from, to string) (int64, error) {
	query, args, err := psql.Update(waitlistTable).
		Set("status", to).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"schedule_change_id": changeID, "status": from}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build waitlist change update: %w", err)
	}
	result, err := r.getQuerier(tx).Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("update waitlist entry of change %d: %w", changeID, err)
	}
	return result.RowsAffected(), nil
}

func (r *waitlistRepository) ExpireBefore(ctx context.Context, tx pgx.Tx, date time.Time) (int64, error) {
	query, args, err := psql.Update(waitlistTable).
		Set("status", constants.WaitlistExpired).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"status": constants.WaitlistWaiting}).
		Where(sq.Lt{"class_date": date}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build waitlist expiry: %w", err)
	}
	result, err := r.getQuerier(tx).Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("expire waitlist entries: %w", err)
	}
	return result.RowsAffected(), nil
}
