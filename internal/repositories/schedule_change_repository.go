package repositories

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/aarondl/null/v8"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"studio-system/internal/entities"
	"studio-system/pkg/constants"
	apperrors "studio-system/pkg/errors"
	"studio-system/pkg/types"
)

const (
	scheduleChangeTable  = "schedule_changes"
	scheduleChangeFields = `id, student_id, registration_id, original_schedule_id, original_date,
		target_schedule_id, target_date, status, uses_joker, waitlisted, reason, rejection_reason,
		reviewed_by, reviewed_at, completed_at, created_at, updated_at`
)

var scheduleChangeList = listSpec{
	filters: map[string]string{
		"id":                   "id",
		"student_id":           "student_id",
		"registration_id":      "registration_id",
		"status":               "status",
		"target_schedule_id":   "target_schedule_id",
		"original_schedule_id": "original_schedule_id",
		"waitlisted":           "waitlisted",
	},
	sorts: map[string]string{
		"id":            "id",
		"created_at":    "created_at",
		"original_date": "original_date",
		"target_date":   "target_date",
		"status":        "status",
	},
	search:      []string{"reason"},
	defaultSort: "id DESC",
}

type ScheduleChangeRepositoryInterface interface {
	FindByID(ctx context.Context, tx pgx.Tx, id uint64) (*entities.ScheduleChange, error)
	LockByID(ctx context.Context, tx pgx.Tx, id uint64) (*entities.ScheduleChange, error)
	// GetAll lists changes; month (first day) narrows to changes whose
	// original date falls in that month when non-zero.
	GetAll(ctx context.Context, filter types.Filter, month time.Time) ([]*entities.ScheduleChange, uint64, error)
	ExistsLive(ctx context.Context, tx pgx.Tx, registrationID uint64, originalDate time.Time) (bool, error)
	// HasLiveTargetBetween reports whether the student holds or requests a
	// seat through a change targeting a date in [from, to].
	HasLiveTargetBetween(ctx context.Context, tx pgx.Tx, studentID uint64, from, to time.Time) (bool, error)
	Create(ctx context.Context, tx pgx.Tx, c entities.ScheduleChange) (uint64, error)
	Approve(ctx context.Context, tx pgx.Tx, id, reviewerID uint64, at time.Time) error
	Reject(ctx context.Context, tx pgx.Tx, id uint64, reason string, reviewerID null.Uint64, at time.Time) error
	SetWaitlisted(ctx context.Context, tx pgx.Tx, id uint64, waitlisted bool) error
	CompleteApprovedBefore(ctx context.Context, tx pgx.Tx, date, at time.Time) (int64, error)
	ListPendingBefore(ctx context.Context, tx pgx.Tx, date time.Time) ([]*entities.ScheduleChange, error)
	ListPendingByRegistration(ctx context.Context, tx pgx.Tx, registrationID uint64) ([]*entities.ScheduleChange, error)
}

type scheduleChangeRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewScheduleChangeRepository(storage *pgxpool.Pool, logger *zap.Logger) ScheduleChangeRepositoryInterface {
	return &scheduleChangeRepository{storage: storage, logger: logger}
}

func (r *scheduleChangeRepository) getQuerier(tx pgx.Tx) Querier {
	if tx != nil {
		return tx
	}
	return r.storage
}

func (r *scheduleChangeRepository) scanRow(row pgx.Row) (*entities.ScheduleChange, error) {
	var c entities.ScheduleChange
	err := row.Scan(
		&c.ID, &c.StudentID, &c.RegistrationID, &c.OriginalScheduleID, &c.OriginalDate,
		&c.TargetScheduleID, &c.TargetDate, &c.Status, &c.UsesJoker, &c.Waitlisted, &c.Reason, &c.RejectionReason,
		&c.ReviewedBy, &c.ReviewedAt, &c.CompletedAt, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, mapPgError(err, nil)
	}
	return &c, nil
}

func (r *scheduleChangeRepository) query(ctx context.Context, q Querier, b sq.SelectBuilder) ([]*entities.ScheduleChange, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build schedule change list: %w", err)
	}
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query schedule changes: %w", err)
	}
	defer rows.Close()

	list := make([]*entities.ScheduleChange, 0)
	for rows.Next() {
		c, err := r.scanRow(rows)
		if err != nil {
			r.logger.Error("schedule change scan failed", zap.Error(err))
			return nil, err
		}
		list = append(list, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate schedule changes: %w", err)
	}
	return list, nil
}

func (r *scheduleChangeRepository) findOne(ctx context.Context, q Querier, id uint64, suffix string) (*entities.ScheduleChange, error) {
	b := psql.Select(scheduleChangeFields).From(scheduleChangeTable).Where(sq.Eq{"id": id})
	if suffix != "" {
		b = b.Suffix(suffix)
	}
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build schedule change query: %w", err)
	}
	return r.scanRow(q.QueryRow(ctx, query, args...))
}

func (r *scheduleChangeRepository) FindByID(ctx context.Context, tx pgx.Tx, id uint64) (*entities.ScheduleChange, error) {
	return r.findOne(ctx, r.getQuerier(tx), id, "")
}

func (r *scheduleChangeRepository) LockByID(ctx context.Context, tx pgx.Tx, id uint64) (*entities.ScheduleChange, error) {
	return r.findOne(ctx, tx, id, "FOR UPDATE")
}

func (r *scheduleChangeRepository) GetAll(ctx context.Context, filter types.Filter, month time.Time) ([]*entities.ScheduleChange, uint64, error) {
	where := func(b sq.SelectBuilder) sq.SelectBuilder {
		b = scheduleChangeList.applyFilters(b, filter)
		if !month.IsZero() {
			b = b.Where(sq.GtOrEq{"original_date": month}).Where(sq.Lt{"original_date": month.AddDate(0, 1, 0)})
		}
		return b
	}

	total, err := countRows(ctx, r.storage, where(psql.Select("COUNT(id)").From(scheduleChangeTable)))
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []*entities.ScheduleChange{}, 0, nil
	}

	b := scheduleChangeList.applySortAndPage(where(psql.Select(scheduleChangeFields).From(scheduleChangeTable)), filter)
	list, err := r.query(ctx, r.storage, b)
	if err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

func (r *scheduleChangeRepository) ExistsLive(ctx context.Context, tx pgx.Tx, registrationID uint64, originalDate time.Time) (bool, error) {
	query, args, err := psql.Select("1").
		From(scheduleChangeTable).
		Where(sq.Eq{"registration_id": registrationID, "original_date": originalDate, "status": constants.LiveChangeStatuses}).
		Prefix("SELECT EXISTS (").
		Suffix(")").
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build live change query: %w", err)
	}

	var exists bool
	if err := r.getQuerier(tx).QueryRow(ctx, query, args...).Scan(&exists); err != nil {
		return false, fmt.Errorf("check live change: %w", err)
	}
	return exists, nil
}

func (r *scheduleChangeRepository) HasLiveTargetBetween(ctx context.Context, tx pgx.Tx, studentID uint64, from, to time.Time) (bool, error) {
	query, args, err := psql.Select("1").
		From(scheduleChangeTable).
		Where(sq.Eq{"student_id": studentID, "status": constants.LiveChangeStatuses}).
		Where(sq.GtOrEq{"target_date": from}).
		Where(sq.LtOrEq{"target_date": to}).
		Prefix("SELECT EXISTS (").
		Suffix(")").
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build live target query: %w", err)
	}

	var exists bool
	if err := r.getQuerier(tx).QueryRow(ctx, query, args...).Scan(&exists); err != nil {
		return false, fmt.Errorf("check live target: %w", err)
	}
	return exists, nil
}

func (r *scheduleChangeRepository) Create(ctx context.Context, tx pgx.Tx, c entities.ScheduleChange) (uint64, error) {
	query, args, err := psql.Insert(scheduleChangeTable).
		Columns("student_id", "registration_id", "original_schedule_id", "original_date",
			"target_schedule_id", "target_date", "status", "uses_joker", "waitlisted", "reason", "created_at", "updated_at").
		Values(c.StudentID, c.RegistrationID, c.OriginalScheduleID, c.OriginalDate,
			c.TargetScheduleID, c.TargetDate, c.Status, c.UsesJoker, c.Waitlisted, c.Reason, sq.Expr("NOW()"), sq.Expr("NOW()")).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build schedule change insert: %w", err)
	}

	var id uint64
	if err := r.getQuerier(tx).QueryRow(ctx, query, args...).Scan(&id); err != nil {
		return 0, mapPgError(err, apperrors.ErrDuplicateChange)
	}
	return id, nil
}

// transition updates a change only while it is still in status from, so a
// concurrent review loses with ErrInvalidTransition instead of overwriting.
func (r *scheduleChangeRepository) transition(ctx context.Context, tx pgx.Tx, id uint64, from string, set map[string]interface{}) error {
	set["updated_at"] = sq.Expr("NOW()")
	query, args, err := psql.Update(scheduleChangeTable).
		SetMap(set).
		Where(sq.Eq{"id": id, "status": from}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build schedule change transition: %w", err)
	}

	result, err := r.getQuerier(tx).Exec(ctx, query, args...)
	if err != nil {
		return mapPgError(err, nil)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrInvalidTransition
	}
	return nil
}

func (r *scheduleChangeRepository) Approve(ctx context.Context, tx pgx.Tx, id, reviewerID uint64, at time.Time) error {
	return r.transition(ctx, tx, id, constants.ChangePending, map[string]interface{}{
		"status":      constants.ChangeApproved,
		"reviewed_by": reviewerID,
		"reviewed_at": at,
	})
}

func (r *scheduleChangeRepository) Reject(ctx context.Context, tx pgx.Tx, id uint64, reason string, reviewerID null.Uint64, at time.Time) error {
	return r.transition(ctx, tx, id, constants.ChangePending, map[string]interface{}{
		"status":           constants.ChangeRejected,
		"rejection_reason": reason,
		"reviewed_by":      reviewerID,
		"reviewed_at":      at,
		"waitlisted":       false,
	})
}

func (r *scheduleChangeRepository) SetWaitlisted(ctx context.Context, tx pgx.Tx, id uint64, waitlisted bool) error {
	query, args, err := psql.Update(scheduleChangeTable).
		Set("waitlisted", waitlisted).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build waitlisted update: %w", err)
	}
	if _, err := r.getQuerier(tx).Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("update waitlisted flag: %w", err)
	}
	return nil
}

func (r *scheduleChangeRepository) CompleteApprovedBefore(ctx context.Context, tx pgx.Tx, date, at time.Time) (int64, error) {
	query, args, err := psql.Update(scheduleChangeTable).
		Set("status", constants.ChangeCompleted).
		Set("completed_at", at).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"status": constants.ChangeApproved}).
		Where(sq.Lt{"target_date": date}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build complete approved: %w", err)
	}

	result, err := r.getQuerier(tx).Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("complete approved changes: %w", err)
	}
	return result.RowsAffected(), nil
}

func (r *scheduleChangeRepository) ListPendingBefore(ctx context.Context, tx pgx.Tx, date time.Time) ([]*entities.ScheduleChange, error) {
	b := psql.Select(scheduleChangeFields).From(scheduleChangeTable).
		Where(sq.Eq{"status": constants.ChangePending}).
		Where(sq.Lt{"target_date": date}).
		OrderBy("id").
		Suffix("FOR UPDATE")
	return r.query(ctx, r.getQuerier(tx), b)
}

func (r *scheduleChangeRepository) ListPendingByRegistration(ctx context.Context, tx pgx.Tx, registrationID uint64) ([]*entities.ScheduleChange, error) {
	b := psql.Select(scheduleChangeFields).From(scheduleChangeTable).
		Where(sq.Eq{"registration_id": registrationID, "status": constants.ChangePending}).
		OrderBy("id").
		Suffix("FOR UPDATE")
	return r.query(ctx, r.getQuerier(tx), b)
}
