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
	apperrors "studio-system/pkg/errors"
	"studio-system/pkg/types"
)

const (
	registrationTable  = "student_class_registrations"
	registrationFrom   = "student_class_registrations r JOIN class_schedules cs ON cs.id = r.class_schedule_id"
	registrationFields = `r.id, r.student_id, r.class_schedule_id, r.start_date, r.end_date, r.status,
		cs.day_of_week, to_char(cs.start_time, 'HH24:MI'), r.created_at, r.updated_at`
)

var registrationList = listSpec{
	filters: map[string]string{
		"id":                "r.id",
		"student_id":        "r.student_id",
		"class_schedule_id": "r.class_schedule_id",
		"status":            "r.status",
		"day_of_week":       "cs.day_of_week",
	},
	sorts: map[string]string{
		"id":         "r.id",
		"start_date": "r.start_date",
		"created_at": "r.created_at",
	},
	defaultSort: "r.id DESC",
}

type RegistrationRepositoryInterface interface {
	FindByID(ctx context.Context, tx pgx.Tx, id uint64) (*entities.StudentClassRegistration, error)
	GetAll(ctx context.Context, filter types.Filter) ([]*entities.StudentClassRegistration, uint64, error)
	ListLiveByStudent(ctx context.Context, tx pgx.Tx, studentID uint64) ([]*entities.StudentClassRegistration, error)
	Create(ctx context.Context, tx pgx.Tx, r entities.StudentClassRegistration) (uint64, error)
	Cancel(ctx context.Context, tx pgx.Tx, id uint64, endDate time.Time) error
	// SwitchStatus moves every registration of the student in status from to
	// status to and returns how many rows changed.
	SwitchStatus(ctx context.Context, tx pgx.Tx, studentID uint64, from, to string) (int64, error)
	CountWeeklyClasses(ctx context.Context, tx pgx.Tx, studentID uint64) (int, error)
}

type registrationRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewRegistrationRepository(storage *pgxpool.Pool, logger *zap.Logger) RegistrationRepositoryInterface {
	return &registrationRepository{storage: storage, logger: logger}
}

func (r *registrationRepository) getQuerier(tx pgx.Tx) Querier {
	if tx != nil {
		return tx
	}
	return r.storage
}

func (r *registrationRepository) scanRow(row pgx.Row) (*entities.StudentClassRegistration, error) {
	var reg entities.StudentClassRegistration
	err := row.Scan(
		&reg.ID, &reg.StudentID, &reg.ClassScheduleID, &reg.StartDate, &reg.EndDate, &reg.Status,
		&reg.DayOfWeek, &reg.StartTime, &reg.CreatedAt, &reg.UpdatedAt,
	)
	if err != nil {
		return nil, mapPgError(err, nil)
	}
	return &reg, nil
}

func (r *registrationRepository) query(ctx context.Context, q Querier, b sq.SelectBuilder) ([]*entities.StudentClassRegistration, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build registration list: %w", err)
	}
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query registrations: %w", err)
	}
	defer rows.Close()

	list := make([]*entities.StudentClassRegistration, 0)
	for rows.Next() {
		reg, err := r.scanRow(rows)
		if err != nil {
			r.logger.Error("registration scan failed", zap.Error(err))
			return nil, err
		}
		list = append(list, reg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate registrations: %w", err)
	}
	return list, nil
}

func (r *registrationRepository) FindByID(ctx context.Context, tx pgx.Tx, id uint64) (*entities.StudentClassRegistration, error) {
	query, args, err := psql.Select(registrationFields).From(registrationFrom).Where(sq.Eq{"r.id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build registration query: %w", err)
	}
	return r.scanRow(r.getQuerier(tx).QueryRow(ctx, query, args...))
}

func (r *registrationRepository) GetAll(ctx context.Context, filter types.Filter) ([]*entities.StudentClassRegistration, uint64, error) {
	total, err := countRows(ctx, r.storage, registrationList.applyFilters(psql.Select("COUNT(r.id)").From(registrationFrom), filter))
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []*entities.StudentClassRegistration{}, 0, nil
	}

	b := registrationList.applyFilters(psql.Select(registrationFields).From(registrationFrom), filter)
	list, err := r.query(ctx, r.storage, registrationList.applySortAndPage(b, filter))
	if err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

func (r *registrationRepository) ListLiveByStudent(ctx context.Context, tx pgx.Tx, studentID uint64) ([]*entities.StudentClassRegistration, error) {
	b := psql.Select(registrationFields).From(registrationFrom).
		Where(sq.Eq{"r.student_id": studentID, "r.status": constants.LiveRegistrationStatuses}).
		OrderBy("cs.day_of_week", "cs.start_time")
	return r.query(ctx, r.getQuerier(tx), b)
}

func (r *registrationRepository) Create(ctx context.Context, tx pgx.Tx, reg entities.StudentClassRegistration) (uint64, error) {
	query, args, err := psql.Insert(registrationTable).
		Columns("student_id", "class_schedule_id", "start_date", "end_date", "status", "created_at", "updated_at").
		Values(reg.StudentID, reg.ClassScheduleID, reg.StartDate, reg.EndDate, reg.Status, sq.Expr("NOW()"), sq.Expr("NOW()")).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build registration insert: %w", err)
	}

	var id uint64
	if err := r.getQuerier(tx).QueryRow(ctx, query, args...).Scan(&id); err != nil {
		return 0, mapPgError(err, nil)
	}
	return id, nil
}

// Cancel closes the registration on endDate, or on its start date when it
// has not started yet.
func (r *registrationRepository) Cancel(ctx context.Context, tx pgx.Tx, id uint64, endDate time.Time) error {
	query, args, err := psql.Update(registrationTable).
		Set("status", constants.RegistrationCancelled).
		Set("end_date", sq.Expr("GREATEST(start_date, ?::date)", endDate)).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": id}).
		Where(sq.NotEq{"status": constants.RegistrationCancelled}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build registration cancel: %w", err)
	}

	result, err := r.getQuerier(tx).Exec(ctx, query, args...)
	if err != nil {
		return mapPgError(err, nil)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrRegistrationNotLive
	}
	return nil
}

func (r *registrationRepository) SwitchStatus(ctx context.Context, tx pgx.Tx, studentID uint64, from, to string) (int64, error) {
	query, args, err := psql.Update(registrationTable).
		Set("status", to).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"student_id": studentID, "status": from}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build registration status switch: %w", err)
	}

	result, err := r.getQuerier(tx).Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("switch registration status: %w", err)
	}
	return result.RowsAffected(), nil
}

func (r *registrationRepository) CountWeeklyClasses(ctx context.Context, tx pgx.Tx, studentID uint64) (int, error) {
	query, args, err := psql.Select("COUNT(DISTINCT cs.day_of_week)").
		From(registrationFrom).
		Where(sq.Eq{"r.student_id": studentID, "r.status": constants.LiveRegistrationStatuses}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build weekly classes query: %w", err)
	}

	var n int
	if err := r.getQuerier(tx).QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count weekly classes: %w", err)
	}
	return n, nil
}
