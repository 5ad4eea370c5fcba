package repositories

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"studio-system/internal/entities"
	"studio-system/pkg/types"
)

const (
	classScheduleTable  = "class_schedules"
	classScheduleFrom   = "class_schedules cs JOIN studios st ON st.id = cs.studio_id"
	classScheduleFields = `cs.id, cs.studio_id, cs.instructor_id, cs.day_of_week,
		to_char(cs.start_time, 'HH24:MI'), to_char(cs.end_time, 'HH24:MI'),
		cs.capacity_override, cs.status, st.name, st.capacity, cs.created_at, cs.updated_at`
)

var classScheduleList = listSpec{
	filters: map[string]string{
		"id":            "cs.id",
		"studio_id":     "cs.studio_id",
		"instructor_id": "cs.instructor_id",
		"day_of_week":   "cs.day_of_week",
		"status":        "cs.status",
	},
	sorts: map[string]string{
		"id":          "cs.id",
		"day_of_week": "cs.day_of_week",
		"start_time":  "cs.start_time",
		"created_at":  "cs.created_at",
	},
	search:      []string{"st.name"},
	defaultSort: "cs.day_of_week ASC, cs.start_time ASC",
}

type ClassScheduleRepositoryInterface interface {
	FindByID(ctx context.Context, tx pgx.Tx, id uint64) (*entities.ClassSchedule, error)
	// LockByID reads the slot with a row lock; tx is required.
	LockByID(ctx context.Context, tx pgx.Tx, id uint64) (*entities.ClassSchedule, error)
	GetAll(ctx context.Context, filter types.Filter) ([]*entities.ClassSchedule, uint64, error)
	ListActiveByWeekday(ctx context.Context, weekday int) ([]*entities.ClassSchedule, error)
	Create(ctx context.Context, tx pgx.Tx, s entities.ClassSchedule) (uint64, error)
	Update(ctx context.Context, tx pgx.Tx, s entities.ClassSchedule) error
	Delete(ctx context.Context, tx pgx.Tx, id uint64) error
}

type classScheduleRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewClassScheduleRepository(storage *pgxpool.Pool, logger *zap.Logger) ClassScheduleRepositoryInterface {
	return &classScheduleRepository{storage: storage, logger: logger}
}

func (r *classScheduleRepository) getQuerier(tx pgx.Tx) Querier {
	if tx != nil {
		return tx
	}
	return r.storage
}

func (r *classScheduleRepository) scanRow(row pgx.Row) (*entities.ClassSchedule, error) {
	var s entities.ClassSchedule
	err := row.Scan(
		&s.ID, &s.StudioID, &s.InstructorID, &s.DayOfWeek,
		&s.StartTime, &s.EndTime,
		&s.CapacityOverride, &s.Status, &s.StudioName, &s.StudioCapacity, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, mapPgError(err, nil)
	}
	return &s, nil
}

func (r *classScheduleRepository) findOne(ctx context.Context, q Querier, id uint64, suffix string) (*entities.ClassSchedule, error) {
	b := psql.Select(classScheduleFields).From(classScheduleFrom).Where(sq.Eq{"cs.id": id})
	if suffix != "" {
		b = b.Suffix(suffix)
	}
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build class schedule query: %w", err)
	}
	return r.scanRow(q.QueryRow(ctx, query, args...))
}

func (r *classScheduleRepository) FindByID(ctx context.Context, tx pgx.Tx, id uint64) (*entities.ClassSchedule, error) {
	return r.findOne(ctx, r.getQuerier(tx), id, "")
}

func (r *classScheduleRepository) LockByID(ctx context.Context, tx pgx.Tx, id uint64) (*entities.ClassSchedule, error) {
	return r.findOne(ctx, tx, id, "FOR UPDATE OF cs")
}

func (r *classScheduleRepository) GetAll(ctx context.Context, filter types.Filter) ([]*entities.ClassSchedule, uint64, error) {
	total, err := countRows(ctx, r.storage, classScheduleList.applyFilters(psql.Select("COUNT(cs.id)").From(classScheduleFrom), filter))
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []*entities.ClassSchedule{}, 0, nil
	}

	b := classScheduleList.applyFilters(psql.Select(classScheduleFields).From(classScheduleFrom), filter)
	b = classScheduleList.applySortAndPage(b, filter)

	list, err := r.query(ctx, r.storage, b)
	if err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

func (r *classScheduleRepository) ListActiveByWeekday(ctx context.Context, weekday int) ([]*entities.ClassSchedule, error) {
	b := psql.Select(classScheduleFields).From(classScheduleFrom).
		Where(sq.Eq{"cs.day_of_week": weekday, "cs.status": "ACTIVE"}).
		OrderBy("cs.start_time ASC", "cs.id ASC")
	return r.query(ctx, r.storage, b)
}

func (r *classScheduleRepository) query(ctx context.Context, q Querier, b sq.SelectBuilder) ([]*entities.ClassSchedule, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build class schedule list: %w", err)
	}
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query class schedules: %w", err)
	}
	defer rows.Close()

	list := make([]*entities.ClassSchedule, 0)
	for rows.Next() {
		s, err := r.scanRow(rows)
		if err != nil {
			r.logger.Error("class schedule scan failed", zap.Error(err))
			return nil, err
		}
		list = append(list, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate class schedules: %w", err)
	}
	return list, nil
}

func (r *classScheduleRepository) Create(ctx context.Context, tx pgx.Tx, s entities.ClassSchedule) (uint64, error) {
	query, args, err := psql.Insert(classScheduleTable).
		Columns("studio_id", "instructor_id", "day_of_week", "start_time", "end_time", "capacity_override", "status", "created_at", "updated_at").
		Values(s.StudioID, s.InstructorID, s.DayOfWeek, s.StartTime, s.EndTime, s.CapacityOverride, s.Status, sq.Expr("NOW()"), sq.Expr("NOW()")).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build class schedule insert: %w", err)
	}

	var id uint64
	if err := r.getQuerier(tx).QueryRow(ctx, query, args...).Scan(&id); err != nil {
		return 0, mapPgError(err, nil)
	}
	return id, nil
}

func (r *classScheduleRepository) Update(ctx context.Context, tx pgx.Tx, s entities.ClassSchedule) error {
	query, args, err := psql.Update(classScheduleTable).
		Set("studio_id", s.StudioID).
		Set("instructor_id", s.InstructorID).
		Set("day_of_week", s.DayOfWeek).
		Set("start_time", s.StartTime).
		Set("end_time", s.EndTime).
		Set("capacity_override", s.CapacityOverride).
		Set("status", s.Status).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": s.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build class schedule update: %w", err)
	}

	result, err := r.getQuerier(tx).Exec(ctx, query, args...)
	if err != nil {
		return mapPgError(err, nil)
	}
	if result.RowsAffected() == 0 {
		return mapPgError(pgx.ErrNoRows, nil)
	}
	return nil
}

func (r *classScheduleRepository) Delete(ctx context.Context, tx pgx.Tx, id uint64) error {
	query, args, err := psql.Delete(classScheduleTable).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("build class schedule delete: %w", err)
	}

	result, err := r.getQuerier(tx).Exec(ctx, query, args...)
	if err != nil {
		return mapPgError(err, nil)
	}
	if result.RowsAffected() == 0 {
		return mapPgError(pgx.ErrNoRows, nil)
	}
	return nil
}
