package repositories

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"

	"studio-system/internal/entities"
)

type ReportRepositoryInterface interface {
	ScheduleChangeSummary(ctx context.Context, month time.Time) ([]entities.ScheduleChangeStatusCount, error)
	ScheduleChangeItems(ctx context.Context, month time.Time) ([]entities.ScheduleChangeReportItem, error)
}

type reportRepository struct {
	db *pgxpool.Pool
}

func NewReportRepository(db *pgxpool.Pool) ReportRepositoryInterface {
	return &reportRepository{db: db}
}

// inMonth keeps changes whose original class falls within month.
func inMonth(b sq.SelectBuilder, month time.Time) sq.SelectBuilder {
	return b.Where(sq.GtOrEq{"c.original_date": month}).Where(sq.Lt{"c.original_date": month.AddDate(0, 1, 0)})
}

func (r *reportRepository) ScheduleChangeSummary(ctx context.Context, month time.Time) ([]entities.ScheduleChangeStatusCount, error) {
	b := psql.Select(
		"c.status",
		"COUNT(*)",
		"COUNT(*) FILTER (WHERE c.uses_joker)",
		"COUNT(*) FILTER (WHERE c.waitlisted)",
	).From("schedule_changes c").GroupBy("c.status").OrderBy("c.status")

	query, args, err := inMonth(b, month).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build schedule change summary: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query schedule change summary: %w", err)
	}
	defer rows.Close()

	var out []entities.ScheduleChangeStatusCount
	for rows.Next() {
		var c entities.ScheduleChangeStatusCount
		if err := rows.Scan(&c.Status, &c.Total, &c.WithJoker, &c.Waitlisted); err != nil {
			return nil, fmt.Errorf("scan schedule change summary: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *reportRepository) ScheduleChangeItems(ctx context.Context, month time.Time) ([]entities.ScheduleChangeReportItem, error) {
	b := psql.Select(
		"c.id", "s.full_name",
		"c.original_date", "oc.day_of_week", "to_char(oc.start_time, 'HH24:MI')",
		"c.target_date", "tc.day_of_week", "to_char(tc.start_time, 'HH24:MI')", "st.name",
		"c.status", "c.uses_joker", "c.waitlisted", "c.reason", "c.rejection_reason",
		"c.created_at", "c.reviewed_at",
	).
		From("schedule_changes c").
		Join("students s ON s.id = c.student_id").
		Join("class_schedules oc ON oc.id = c.original_schedule_id").
		Join("class_schedules tc ON tc.id = c.target_schedule_id").
		Join("studios st ON st.id = tc.studio_id").
		OrderBy("c.original_date", "c.id")

	query, args, err := inMonth(b, month).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build schedule change report: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query schedule change report: %w", err)
	}
	defer rows.Close()

	var out []entities.ScheduleChangeReportItem
	for rows.Next() {
		var it entities.ScheduleChangeReportItem
		err := rows.Scan(
			&it.ID, &it.StudentName,
			&it.OriginalDate, &it.OriginalDayOfWeek, &it.OriginalStartTime,
			&it.TargetDate, &it.TargetDayOfWeek, &it.TargetStartTime, &it.TargetStudio,
			&it.Status, &it.UsesJoker, &it.Waitlisted, &it.Reason, &it.RejectionReason,
			&it.CreatedAt, &it.ReviewedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan schedule change report: %w", err)
		}
		out = append(out, it)
	}
	return out, rows.Err()
}
