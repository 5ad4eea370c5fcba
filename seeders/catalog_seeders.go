package seeders

import (
	"context"

	"github.com/jackc/pgx/v5"
)

func seedStudios(ctx context.Context, tx pgx.Tx) (int64, error) {
	const query = `INSERT INTO studios (name, capacity) VALUES ($1, $2)
		ON CONFLICT (name) DO UPDATE SET capacity = EXCLUDED.capacity, updated_at = NOW()
		WHERE studios.capacity <> EXCLUDED.capacity`
	return execEach(ctx, tx, query, studiosData, func(s studioSeed) []interface{} {
		return []interface{}{s.Name, s.Capacity}
	})
}

func seedInstructors(ctx context.Context, tx pgx.Tx) (int64, error) {
	const query = `INSERT INTO instructors (full_name) VALUES ($1) ON CONFLICT (full_name) DO NOTHING`
	return execEach(ctx, tx, query, instructorsData, func(name string) []interface{} {
		return []interface{}{name}
	})
}

func seedStudents(ctx context.Context, tx pgx.Tx) (int64, error) {
	const query = `INSERT INTO students (full_name, phone) VALUES ($1, $2)
		ON CONFLICT (phone) DO UPDATE SET full_name = EXCLUDED.full_name, updated_at = NOW()
		WHERE students.full_name <> EXCLUDED.full_name`
	return execEach(ctx, tx, query, studentsData, func(s studentSeed) []interface{} {
		return []interface{}{s.FullName, s.Phone}
	})
}

func seedClassSchedules(ctx context.Context, tx pgx.Tx) (int64, error) {
	const query = `INSERT INTO class_schedules (studio_id, instructor_id, day_of_week, start_time, end_time, capacity_override)
		SELECT s.id, i.id, $3, $4::time, $5::time, NULLIF($6, 0)
		FROM studios s LEFT JOIN instructors i ON i.full_name = $2
		WHERE s.name = $1
		ON CONFLICT (studio_id, day_of_week, start_time) DO NOTHING`
	return execEach(ctx, tx, query, classSchedulesData, func(c scheduleSeed) []interface{} {
		return []interface{}{c.Studio, c.Instructor, c.DayOfWeek, c.StartTime, c.EndTime, c.CapacityOverride}
	})
}
