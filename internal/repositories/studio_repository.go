package repositories

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"studio-system/internal/entities"
	"studio-system/pkg/constants"
)

const (
	studioFields  = "id, name, capacity, created_at, updated_at"
	studentFields = "id, full_name, phone, status, created_at, updated_at"
)

// StudioRepositoryInterface reads the studio catalog owned by the admin
// module, plus the matching instructors and students.
type StudioRepositoryInterface interface {
	FindStudio(ctx context.Context, tx pgx.Tx, id uint64) (*entities.Studio, error)
	FindInstructor(ctx context.Context, tx pgx.Tx, id uint64) (*entities.Instructor, error)
	FindStudent(ctx context.Context, tx pgx.Tx, id uint64) (*entities.Student, error)
	// ListEnrolledStudentIDs returns students holding an ACTIVE or ON_LEAVE
	// registration.
	ListEnrolledStudentIDs(ctx context.Context, tx pgx.Tx) ([]uint64, error)
}

type studioRepository struct {
	storage *pgxpool.Pool
}

func NewStudioRepository(storage *pgxpool.Pool) StudioRepositoryInterface {
	return &studioRepository{storage: storage}
}

func (r *studioRepository) getQuerier(tx pgx.Tx) Querier {
	if tx != nil {
		return tx
	}
	return r.storage
}

func (r *studioRepository) FindStudio(ctx context.Context, tx pgx.Tx, id uint64) (*entities.Studio, error) {
	query, args, err := psql.Select(studioFields).From("studios").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build studio query: %w", err)
	}
	var s entities.Studio
	if err := r.getQuerier(tx).QueryRow(ctx, query, args...).Scan(&s.ID, &s.Name, &s.Capacity, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, mapPgError(err, nil)
	}
	return &s, nil
}

func (r *studioRepository) FindInstructor(ctx context.Context, tx pgx.Tx, id uint64) (*entities.Instructor, error) {
	query, args, err := psql.Select("id, full_name, created_at, updated_at").From("instructors").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build instructor query: %w", err)
	}
	var i entities.Instructor
	if err := r.getQuerier(tx).QueryRow(ctx, query, args...).Scan(&i.ID, &i.FullName, &i.CreatedAt, &i.UpdatedAt); err != nil {
		return nil, mapPgError(err, nil)
	}
	return &i, nil
}

func (r *studioRepository) FindStudent(ctx context.Context, tx pgx.Tx, id uint64) (*entities.Student, error) {
	query, args, err := psql.Select(studentFields).From("students").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build student query: %w", err)
	}
	var s entities.Student
	if err := r.getQuerier(tx).QueryRow(ctx, query, args...).Scan(&s.ID, &s.FullName, &s.Phone, &s.Status, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, mapPgError(err, nil)
	}
	return &s, nil
}

func (r *studioRepository) ListEnrolledStudentIDs(ctx context.Context, tx pgx.Tx) ([]uint64, error) {
	query, args, err := psql.Select("DISTINCT student_id").
		From(registrationTable).
		Where(sq.Eq{"status": constants.LiveRegistrationStatuses}).
		OrderBy("student_id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build enrolled students query: %w", err)
	}

	rows, err := r.getQuerier(tx).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query enrolled students: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[uint64])
	if err != nil {
		return nil, fmt.Errorf("collect enrolled students: %w", err)
	}
	return ids, nil
}
