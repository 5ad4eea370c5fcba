package repositories

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	apperrors "studio-system/pkg/errors"
	"studio-system/pkg/types"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
	pgLockNotAvailable    = "55P03"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// listSpec whitelists the columns a list endpoint may filter, search and
// sort on. Keys are the public names used in query strings.
type listSpec struct {
	filters     map[string]string
	sorts       map[string]string
	search      []string
	defaultSort string
}

// applyFilters adds the WHERE part shared by the COUNT and SELECT queries.
// Comma separated values become IN lists.
func (s listSpec) applyFilters(b sq.SelectBuilder, filter types.Filter) sq.SelectBuilder {
	if filter.Search != "" && len(s.search) > 0 {
		pattern := "%" + filter.Search + "%"
		or := sq.Or{}
		for _, col := range s.search {
			or = append(or, sq.ILike{col: pattern})
		}
		b = b.Where(or)
	}

	for key, value := range filter.Filter {
		column, ok := s.filters[key]
		if !ok {
			continue
		}
		if items, ok := value.(string); ok && strings.Contains(items, ",") {
			b = b.Where(sq.Eq{column: strings.Split(items, ",")})
		} else {
			b = b.Where(sq.Eq{column: value})
		}
	}
	return b
}

func (s listSpec) applySortAndPage(b sq.SelectBuilder, filter types.Filter) sq.SelectBuilder {
	sorted := false
	for field, direction := range filter.Sort {
		column, ok := s.sorts[field]
		if !ok {
			continue
		}
		safeDirection := "ASC"
		if strings.ToUpper(direction) == "DESC" {
			safeDirection = "DESC"
		}
		b = b.OrderBy(column + " " + safeDirection)
		sorted = true
	}
	if !sorted {
		b = b.OrderBy(s.defaultSort)
	}

	if filter.WithPagination {
		if filter.Limit > 0 {
			b = b.Limit(uint64(filter.Limit))
		}
		if filter.Offset > 0 {
			b = b.Offset(uint64(filter.Offset))
		}
	}
	return b
}

func countRows(ctx context.Context, q Querier, b sq.SelectBuilder) (uint64, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count query: %w", err)
	}
	var total uint64
	if err := q.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("count query: %w", err)
	}
	return total, nil
}

// mapPgError turns constraint violations into application errors. conflict
// is returned for unique violations and defaults to ErrConflict.
func mapPgError(err error, conflict error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case pgUniqueViolation:
		if conflict == nil {
			conflict = apperrors.ErrConflict
		}
		return fmt.Errorf("%s: %w", pgErr.ConstraintName, conflict)
	case pgForeignKeyViolation:
		if strings.HasPrefix(strings.ToUpper(pgErr.Message), "UPDATE OR DELETE") {
			return apperrors.NewHttpError(http.StatusBadRequest, "The record cannot be deleted because it is in use", err, nil)
		}
		return apperrors.NewHttpError(http.StatusBadRequest, "A referenced record does not exist", err, map[string]string{"constraint": pgErr.ConstraintName})
	case pgCheckViolation:
		return apperrors.NewHttpError(http.StatusBadRequest, "The data violates a database rule", err, map[string]string{"constraint": pgErr.ConstraintName})
	}
	return err
}
