package repositories

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "studio-system/pkg/errors"
	"studio-system/pkg/utils"
)

func mustDecimal(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestListSpec_BuildsWhitelistedQuery(t *testing.T) {
	values := url.Values{}
	values.Set("filter[status]", "PENDING,APPROVED")
	values.Set("filter[password]", "x")
	values.Set("sort[created_at]", "desc")
	values.Set("sort[drop table]", "asc")
	values.Set("limit", "5")
	values.Set("page", "3")
	filter := utils.ParseFilterFromQuery(values)

	b := scheduleChangeList.applyFilters(psql.Select("id").From(scheduleChangeTable), filter)
	b = scheduleChangeList.applySortAndPage(b, filter)
	query, args, err := b.ToSql()
	require.NoError(t, err)

	assert.Equal(t, "SELECT id FROM schedule_changes WHERE status IN ($1,$2) ORDER BY created_at DESC LIMIT 5 OFFSET 10", query)
	assert.Equal(t, []interface{}{"PENDING", "APPROVED"}, args)
}

func TestListSpec_DefaultSortAndSearch(t *testing.T) {
	filter := utils.ParseFilterFromQuery(url.Values{"search": {"yoga"}})
	b := leaveList.applySortAndPage(leaveList.applyFilters(psql.Select("id").From(leaveTable), filter), filter)
	query, args, err := b.ToSql()
	require.NoError(t, err)

	assert.Equal(t, "SELECT id FROM temporary_leaves WHERE (reason ILIKE $1) ORDER BY start_date DESC LIMIT 20", query)
	assert.Equal(t, []interface{}{"%yoga%"}, args)
}

func TestMapPgError(t *testing.T) {
	assert.ErrorIs(t, mapPgError(pgx.ErrNoRows, nil), apperrors.ErrNotFound)
	assert.ErrorIs(t, mapPgError(&pgconn.PgError{Code: pgUniqueViolation}, nil), apperrors.ErrConflict)
	assert.ErrorIs(t, mapPgError(&pgconn.PgError{Code: pgUniqueViolation}, apperrors.ErrDuplicateChange), apperrors.ErrDuplicateChange)

	inUse := mapPgError(&pgconn.PgError{Code: pgForeignKeyViolation, Message: `update or delete on table "class_schedules" violates foreign key constraint`}, nil)
	var httpErr *apperrors.HttpError
	require.True(t, errors.As(inUse, &httpErr))
	assert.Equal(t, http.StatusBadRequest, httpErr.Code)
	assert.Contains(t, httpErr.Message, "in use")

	plain := errors.New("boom")
	assert.Equal(t, plain, mapPgError(plain, nil))
}

func TestLockTimeoutStatement(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{0, ""},
		{-time.Second, ""},
		{500 * time.Microsecond, "SET LOCAL lock_timeout = 1"},
		{250 * time.Millisecond, "SET LOCAL lock_timeout = 250"},
		{5 * time.Second, "SET LOCAL lock_timeout = 5000"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, lockTimeoutStatement(tt.in), tt.in.String())
	}
}

func TestTranslateTxError(t *testing.T) {
	locked := fmt.Errorf("lock class schedule: %w", &pgconn.PgError{Code: pgLockNotAvailable, Message: "canceling statement due to lock timeout"})
	err := translateTxError(locked)
	assert.ErrorIs(t, err, apperrors.ErrResourceBusy)
	code, ok := apperrors.StatusCode(err)
	assert.True(t, ok)
	assert.Equal(t, http.StatusConflict, code)

	assert.NoError(t, translateTxError(nil))
	assert.ErrorIs(t, translateTxError(apperrors.ErrClassFull), apperrors.ErrClassFull)
}
