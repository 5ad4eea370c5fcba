package repositories

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/aarondl/null/v8"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"studio-system/internal/entities"
	"studio-system/migrations"
	"studio-system/pkg/constants"
	apperrors "studio-system/pkg/errors"
	"studio-system/pkg/types"
)

var testPool *pgxpool.Pool

// TestMain connects to TEST_DATABASE_URL and migrates it. Without the
// variable the integration tests in this package are skipped.
func TestMain(m *testing.M) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn != "" {
		ctx := context.Background()
		pool, err := pgxpool.New(ctx, dsn)
		if err != nil {
			panic("connect test database: " + err.Error())
		}
		if err := migrations.Run(ctx, pool, "up"); err != nil {
			panic("migrate test database: " + err.Error())
		}
		testPool = pool
	}

	code := m.Run()
	if testPool != nil {
		testPool.Close()
	}
	os.Exit(code)
}

func requireDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	if testPool == nil {
		t.Skip("TEST_DATABASE_URL is not set")
	}
	_, err := testPool.Exec(context.Background(), `TRUNCATE TABLE travel_fee_movements, temporary_leaves, joker_balances,
		waitlist_entries, schedule_changes, student_class_registrations, class_schedules, students, instructors, studios
		RESTART IDENTITY CASCADE`)
	require.NoError(t, err, "truncate tables")
	return testPool
}

type fixture struct {
	studioID   uint64
	mondayID   uint64
	tuesdayID  uint64
	studentIDs []uint64
}

func date(s string) time.Time {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return d
}

// seed: one studio of capacity 2, a Monday and a Tuesday slot, three students.
func seed(t *testing.T, pool *pgxpool.Pool) fixture {
	t.Helper()
	ctx := context.Background()
	var f fixture
	require.NoError(t, pool.QueryRow(ctx, `INSERT INTO studios (name, capacity) VALUES ('Reformer Room', 2) RETURNING id`).Scan(&f.studioID))

	repo := NewClassScheduleRepository(pool, zap.NewNop())
	var err error
	f.mondayID, err = repo.Create(ctx, nil, entities.ClassSchedule{StudioID: f.studioID, DayOfWeek: 1, StartTime: "08:00", EndTime: "09:00", Status: constants.ScheduleActive})
	require.NoError(t, err)
	f.tuesdayID, err = repo.Create(ctx, nil, entities.ClassSchedule{StudioID: f.studioID, DayOfWeek: 2, StartTime: "08:00", EndTime: "09:00", Status: constants.ScheduleActive})
	require.NoError(t, err)

	for _, name := range []string{"Ana", "Luis", "Marta"} {
		var id uint64
		require.NoError(t, pool.QueryRow(ctx, `INSERT INTO students (full_name) VALUES ($1) RETURNING id`, name).Scan(&id))
		f.studentIDs = append(f.studentIDs, id)
	}
	return f
}

func register(t *testing.T, pool *pgxpool.Pool, studentID, scheduleID uint64, start string) uint64 {
	t.Helper()
	id, err := NewRegistrationRepository(pool, zap.NewNop()).Create(context.Background(), nil, entities.StudentClassRegistration{
		StudentID: studentID, ClassScheduleID: scheduleID, StartDate: date(start), Status: constants.RegistrationActive,
	})
	require.NoError(t, err)
	return id
}

func TestClassScheduleRepository_Integration(t *testing.T) {
	pool := requireDB(t)
	f := seed(t, pool)
	ctx := context.Background()
	repo := NewClassScheduleRepository(pool, zap.NewNop())

	s, err := repo.FindByID(ctx, nil, f.mondayID)
	require.NoError(t, err)
	assert.Equal(t, "08:00", s.StartTime)
	assert.Equal(t, 2, s.Capacity())

	_, err = repo.Create(ctx, nil, entities.ClassSchedule{StudioID: f.studioID, DayOfWeek: 1, StartTime: "08:00", EndTime: "09:00", Status: constants.ScheduleActive})
	assert.ErrorIs(t, err, apperrors.ErrConflict)

	filter := types.Filter{Filter: map[string]interface{}{"day_of_week": "2"}, Limit: 10, WithPagination: true}
	list, total, err := repo.GetAll(ctx, filter)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), total)
	assert.Equal(t, f.tuesdayID, list[0].ID)

	register(t, pool, f.studentIDs[0], f.mondayID, "2026-10-05")
	err = repo.Delete(ctx, nil, f.mondayID)
	code, _ := apperrors.StatusCode(err)
	assert.Equal(t, 400, code)
}

func TestOccupancyRepository_Integration(t *testing.T) {
	pool := requireDB(t)
	f := seed(t, pool)
	ctx := context.Background()

	regA := register(t, pool, f.studentIDs[0], f.mondayID, "2026-10-05")
	register(t, pool, f.studentIDs[1], f.mondayID, "2026-10-05")

	occ := NewOccupancyRepository(pool)
	o, err := occ.Occupancy(ctx, nil, f.mondayID, date("2026-10-19"))
	require.NoError(t, err)
	assert.Equal(t, 2, o.Booked)

	// an approved move out of Monday frees a seat there and takes one on Tuesday
	changes := NewScheduleChangeRepository(pool, zap.NewNop())
	changeID, err := changes.Create(ctx, nil, entities.ScheduleChange{
		StudentID: f.studentIDs[0], RegistrationID: regA, OriginalScheduleID: f.mondayID, OriginalDate: date("2026-10-19"),
		TargetScheduleID: f.tuesdayID, TargetDate: date("2026-10-20"), Status: constants.ChangePending, UsesJoker: true,
	})
	require.NoError(t, err)

	o, err = occ.Occupancy(ctx, nil, f.tuesdayID, date("2026-10-20"))
	require.NoError(t, err)
	assert.Equal(t, 0, o.Booked)
	assert.Equal(t, 1, o.Pending)

	require.NoError(t, changes.Approve(ctx, nil, changeID, 1, time.Now()))
	assert.ErrorIs(t, changes.Approve(ctx, nil, changeID, 1, time.Now()), apperrors.ErrInvalidTransition)

	o, err = occ.Occupancy(ctx, nil, f.mondayID, date("2026-10-19"))
	require.NoError(t, err)
	assert.Equal(t, 1, o.Booked)
	o, err = occ.Occupancy(ctx, nil, f.tuesdayID, date("2026-10-20"))
	require.NoError(t, err)
	assert.Equal(t, 1, o.Booked)

	// a leave removes the second student from the Monday count
	_, err = NewLeaveRepository(pool, zap.NewNop()).Create(ctx, nil, entities.TemporaryLeave{
		StudentID: f.studentIDs[1], StartDate: date("2026-10-15"), EndDate: date("2026-10-25"), Status: constants.LeaveScheduled,
	})
	require.NoError(t, err)
	o, err = occ.Occupancy(ctx, nil, f.mondayID, date("2026-10-19"))
	require.NoError(t, err)
	assert.Equal(t, 0, o.Booked)
}

func TestScheduleChangeRepository_Integration_Duplicate(t *testing.T) {
	pool := requireDB(t)
	f := seed(t, pool)
	ctx := context.Background()
	reg := register(t, pool, f.studentIDs[0], f.mondayID, "2026-10-05")
	repo := NewScheduleChangeRepository(pool, zap.NewNop())

	change := entities.ScheduleChange{
		StudentID: f.studentIDs[0], RegistrationID: reg, OriginalScheduleID: f.mondayID, OriginalDate: date("2026-10-19"),
		TargetScheduleID: f.tuesdayID, TargetDate: date("2026-10-20"), Status: constants.ChangePending, UsesJoker: true,
		Reason: null.StringFrom("dentist"),
	}
	id, err := repo.Create(ctx, nil, change)
	require.NoError(t, err)

	exists, err := repo.ExistsLive(ctx, nil, reg, date("2026-10-19"))
	require.NoError(t, err)
	assert.True(t, exists)

	_, err = repo.Create(ctx, nil, change)
	assert.ErrorIs(t, err, apperrors.ErrDuplicateChange)

	require.NoError(t, repo.Reject(ctx, nil, id, "no", null.Uint64From(1), time.Now()))
	_, err = repo.Create(ctx, nil, change)
	assert.NoError(t, err, "a rejected change does not block a new request")

	list, total, err := repo.GetAll(ctx, types.Filter{Filter: map[string]interface{}{"status": "PENDING,REJECTED"}}, date("2026-10-01"))
	require.NoError(t, err)
	assert.Equal(t, uint64(2), total)
	assert.Len(t, list, 2)
}

func TestRegistrationRepository_Integration_Cancel(t *testing.T) {
	pool := requireDB(t)
	f := seed(t, pool)
	ctx := context.Background()
	repo := NewRegistrationRepository(pool, zap.NewNop())

	started := register(t, pool, f.studentIDs[0], f.mondayID, "2026-10-05")
	upcoming := register(t, pool, f.studentIDs[1], f.mondayID, "2026-10-19")

	tests := []struct {
		name    string
		id      uint64
		wantEnd string
	}{
		{"started registration ends today", started, "2026-10-14"},
		{"upcoming registration ends on its start date", upcoming, "2026-10-19"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, repo.Cancel(ctx, nil, tt.id, date("2026-10-14")))

			reg, err := repo.FindByID(ctx, nil, tt.id)
			require.NoError(t, err)
			assert.Equal(t, constants.RegistrationCancelled, reg.Status)
			require.True(t, reg.EndDate.Valid)
			assert.Equal(t, tt.wantEnd, reg.EndDate.Time.Format("2006-01-02"))

			assert.ErrorIs(t, repo.Cancel(ctx, nil, tt.id, date("2026-10-14")), apperrors.ErrRegistrationNotLive)
		})
	}

	occ, err := NewOccupancyRepository(pool).Occupancy(ctx, nil, f.mondayID, date("2026-10-19"))
	require.NoError(t, err)
	assert.Equal(t, 0, occ.Booked)
}

func TestScheduleChangeRepository_Integration_LiveTargets(t *testing.T) {
	pool := requireDB(t)
	f := seed(t, pool)
	ctx := context.Background()
	reg := register(t, pool, f.studentIDs[0], f.mondayID, "2026-10-05")
	repo := NewScheduleChangeRepository(pool, zap.NewNop())

	_, err := repo.Create(ctx, nil, entities.ScheduleChange{
		StudentID: f.studentIDs[0], RegistrationID: reg, OriginalScheduleID: f.mondayID, OriginalDate: date("2026-10-19"),
		TargetScheduleID: f.tuesdayID, TargetDate: date("2026-10-20"), Status: constants.ChangePending, UsesJoker: true,
	})
	require.NoError(t, err)

	inside, err := repo.HasLiveTargetBetween(ctx, nil, f.studentIDs[0], date("2026-10-20"), date("2026-10-20"))
	require.NoError(t, err)
	assert.True(t, inside)

	after, err := repo.HasLiveTargetBetween(ctx, nil, f.studentIDs[0], date("2026-10-21"), date("2026-10-31"))
	require.NoError(t, err)
	assert.False(t, after)

	other, err := repo.HasLiveTargetBetween(ctx, nil, f.studentIDs[1], date("2026-10-01"), date("2026-10-31"))
	require.NoError(t, err)
	assert.False(t, other)
}

func TestTxManager_Integration(t *testing.T) {
	pool := requireDB(t)
	f := seed(t, pool)
	ctx := context.Background()
	schedules := NewClassScheduleRepository(pool, zap.NewNop())
	tm := NewTxManager(pool, 100*time.Millisecond)

	t.Run("rolls back on error", func(t *testing.T) {
		err := tm.RunInTransaction(ctx, func(tx pgx.Tx) error {
			if _, err := tx.Exec(ctx, `UPDATE studios SET capacity = 9 WHERE id = $1`, f.studioID); err != nil {
				return err
			}
			return apperrors.ErrClassFull
		})
		assert.ErrorIs(t, err, apperrors.ErrClassFull)

		s, err := schedules.FindByID(ctx, nil, f.mondayID)
		require.NoError(t, err)
		assert.Equal(t, 2, s.Capacity())
	})

	t.Run("gives up on a held slot lock", func(t *testing.T) {
		holder, err := pool.Begin(ctx)
		require.NoError(t, err)
		defer holder.Rollback(ctx) //nolint:errcheck
		_, err = schedules.LockByID(ctx, holder, f.mondayID)
		require.NoError(t, err)

		err = tm.RunInTransaction(ctx, func(tx pgx.Tx) error {
			_, err := schedules.LockByID(ctx, tx, f.mondayID)
			return err
		})
		assert.ErrorIs(t, err, apperrors.ErrResourceBusy)
	})
}

func TestJokerRepository_Integration(t *testing.T) {
	pool := requireDB(t)
	f := seed(t, pool)
	ctx := context.Background()
	repo := NewJokerRepository(pool)
	period := date("2026-10-01")
	student := f.studentIDs[0]

	created, err := repo.Ensure(ctx, nil, student, period, 1)
	require.NoError(t, err)
	assert.True(t, created)
	created, err = repo.Ensure(ctx, nil, student, period, 3)
	require.NoError(t, err)
	assert.False(t, created)

	require.NoError(t, repo.Consume(ctx, nil, student, period))
	assert.ErrorIs(t, repo.Consume(ctx, nil, student, period), apperrors.ErrNoJokersLeft)

	refunded, err := repo.Refund(ctx, nil, student, period)
	require.NoError(t, err)
	assert.True(t, refunded)
	refunded, err = repo.Refund(ctx, nil, student, period)
	require.NoError(t, err)
	assert.False(t, refunded)

	b, err := repo.Find(ctx, nil, student, period)
	require.NoError(t, err)
	assert.Equal(t, 1, b.Allotted)
	assert.Equal(t, 0, b.Used)
}

func TestWaitlistRepository_Integration_FIFO(t *testing.T) {
	pool := requireDB(t)
	f := seed(t, pool)
	ctx := context.Background()
	changes := NewScheduleChangeRepository(pool, zap.NewNop())
	waitlist := NewWaitlistRepository(pool)
	classDate := date("2026-10-20")

	var changeIDs []uint64
	for _, student := range f.studentIDs[:2] {
		reg := register(t, pool, student, f.mondayID, "2026-10-05")
		id, err := changes.Create(ctx, nil, entities.ScheduleChange{
			StudentID: student, RegistrationID: reg, OriginalScheduleID: f.mondayID, OriginalDate: date("2026-10-19"),
			TargetScheduleID: f.tuesdayID, TargetDate: classDate, Status: constants.ChangePending, UsesJoker: true, Waitlisted: true,
		})
		require.NoError(t, err)
		_, err = waitlist.Create(ctx, nil, entities.WaitlistEntry{ScheduleChangeID: id, ClassScheduleID: f.tuesdayID, ClassDate: classDate})
		require.NoError(t, err)
		changeIDs = append(changeIDs, id)
	}

	err := pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
		head, err := waitlist.LockHead(ctx, tx, f.tuesdayID, classDate)
		if err != nil {
			return err
		}
		assert.Equal(t, changeIDs[0], head.ScheduleChangeID)
		return waitlist.SetStatus(ctx, tx, head.ID, constants.WaitlistPromoted)
	})
	require.NoError(t, err)

	waiting, err := waitlist.ListWaiting(ctx, nil, f.tuesdayID, classDate)
	require.NoError(t, err)
	require.Len(t, waiting, 1)
	assert.Equal(t, changeIDs[1], waiting[0].ScheduleChangeID)

	dates, err := waitlist.WaitingDates(ctx, nil, f.tuesdayID, date("2026-10-01"), date("2026-10-31"))
	require.NoError(t, err)
	assert.Equal(t, []time.Time{classDate}, dates)

	expired, err := waitlist.ExpireBefore(ctx, nil, date("2026-10-21"))
	require.NoError(t, err)
	assert.Equal(t, int64(1), expired)
}

func TestTravelFeeRepository_Integration_Balance(t *testing.T) {
	pool := requireDB(t)
	f := seed(t, pool)
	ctx := context.Background()
	repo := NewTravelFeeRepository(pool)
	student := f.studentIDs[0]

	for _, m := range []entities.TravelFeeMovement{
		{StudentID: student, Kind: constants.MovementCharge, Amount: mustDecimal("300")},
		{StudentID: student, Kind: constants.MovementPayment, Amount: mustDecimal("120.50")},
	} {
		_, err := repo.Create(ctx, nil, m)
		require.NoError(t, err)
	}

	balance, err := repo.Balance(ctx, nil, student)
	require.NoError(t, err)
	assert.Equal(t, "-179.5", balance.String())

	list, err := repo.ListByStudent(ctx, nil, student)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}
