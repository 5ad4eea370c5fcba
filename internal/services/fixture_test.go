package services

import (
	"context"
	"testing"
	"time"

	"github.com/aarondl/null/v8"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"studio-system/internal/authz"
	"studio-system/internal/entities"
	"studio-system/pkg/config"
	"studio-system/pkg/constants"
	"studio-system/pkg/eventbus"
	"studio-system/pkg/utils"
)

const (
	mondaySlot   uint64 = 10
	tuesdaySlot  uint64 = 11
	inactiveSlot uint64 = 12

	ana   uint64 = 100
	luis  uint64 = 101
	marta uint64 = 102
	sofia uint64 = 103
)

func day(s string) time.Time {
	d, err := utils.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func permSet(list ...string) map[string]bool {
	m := make(map[string]bool, len(list))
	for _, p := range list {
		m[p] = true
	}
	return m
}

func staffCtx() context.Context {
	return utils.WithActor(context.Background(), 1, 0, permSet(
		authz.ScopeAll,
		authz.ClassSchedulesView, authz.ClassSchedulesCreate, authz.ClassSchedulesUpdate, authz.ClassSchedulesDelete,
		authz.RegistrationsView, authz.RegistrationsCreate, authz.RegistrationsDelete,
		authz.ScheduleChangesView, authz.ScheduleChangesCreate, authz.ScheduleChangesReview,
		authz.LeavesView, authz.LeavesCreate, authz.LeavesDelete,
		authz.TravelFeesView, authz.TravelFeesPayment,
		authz.JokersView, authz.ReportsView,
	))
}

func studentCtx(studentID uint64) context.Context {
	return utils.WithActor(context.Background(), 500+studentID, studentID, permSet(
		authz.ScopeOwn,
		authz.ClassSchedulesView,
		authz.RegistrationsView, authz.RegistrationsCreate, authz.RegistrationsDelete,
		authz.ScheduleChangesView, authz.ScheduleChangesCreate,
		authz.LeavesView, authz.LeavesCreate, authz.LeavesDelete,
		authz.TravelFeesView, authz.JokersView, authz.ReportsView,
	))
}

// fixture is a small studio: a Monday and a Tuesday 08:00 class in a room
// of two seats, an inactive Monday evening class and four students.
// The clock reads Wednesday 2026-10-14 10:00 UTC unless a test moves it.
type fixture struct {
	t     *testing.T
	store *memStore
	now   time.Time
	cache *fakeCache
	tx    *fakeTxManager

	schedules     *fakeScheduleRepo
	studios       *fakeStudioRepo
	registrations *fakeRegistrationRepo
	occupancy     *fakeOccupancyRepo
	changes       *fakeChangeRepo
	waitlist      *fakeWaitlistRepo
	jokerRepo     *fakeJokerRepo
	leaves        *fakeLeaveRepo
	travelFees    *fakeTravelFeeRepo

	booking  config.BookingConfig
	calendar Calendar
	bus      *eventbus.Bus
	logger   *zap.Logger
	promoter *WaitlistPromoter
	jokers   *JokerService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := newMemStore()
	f := &fixture{
		t:             t,
		store:         store,
		now:           time.Date(2026, 10, 14, 10, 0, 0, 0, time.UTC),
		cache:         newFakeCache(),
		tx:            &fakeTxManager{store: store},
		schedules:     &fakeScheduleRepo{store: store},
		studios:       &fakeStudioRepo{store: store},
		registrations: &fakeRegistrationRepo{store: store},
		occupancy:     &fakeOccupancyRepo{store: store},
		changes:       &fakeChangeRepo{store: store},
		waitlist:      &fakeWaitlistRepo{store: store},
		jokerRepo:     &fakeJokerRepo{store: store},
		leaves:        &fakeLeaveRepo{store: store},
		travelFees:    &fakeTravelFeeRepo{store: store},
		booking: config.BookingConfig{
			MinNoticeHours:      2,
			MaxAvailabilityDays: 62,
			TravelFeePerWeek:    decimal.NewFromInt(150),
			Currency:            "MXN",
		},
		logger: zap.NewNop(),
	}
	f.calendar = Calendar{Now: func() time.Time { return f.now }, Location: time.UTC}
	f.bus = eventbus.New(f.logger)
	f.promoter = NewWaitlistPromoter(f.schedules, f.occupancy, f.waitlist, f.changes, f.logger)
	f.jokers = NewJokerService(NewBaseService(f.cache, time.Minute, f.logger),
		f.jokerRepo, f.registrations, f.studios, f.tx, f.bus, f.calendar, f.logger)

	store.studios[1] = &entities.Studio{ID: 1, Name: "Main room", Capacity: 2}
	store.studios[2] = &entities.Studio{ID: 2, Name: "Small room", Capacity: 5}
	store.instructors[7] = &entities.Instructor{ID: 7, FullName: "Elena Ruiz"}
	store.schedules[mondaySlot] = &entities.ClassSchedule{ID: mondaySlot, StudioID: 1, DayOfWeek: 1, StartTime: "08:00", EndTime: "09:00", Status: constants.ScheduleActive}
	store.schedules[tuesdaySlot] = &entities.ClassSchedule{ID: tuesdaySlot, StudioID: 1, DayOfWeek: 2, StartTime: "08:00", EndTime: "09:00", Status: constants.ScheduleActive}
	store.schedules[inactiveSlot] = &entities.ClassSchedule{ID: inactiveSlot, StudioID: 2, DayOfWeek: 1, StartTime: "18:00", EndTime: "19:00", Status: constants.ScheduleInactive}
	for id, name := range map[uint64]string{ana: "Ana", luis: "Luis", marta: "Marta", sofia: "Sofia"} {
		store.students[id] = &entities.Student{ID: id, FullName: name, Status: "ACTIVE"}
	}
	return f
}

func (f *fixture) repos() ScheduleChangeRepos {
	return ScheduleChangeRepos{
		Changes:       f.changes,
		Registrations: f.registrations,
		Schedules:     f.schedules,
		Leaves:        f.leaves,
		Waitlist:      f.waitlist,
		Occupancy:     f.occupancy,
		Jokers:        f.jokerRepo,
	}
}

func (f *fixture) changeService() ScheduleChangeServiceInterface {
	return NewScheduleChangeService(f.repos(), f.jokers, f.promoter, f.tx, f.bus, f.booking, f.calendar, f.logger)
}

func (f *fixture) registrationService() RegistrationServiceInterface {
	return NewRegistrationService(f.repos(), f.studios, f.promoter, f.tx, f.bus, f.calendar, f.logger)
}

func (f *fixture) leaveService() LeaveServiceInterface {
	return NewLeaveService(f.repos(), f.travelFees, f.studios, f.promoter, f.tx, f.bus, f.booking, f.calendar, f.logger)
}

// register enrolls a student directly in the store, starting early October.
func (f *fixture) register(studentID, scheduleID uint64) uint64 {
	start := day("2026-10-05")
	if f.store.schedules[scheduleID].DayOfWeek == 2 {
		start = day("2026-10-06")
	}
	id := f.store.nextID()
	f.store.registrations[id] = &entities.StudentClassRegistration{
		ID: id, StudentID: studentID, ClassScheduleID: scheduleID, StartDate: start, Status: constants.RegistrationActive,
	}
	return id
}

func (f *fixture) addLeave(studentID uint64, start, end, status string) uint64 {
	id := f.store.nextID()
	f.store.leaves[id] = &entities.TemporaryLeave{
		ID: id, StudentID: studentID, StartDate: day(start), EndDate: day(end), Status: status,
		Reason: null.StringFrom("travel"),
	}
	return id
}

func (f *fixture) change(id uint64) *entities.ScheduleChange {
	f.t.Helper()
	c, ok := f.store.changes[id]
	if !ok {
		f.t.Fatalf("schedule change %d not found", id)
	}
	return c
}

func (f *fixture) jokerBalance(studentID uint64, month string) *entities.JokerBalance {
	return f.store.jokers[jokerKey{studentID: studentID, period: month}]
}
