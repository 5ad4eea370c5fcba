package services

import (
	"context"
	"fmt"
	"net/http"
	"path"
	"sort"
	"time"

	"github.com/aarondl/null/v8"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"studio-system/internal/entities"
	"studio-system/internal/repositories"
	"studio-system/pkg/constants"
	apperrors "studio-system/pkg/errors"
	"studio-system/pkg/types"
)

// memStore is an in-memory stand-in for the database. The fake repositories
// below share it, and fakeTxManager restores a snapshot when fn fails.
type memStore struct {
	studios       map[uint64]*entities.Studio
	instructors   map[uint64]*entities.Instructor
	students      map[uint64]*entities.Student
	schedules     map[uint64]*entities.ClassSchedule
	registrations map[uint64]*entities.StudentClassRegistration
	changes       map[uint64]*entities.ScheduleChange
	waitlist      map[uint64]*entities.WaitlistEntry
	jokers        map[jokerKey]*entities.JokerBalance
	leaves        map[uint64]*entities.TemporaryLeave
	movements     map[uint64]*entities.TravelFeeMovement

	seq    uint64
	clock  time.Time
	locked []uint64
}

type jokerKey struct {
	studentID uint64
	period    string
}

func newMemStore() *memStore {
	return &memStore{
		studios:       map[uint64]*entities.Studio{},
		instructors:   map[uint64]*entities.Instructor{},
		students:      map[uint64]*entities.Student{},
		schedules:     map[uint64]*entities.ClassSchedule{},
		registrations: map[uint64]*entities.StudentClassRegistration{},
		changes:       map[uint64]*entities.ScheduleChange{},
		waitlist:      map[uint64]*entities.WaitlistEntry{},
		jokers:        map[jokerKey]*entities.JokerBalance{},
		leaves:        map[uint64]*entities.TemporaryLeave{},
		movements:     map[uint64]*entities.TravelFeeMovement{},
		seq:           1000,
		clock:         time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC),
	}
}

func (m *memStore) nextID() uint64 {
	m.seq++
	return m.seq
}

// tick returns strictly increasing timestamps so FIFO order is stable.
func (m *memStore) tick() time.Time {
	m.clock = m.clock.Add(time.Second)
	return m.clock
}

func cloneMap[K comparable, V any](in map[K]*V) map[K]*V {
	out := make(map[K]*V, len(in))
	for k, v := range in {
		c := *v
		out[k] = &c
	}
	return out
}

func (m *memStore) clone() *memStore {
	c := *m
	c.studios = cloneMap(m.studios)
	c.instructors = cloneMap(m.instructors)
	c.students = cloneMap(m.students)
	c.schedules = cloneMap(m.schedules)
	c.registrations = cloneMap(m.registrations)
	c.changes = cloneMap(m.changes)
	c.waitlist = cloneMap(m.waitlist)
	c.jokers = cloneMap(m.jokers)
	c.leaves = cloneMap(m.leaves)
	c.movements = cloneMap(m.movements)
	return &c
}

func sortedKeys[V any](in map[uint64]*V) []uint64 {
	keys := make([]uint64, 0, len(in))
	for k := range in {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}

// filterMatches understands the student_id and status filters used by the
// services; values may be uint64 or comma separated strings.
func filterMatches(filter types.Filter, studentID uint64, status string) bool {
	if v, ok := filter.Filter["student_id"]; ok && fmt.Sprint(v) != fmt.Sprint(studentID) {
		return false
	}
	if v, ok := filter.Filter["status"]; ok {
		found := false
		for _, s := range splitComma(fmt.Sprint(v)) {
			if s == status {
				found = true
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func splitComma(s string) []string {
	var out []string
	start := 0
	for i := 0; i <= len(s); i++ {
		if i == len(s) || s[i] == ',' {
			out = append(out, s[start:i])
			start = i + 1
		}
	}
	return out
}

type fakeTxManager struct {
	store *memStore
	calls int
}

func (f *fakeTxManager) RunInTransaction(ctx context.Context, fn func(tx pgx.Tx) error) error {
	f.calls++
	snapshot := f.store.clone()
	if err := fn(nil); err != nil {
		*f.store = *snapshot
		return err
	}
	return nil
}

// --- class schedules ---

type fakeScheduleRepo struct{ store *memStore }

func (r *fakeScheduleRepo) withStudio(s *entities.ClassSchedule) *entities.ClassSchedule {
	c := *s
	if studio, ok := r.store.studios[s.StudioID]; ok {
		c.StudioName = studio.Name
		c.StudioCapacity = studio.Capacity
	}
	return &c
}

func (r *fakeScheduleRepo) FindByID(_ context.Context, _ pgx.Tx, id uint64) (*entities.ClassSchedule, error) {
	s, ok := r.store.schedules[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return r.withStudio(s), nil
}

func (r *fakeScheduleRepo) LockByID(ctx context.Context, tx pgx.Tx, id uint64) (*entities.ClassSchedule, error) {
	r.store.locked = append(r.store.locked, id)
	return r.FindByID(ctx, tx, id)
}

func (r *fakeScheduleRepo) GetAll(_ context.Context, filter types.Filter) ([]*entities.ClassSchedule, uint64, error) {
	var out []*entities.ClassSchedule
	for _, id := range sortedKeys(r.store.schedules) {
		out = append(out, r.withStudio(r.store.schedules[id]))
	}
	return out, uint64(len(out)), nil
}

func (r *fakeScheduleRepo) ListActiveByWeekday(_ context.Context, weekday int) ([]*entities.ClassSchedule, error) {
	var out []*entities.ClassSchedule
	for _, id := range sortedKeys(r.store.schedules) {
		s := r.store.schedules[id]
		if s.DayOfWeek == weekday && s.Status == constants.ScheduleActive {
			out = append(out, r.withStudio(s))
		}
	}
	return out, nil
}

func (r *fakeScheduleRepo) conflicts(s entities.ClassSchedule) bool {
	for _, other := range r.store.schedules {
		if other.ID != s.ID && other.StudioID == s.StudioID && other.DayOfWeek == s.DayOfWeek && other.StartTime == s.StartTime {
			return true
		}
	}
	return false
}

func (r *fakeScheduleRepo) Create(_ context.Context, _ pgx.Tx, s entities.ClassSchedule) (uint64, error) {
	if r.conflicts(s) {
		return 0, apperrors.ErrConflict
	}
	s.ID = r.store.nextID()
	s.CreatedAt = r.store.tick()
	s.UpdatedAt = s.CreatedAt
	r.store.schedules[s.ID] = &s
	return s.ID, nil
}

func (r *fakeScheduleRepo) Update(_ context.Context, _ pgx.Tx, s entities.ClassSchedule) error {
	if _, ok := r.store.schedules[s.ID]; !ok {
		return apperrors.ErrNotFound
	}
	if r.conflicts(s) {
		return apperrors.ErrConflict
	}
	s.UpdatedAt = r.store.tick()
	r.store.schedules[s.ID] = &s
	return nil
}

func (r *fakeScheduleRepo) Delete(_ context.Context, _ pgx.Tx, id uint64) error {
	if _, ok := r.store.schedules[id]; !ok {
		return apperrors.ErrNotFound
	}
	for _, reg := range r.store.registrations {
		if reg.ClassScheduleID == id {
			return apperrors.NewHttpError(http.StatusBadRequest, "The record cannot be deleted because it is in use", nil, nil)
		}
	}
	delete(r.store.schedules, id)
	return nil
}

// --- studio catalog ---

type fakeStudioRepo struct{ store *memStore }

func (r *fakeStudioRepo) FindStudio(_ context.Context, _ pgx.Tx, id uint64) (*entities.Studio, error) {
	if s, ok := r.store.studios[id]; ok {
		c := *s
		return &c, nil
	}
	return nil, apperrors.ErrNotFound
}

func (r *fakeStudioRepo) FindInstructor(_ context.Context, _ pgx.Tx, id uint64) (*entities.Instructor, error) {
	if i, ok := r.store.instructors[id]; ok {
		c := *i
		return &c, nil
	}
	return nil, apperrors.ErrNotFound
}

func (r *fakeStudioRepo) FindStudent(_ context.Context, _ pgx.Tx, id uint64) (*entities.Student, error) {
	if s, ok := r.store.students[id]; ok {
		c := *s
		return &c, nil
	}
	return nil, apperrors.ErrNotFound
}

func (r *fakeStudioRepo) ListEnrolledStudentIDs(_ context.Context, _ pgx.Tx) ([]uint64, error) {
	seen := map[uint64]bool{}
	var ids []uint64
	for _, reg := range r.store.registrations {
		if contains(constants.LiveRegistrationStatuses, reg.Status) && !seen[reg.StudentID] {
			seen[reg.StudentID] = true
			ids = append(ids, reg.StudentID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// --- registrations ---

type fakeRegistrationRepo struct{ store *memStore }

func (r *fakeRegistrationRepo) view(reg *entities.StudentClassRegistration) *entities.StudentClassRegistration {
	c := *reg
	if s, ok := r.store.schedules[reg.ClassScheduleID]; ok {
		c.DayOfWeek = s.DayOfWeek
		c.StartTime = s.StartTime
	}
	return &c
}

func (r *fakeRegistrationRepo) FindByID(_ context.Context, _ pgx.Tx, id uint64) (*entities.StudentClassRegistration, error) {
	reg, ok := r.store.registrations[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return r.view(reg), nil
}

func (r *fakeRegistrationRepo) GetAll(_ context.Context, filter types.Filter) ([]*entities.StudentClassRegistration, uint64, error) {
	var out []*entities.StudentClassRegistration
	for _, id := range sortedKeys(r.store.registrations) {
		reg := r.store.registrations[id]
		if filterMatches(filter, reg.StudentID, reg.Status) {
			out = append(out, r.view(reg))
		}
	}
	return out, uint64(len(out)), nil
}

func (r *fakeRegistrationRepo) ListLiveByStudent(_ context.Context, _ pgx.Tx, studentID uint64) ([]*entities.StudentClassRegistration, error) {
	var out []*entities.StudentClassRegistration
	for _, id := range sortedKeys(r.store.registrations) {
		reg := r.store.registrations[id]
		if reg.StudentID == studentID && contains(constants.LiveRegistrationStatuses, reg.Status) {
			out = append(out, r.view(reg))
		}
	}
	return out, nil
}

func (r *fakeRegistrationRepo) Create(_ context.Context, _ pgx.Tx, reg entities.StudentClassRegistration) (uint64, error) {
	for _, other := range r.store.registrations {
		if other.StudentID == reg.StudentID && other.ClassScheduleID == reg.ClassScheduleID && other.Status != constants.RegistrationCancelled {
			return 0, apperrors.ErrConflict
		}
	}
	reg.ID = r.store.nextID()
	reg.CreatedAt = r.store.tick()
	reg.UpdatedAt = reg.CreatedAt
	r.store.registrations[reg.ID] = &reg
	return reg.ID, nil
}

func (r *fakeRegistrationRepo) Cancel(_ context.Context, _ pgx.Tx, id uint64, endDate time.Time) error {
	reg, ok := r.store.registrations[id]
	if !ok || reg.Status == constants.RegistrationCancelled {
		return apperrors.ErrRegistrationNotLive
	}
	reg.Status = constants.RegistrationCancelled
	if endDate.Before(reg.StartDate) {
		endDate = reg.StartDate
	}
	reg.EndDate = null.TimeFrom(endDate)
	return nil
}

func (r *fakeRegistrationRepo) SwitchStatus(_ context.Context, _ pgx.Tx, studentID uint64, from, to string) (int64, error) {
	var n int64
	for _, reg := range r.store.registrations {
		if reg.StudentID == studentID && reg.Status == from {
			reg.Status = to
			n++
		}
	}
	return n, nil
}

func (r *fakeRegistrationRepo) CountWeeklyClasses(_ context.Context, _ pgx.Tx, studentID uint64) (int, error) {
	days := map[int]bool{}
	for _, reg := range r.store.registrations {
		if reg.StudentID == studentID && contains(constants.LiveRegistrationStatuses, reg.Status) {
			days[r.store.schedules[reg.ClassScheduleID].DayOfWeek] = true
		}
	}
	return len(days), nil
}

// --- occupancy ---

type fakeOccupancyRepo struct{ store *memStore }

func (r *fakeOccupancyRepo) onLeave(studentID uint64, date time.Time) bool {
	for _, l := range r.store.leaves {
		if l.StudentID == studentID && contains(constants.OpenLeaveStatuses, l.Status) && l.Covers(date) {
			return true
		}
	}
	return false
}

func (r *fakeOccupancyRepo) Occupancy(_ context.Context, _ pgx.Tx, scheduleID uint64, date time.Time) (repositories.Occupancy, error) {
	present := map[uint64]bool{}
	for _, reg := range r.store.registrations {
		if reg.ClassScheduleID == scheduleID && contains(constants.LiveRegistrationStatuses, reg.Status) &&
			reg.Covers(date) && !r.onLeave(reg.StudentID, date) {
			present[reg.ID] = true
		}
	}

	occ := repositories.Occupancy{Booked: len(present)}
	for _, c := range r.store.changes {
		holds := contains(constants.SeatHoldingChangeStatuses, c.Status)
		if holds && c.OriginalScheduleID == scheduleID && c.OriginalDate.Equal(date) && present[c.RegistrationID] {
			occ.Booked--
		}
		if c.TargetScheduleID == scheduleID && c.TargetDate.Equal(date) {
			if holds {
				occ.Booked++
			}
			if c.Status == constants.ChangePending && !c.Waitlisted {
				occ.Pending++
			}
		}
	}
	for _, e := range r.store.waitlist {
		if e.ClassScheduleID == scheduleID && e.ClassDate.Equal(date) && e.Status == constants.WaitlistWaiting {
			occ.Waitlisted++
		}
	}
	return occ, nil
}

// --- schedule changes ---

type fakeChangeRepo struct{ store *memStore }

func (r *fakeChangeRepo) FindByID(_ context.Context, _ pgx.Tx, id uint64) (*entities.ScheduleChange, error) {
	c, ok := r.store.changes[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *fakeChangeRepo) LockByID(ctx context.Context, tx pgx.Tx, id uint64) (*entities.ScheduleChange, error) {
	return r.FindByID(ctx, tx, id)
}

func (r *fakeChangeRepo) GetAll(_ context.Context, filter types.Filter, month time.Time) ([]*entities.ScheduleChange, uint64, error) {
	var out []*entities.ScheduleChange
	for _, id := range sortedKeys(r.store.changes) {
		c := r.store.changes[id]
		if !filterMatches(filter, c.StudentID, c.Status) {
			continue
		}
		if !month.IsZero() && (c.OriginalDate.Before(month) || !c.OriginalDate.Before(month.AddDate(0, 1, 0))) {
			continue
		}
		cp := *c
		out = append(out, &cp)
	}
	return out, uint64(len(out)), nil
}

func (r *fakeChangeRepo) ExistsLive(_ context.Context, _ pgx.Tx, registrationID uint64, originalDate time.Time) (bool, error) {
	for _, c := range r.store.changes {
		if c.RegistrationID == registrationID && c.OriginalDate.Equal(originalDate) && contains(constants.LiveChangeStatuses, c.Status) {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeChangeRepo) HasLiveTargetBetween(_ context.Context, _ pgx.Tx, studentID uint64, from, to time.Time) (bool, error) {
	for _, c := range r.store.changes {
		if c.StudentID == studentID && contains(constants.LiveChangeStatuses, c.Status) &&
			!c.TargetDate.Before(from) && !c.TargetDate.After(to) {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeChangeRepo) Create(ctx context.Context, tx pgx.Tx, c entities.ScheduleChange) (uint64, error) {
	if exists, _ := r.ExistsLive(ctx, tx, c.RegistrationID, c.OriginalDate); exists {
		return 0, apperrors.ErrDuplicateChange
	}
	c.ID = r.store.nextID()
	c.CreatedAt = r.store.tick()
	c.UpdatedAt = c.CreatedAt
	r.store.changes[c.ID] = &c
	return c.ID, nil
}

func (r *fakeChangeRepo) pending(id uint64) (*entities.ScheduleChange, error) {
	c, ok := r.store.changes[id]
	if !ok || c.Status != constants.ChangePending {
		return nil, apperrors.ErrInvalidTransition
	}
	return c, nil
}

func (r *fakeChangeRepo) Approve(_ context.Context, _ pgx.Tx, id, reviewerID uint64, at time.Time) error {
	c, err := r.pending(id)
	if err != nil {
		return err
	}
	c.Status = constants.ChangeApproved
	c.ReviewedBy = null.Uint64From(reviewerID)
	c.ReviewedAt = null.TimeFrom(at)
	return nil
}

func (r *fakeChangeRepo) Reject(_ context.Context, _ pgx.Tx, id uint64, reason string, reviewerID null.Uint64, at time.Time) error {
	c, err := r.pending(id)
	if err != nil {
		return err
	}
	c.Status = constants.ChangeRejected
	c.RejectionReason = null.StringFrom(reason)
	c.ReviewedBy = reviewerID
	c.ReviewedAt = null.TimeFrom(at)
	c.Waitlisted = false
	return nil
}

func (r *fakeChangeRepo) SetWaitlisted(_ context.Context, _ pgx.Tx, id uint64, waitlisted bool) error {
	c, ok := r.store.changes[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	c.Waitlisted = waitlisted
	return nil
}

func (r *fakeChangeRepo) CompleteApprovedBefore(_ context.Context, _ pgx.Tx, date, at time.Time) (int64, error) {
	var n int64
	for _, c := range r.store.changes {
		if c.Status == constants.ChangeApproved && c.TargetDate.Before(date) {
			c.Status = constants.ChangeCompleted
			c.CompletedAt = null.TimeFrom(at)
			n++
		}
	}
	return n, nil
}

func (r *fakeChangeRepo) list(match func(c *entities.ScheduleChange) bool) []*entities.ScheduleChange {
	var out []*entities.ScheduleChange
	for _, id := range sortedKeys(r.store.changes) {
		if c := r.store.changes[id]; match(c) {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out
}

func (r *fakeChangeRepo) ListPendingBefore(_ context.Context, _ pgx.Tx, date time.Time) ([]*entities.ScheduleChange, error) {
	return r.list(func(c *entities.ScheduleChange) bool {
		return c.Status == constants.ChangePending && c.TargetDate.Before(date)
	}), nil
}

func (r *fakeChangeRepo) ListPendingByRegistration(_ context.Context, _ pgx.Tx, registrationID uint64) ([]*entities.ScheduleChange, error) {
	return r.list(func(c *entities.ScheduleChange) bool {
		return c.Status == constants.ChangePending && c.RegistrationID == registrationID
	}), nil
}

// --- waitlist ---

type fakeWaitlistRepo struct{ store *memStore }

func (r *fakeWaitlistRepo) view(e *entities.WaitlistEntry) *entities.WaitlistEntry {
	c := *e
	if change, ok := r.store.changes[e.ScheduleChangeID]; ok {
		c.StudentID = change.StudentID
	}
	return &c
}

func (r *fakeWaitlistRepo) Create(_ context.Context, _ pgx.Tx, e entities.WaitlistEntry) (uint64, error) {
	e.ID = r.store.nextID()
	if e.Status == "" {
		e.Status = constants.WaitlistWaiting
	}
	e.CreatedAt = r.store.tick()
	e.UpdatedAt = e.CreatedAt
	r.store.waitlist[e.ID] = &e
	return e.ID, nil
}

func (r *fakeWaitlistRepo) ListWaiting(_ context.Context, _ pgx.Tx, scheduleID uint64, date time.Time) ([]*entities.WaitlistEntry, error) {
	var out []*entities.WaitlistEntry
	for _, e := range r.store.waitlist {
		if e.ClassScheduleID == scheduleID && e.ClassDate.Equal(date) && e.Status == constants.WaitlistWaiting {
			out = append(out, r.view(e))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *fakeWaitlistRepo) LockHead(ctx context.Context, tx pgx.Tx, scheduleID uint64, date time.Time) (*entities.WaitlistEntry, error) {
	list, _ := r.ListWaiting(ctx, tx, scheduleID, date)
	if len(list) == 0 {
		return nil, apperrors.ErrNotFound
	}
	return list[0], nil
}

func (r *fakeWaitlistRepo) WaitingDates(_ context.Context, _ pgx.Tx, scheduleID uint64, from, to time.Time) ([]time.Time, error) {
	seen := map[time.Time]bool{}
	var out []time.Time
	for _, e := range r.store.waitlist {
		if e.ClassScheduleID == scheduleID && e.Status == constants.WaitlistWaiting &&
			!e.ClassDate.Before(from) && !e.ClassDate.After(to) && !seen[e.ClassDate] {
			seen[e.ClassDate] = true
			out = append(out, e.ClassDate)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out, nil
}

func (r *fakeWaitlistRepo) SetStatus(_ context.Context, _ pgx.Tx, id uint64, status string) error {
	e, ok := r.store.waitlist[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	e.Status = status
	return nil
}

func (r *fakeWaitlistRepo) SetStatusByChange(_ context.Context, _ pgx.Tx, changeID uint64, from, to string) (int64, error) {
	var n int64
	for _, e := range r.store.waitlist {
		if e.ScheduleChangeID == changeID && e.Status == from {
			e.Status = to
			n++
		}
	}
	return n, nil
}

func (r *fakeWaitlistRepo) ExpireBefore(_ context.Context, _ pgx.Tx, date time.Time) (int64, error) {
	var n int64
	for _, e := range r.store.waitlist {
		if e.Status == constants.WaitlistWaiting && e.ClassDate.Before(date) {
			e.Status = constants.WaitlistExpired
			n++
		}
	}
	return n, nil
}

// --- jokers ---

type fakeJokerRepo struct{ store *memStore }

func keyOf(studentID uint64, period time.Time) jokerKey {
	return jokerKey{studentID: studentID, period: period.Format("2006-01")}
}

func (r *fakeJokerRepo) Find(_ context.Context, _ pgx.Tx, studentID uint64, period time.Time) (*entities.JokerBalance, error) {
	b, ok := r.store.jokers[keyOf(studentID, period)]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	c := *b
	return &c, nil
}

func (r *fakeJokerRepo) Ensure(_ context.Context, _ pgx.Tx, studentID uint64, period time.Time, allotted int) (bool, error) {
	k := keyOf(studentID, period)
	if _, ok := r.store.jokers[k]; ok {
		return false, nil
	}
	r.store.jokers[k] = &entities.JokerBalance{ID: r.store.nextID(), StudentID: studentID, Period: period, Allotted: allotted}
	return true, nil
}

func (r *fakeJokerRepo) Consume(_ context.Context, _ pgx.Tx, studentID uint64, period time.Time) error {
	b, ok := r.store.jokers[keyOf(studentID, period)]
	if !ok || b.Used >= b.Allotted {
		return apperrors.ErrNoJokersLeft
	}
	b.Used++
	return nil
}

func (r *fakeJokerRepo) Refund(_ context.Context, _ pgx.Tx, studentID uint64, period time.Time) (bool, error) {
	b, ok := r.store.jokers[keyOf(studentID, period)]
	if !ok || b.Used == 0 {
		return false, nil
	}
	b.Used--
	return true, nil
}

// --- leaves ---

type fakeLeaveRepo struct{ store *memStore }

func (r *fakeLeaveRepo) FindByID(_ context.Context, _ pgx.Tx, id uint64) (*entities.TemporaryLeave, error) {
	l, ok := r.store.leaves[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	c := *l
	return &c, nil
}

func (r *fakeLeaveRepo) LockByID(ctx context.Context, tx pgx.Tx, id uint64) (*entities.TemporaryLeave, error) {
	return r.FindByID(ctx, tx, id)
}

func (r *fakeLeaveRepo) GetAll(_ context.Context, filter types.Filter) ([]*entities.TemporaryLeave, uint64, error) {
	var out []*entities.TemporaryLeave
	for _, id := range sortedKeys(r.store.leaves) {
		l := r.store.leaves[id]
		if filterMatches(filter, l.StudentID, l.Status) {
			c := *l
			out = append(out, &c)
		}
	}
	return out, uint64(len(out)), nil
}

func (r *fakeLeaveRepo) Create(_ context.Context, _ pgx.Tx, l entities.TemporaryLeave) (uint64, error) {
	l.ID = r.store.nextID()
	l.CreatedAt = r.store.tick()
	l.UpdatedAt = l.CreatedAt
	r.store.leaves[l.ID] = &l
	return l.ID, nil
}

func (r *fakeLeaveRepo) SetStatus(_ context.Context, _ pgx.Tx, id uint64, from, to string) error {
	l, ok := r.store.leaves[id]
	if !ok || l.Status != from {
		return apperrors.ErrInvalidTransition
	}
	l.Status = to
	return nil
}

func (r *fakeLeaveRepo) any(match func(l *entities.TemporaryLeave) bool) bool {
	for _, l := range r.store.leaves {
		if match(l) {
			return true
		}
	}
	return false
}

func (r *fakeLeaveRepo) HasOverlap(_ context.Context, _ pgx.Tx, studentID uint64, start, end time.Time) (bool, error) {
	return r.any(func(l *entities.TemporaryLeave) bool {
		return l.StudentID == studentID && contains(constants.OpenLeaveStatuses, l.Status) &&
			!l.StartDate.After(end) && !l.EndDate.Before(start)
	}), nil
}

func (r *fakeLeaveRepo) IsOnLeave(_ context.Context, _ pgx.Tx, studentID uint64, date time.Time) (bool, error) {
	return r.any(func(l *entities.TemporaryLeave) bool {
		return l.StudentID == studentID && contains(constants.OpenLeaveStatuses, l.Status) && l.Covers(date)
	}), nil
}

func (r *fakeLeaveRepo) HasActive(_ context.Context, _ pgx.Tx, studentID uint64) (bool, error) {
	return r.any(func(l *entities.TemporaryLeave) bool {
		return l.StudentID == studentID && l.Status == constants.LeaveActive
	}), nil
}

func (r *fakeLeaveRepo) listWhere(match func(l *entities.TemporaryLeave) bool) []*entities.TemporaryLeave {
	var out []*entities.TemporaryLeave
	for _, id := range sortedKeys(r.store.leaves) {
		if l := r.store.leaves[id]; match(l) {
			c := *l
			out = append(out, &c)
		}
	}
	return out
}

func (r *fakeLeaveRepo) ListDueToStart(_ context.Context, _ pgx.Tx, today time.Time) ([]*entities.TemporaryLeave, error) {
	return r.listWhere(func(l *entities.TemporaryLeave) bool {
		return l.Status == constants.LeaveScheduled && !l.StartDate.After(today)
	}), nil
}

func (r *fakeLeaveRepo) ListFinished(_ context.Context, _ pgx.Tx, today time.Time) ([]*entities.TemporaryLeave, error) {
	return r.listWhere(func(l *entities.TemporaryLeave) bool {
		return l.Status == constants.LeaveActive && l.EndDate.Before(today)
	}), nil
}

// --- travel fees ---

type fakeTravelFeeRepo struct{ store *memStore }

func (r *fakeTravelFeeRepo) Create(_ context.Context, _ pgx.Tx, m entities.TravelFeeMovement) (uint64, error) {
	if !m.Amount.IsPositive() {
		return 0, apperrors.NewHttpError(http.StatusBadRequest, "The data violates a database rule", nil, nil)
	}
	m.ID = r.store.nextID()
	m.CreatedAt = r.store.tick()
	r.store.movements[m.ID] = &m
	return m.ID, nil
}

func (r *fakeTravelFeeRepo) ListByStudent(_ context.Context, _ pgx.Tx, studentID uint64) ([]*entities.TravelFeeMovement, error) {
	var out []*entities.TravelFeeMovement
	for _, id := range sortedKeys(r.store.movements) {
		if m := r.store.movements[id]; m.StudentID == studentID {
			c := *m
			out = append(out, &c)
		}
	}
	return out, nil
}

func (r *fakeTravelFeeRepo) Balance(_ context.Context, _ pgx.Tx, studentID uint64) (decimal.Decimal, error) {
	balance := decimal.Zero
	for _, m := range r.store.movements {
		if m.StudentID != studentID {
			continue
		}
		if m.Kind == constants.MovementCharge {
			balance = balance.Sub(m.Amount)
		} else {
			balance = balance.Add(m.Amount)
		}
	}
	return balance, nil
}

func (r *fakeTravelFeeRepo) FindChargeByLeave(_ context.Context, _ pgx.Tx, leaveID uint64) (*entities.TravelFeeMovement, error) {
	for _, id := range sortedKeys(r.store.movements) {
		m := r.store.movements[id]
		if m.Kind == constants.MovementCharge && m.LeaveID.Valid && m.LeaveID.Uint64 == leaveID {
			c := *m
			return &c, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

// --- cache ---

type fakeCache struct {
	data map[string]string
	sets int
}

func newFakeCache() *fakeCache { return &fakeCache{data: map[string]string{}} }

func (c *fakeCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	c.sets++
	switch v := value.(type) {
	case []byte:
		c.data[key] = string(v)
	default:
		c.data[key] = fmt.Sprint(v)
	}
	return nil
}

func (c *fakeCache) Get(_ context.Context, key string) (string, error) {
	v, ok := c.data[key]
	if !ok {
		return "", repositories.ErrCacheMiss
	}
	return v, nil
}

func (c *fakeCache) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(c.data, k)
	}
	return nil
}

func (c *fakeCache) DelPattern(_ context.Context, pattern string) (int, error) {
	n := 0
	for k := range c.data {
		if ok, _ := path.Match(pattern, k); ok {
			delete(c.data, k)
			n++
		}
	}
	return n, nil
}
