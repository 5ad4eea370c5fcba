package services

import (
	"testing"

	"github.com/aarondl/null/v8"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studio-system/internal/dto"
	"studio-system/internal/entities"
	"studio-system/pkg/constants"
	apperrors "studio-system/pkg/errors"
)

func TestTravelFee(t *testing.T) {
	tests := []struct {
		name       string
		perWeek    string
		start, end string
		want       string
	}{
		{"single day", "150", "2026-10-19", "2026-10-19", "150"},
		{"one full week", "150", "2026-10-19", "2026-10-25", "150"},
		{"eight days", "150", "2026-10-19", "2026-10-26", "300"},
		{"four weeks", "150", "2026-11-02", "2026-11-29", "600"},
		{"rounded to cents", "33.333", "2026-10-19", "2026-11-01", "66.67"},
		{"no fee configured", "0", "2026-10-19", "2026-10-26", "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			leave := entities.TemporaryLeave{StartDate: day(tt.start), EndDate: day(tt.end)}
			got := TravelFee(decimal.RequireFromString(tt.perWeek), leave)
			assert.True(t, decimal.RequireFromString(tt.want).Equal(got), "got %s", got)
		})
	}
}

func TestLeave_CreateChargesTravelFee(t *testing.T) {
	f := newFixture(t)
	reg := f.register(ana, mondaySlot)
	svc := f.leaveService()

	out, err := svc.Create(studentCtx(ana), dto.CreateLeaveDTO{StartDate: "2026-10-19", EndDate: "2026-10-26", Reason: null.StringFrom("family visit")})
	require.NoError(t, err)
	assert.Equal(t, constants.LeaveScheduled, out.Status)
	assert.Equal(t, 2, out.Weeks)
	require.NotNil(t, out.TravelFee)
	assert.Equal(t, "300.00", out.TravelFee.StringFixed(2))

	balance, err := f.travelFees.Balance(staffCtx(), nil, ana)
	require.NoError(t, err)
	assert.Equal(t, "-300", balance.String())
	assert.Equal(t, constants.RegistrationActive, f.store.registrations[reg].Status)
}

func TestLeave_CreateRejectsOverlapAndBadRanges(t *testing.T) {
	f := newFixture(t)
	svc := f.leaveService()

	_, err := svc.Create(staffCtx(), dto.CreateLeaveDTO{StudentID: ana, StartDate: "2026-10-19", EndDate: "2026-10-26"})
	require.NoError(t, err)

	_, err = svc.Create(staffCtx(), dto.CreateLeaveDTO{StudentID: ana, StartDate: "2026-10-26", EndDate: "2026-11-02"})
	assert.ErrorIs(t, err, apperrors.ErrLeaveOverlap)
	assert.Len(t, f.store.leaves, 1)
	assert.Len(t, f.store.movements, 1, "the rejected leave leaves no charge behind")

	_, err = svc.Create(staffCtx(), dto.CreateLeaveDTO{StudentID: ana, StartDate: "2026-11-10", EndDate: "2026-11-09"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidRange)

	_, err = svc.Create(staffCtx(), dto.CreateLeaveDTO{StudentID: ana, StartDate: "2026-10-01", EndDate: "2026-10-20"})
	assert.ErrorIs(t, err, apperrors.ErrDateInPast)

	// back to back is not an overlap
	_, err = svc.Create(staffCtx(), dto.CreateLeaveDTO{StudentID: ana, StartDate: "2026-10-27", EndDate: "2026-10-30"})
	assert.NoError(t, err)
}

func TestLeave_StartingTodayPausesRegistrations(t *testing.T) {
	f := newFixture(t)
	monday := f.register(ana, mondaySlot)
	tuesday := f.register(ana, tuesdaySlot)

	out, err := f.leaveService().Create(studentCtx(ana), dto.CreateLeaveDTO{StartDate: "2026-10-14", EndDate: "2026-10-20"})
	require.NoError(t, err)
	assert.Equal(t, constants.LeaveActive, out.Status)
	assert.Equal(t, constants.RegistrationOnLeave, f.store.registrations[monday].Status)
	assert.Equal(t, constants.RegistrationOnLeave, f.store.registrations[tuesday].Status)
}

func TestLeave_CreatePromotesWaitlist(t *testing.T) {
	f := newFixture(t)
	f.register(ana, mondaySlot)
	f.register(luis, mondaySlot)
	martaReg := f.register(marta, tuesdaySlot)

	waiting, err := f.changeService().Create(studentCtx(marta), moveRequest(martaReg, "2026-10-27", mondaySlot, "2026-10-26"))
	require.NoError(t, err)
	require.True(t, waiting.Waitlisted)

	_, err = f.leaveService().Create(studentCtx(ana), dto.CreateLeaveDTO{StartDate: "2026-10-25", EndDate: "2026-10-31"})
	require.NoError(t, err)
	assert.False(t, f.change(waiting.ID).Waitlisted)
}

func TestLeave_CancelReversesCharge(t *testing.T) {
	f := newFixture(t)
	svc := f.leaveService()

	created, err := svc.Create(studentCtx(ana), dto.CreateLeaveDTO{StartDate: "2026-10-19", EndDate: "2026-10-21"})
	require.NoError(t, err)

	out, err := svc.Cancel(studentCtx(ana), created.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.LeaveCancelled, out.Status)

	balance, err := f.travelFees.Balance(staffCtx(), nil, ana)
	require.NoError(t, err)
	assert.True(t, balance.IsZero())

	_, err = svc.Cancel(studentCtx(ana), created.ID)
	assert.ErrorIs(t, err, apperrors.ErrInvalidTransition)
}

func TestLeave_CancelOnlyScheduled(t *testing.T) {
	f := newFixture(t)
	id := f.addLeave(ana, "2026-10-10", "2026-10-20", constants.LeaveActive)

	_, err := f.leaveService().Cancel(staffCtx(), id)
	assert.ErrorIs(t, err, apperrors.ErrInvalidTransition)

	_, err = f.leaveService().Cancel(studentCtx(luis), id)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestLeave_CancelRefusedWhenFreedSeatWasTaken(t *testing.T) {
	tests := []struct {
		name    string
		approve bool
	}{
		{"promoted request still pending", false},
		{"promoted request approved", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.register(ana, mondaySlot)
			f.register(luis, mondaySlot)
			martaReg := f.register(marta, tuesdaySlot)
			leaves := f.leaveService()
			changes := f.changeService()

			waiting, err := changes.Create(studentCtx(marta), moveRequest(martaReg, "2026-10-20", mondaySlot, "2026-10-19"))
			require.NoError(t, err)
			require.True(t, waiting.Waitlisted)

			leave, err := leaves.Create(studentCtx(ana), dto.CreateLeaveDTO{StartDate: "2026-10-19", EndDate: "2026-10-19"})
			require.NoError(t, err)
			require.False(t, f.change(waiting.ID).Waitlisted)
			if tt.approve {
				_, err = changes.Approve(staffCtx(), waiting.ID)
				require.NoError(t, err)
			}

			_, err = leaves.Cancel(studentCtx(ana), leave.ID)
			assert.ErrorIs(t, err, apperrors.ErrClassFull)
			assert.Equal(t, constants.LeaveScheduled, f.store.leaves[leave.ID].Status)

			occ, err := f.occupancy.Occupancy(staffCtx(), nil, mondaySlot, day("2026-10-19"))
			require.NoError(t, err)
			assert.LessOrEqual(t, occ.Booked+occ.Pending, 2)

			balance, err := f.travelFees.Balance(staffCtx(), nil, ana)
			require.NoError(t, err)
			assert.Equal(t, "-150", balance.String(), "the charge stays when the cancel is refused")
		})
	}
}

func TestLeave_CancelWithSeatStillFree(t *testing.T) {
	f := newFixture(t)
	f.register(ana, mondaySlot)
	f.register(luis, mondaySlot)
	svc := f.leaveService()

	leave, err := svc.Create(studentCtx(ana), dto.CreateLeaveDTO{StartDate: "2026-10-19", EndDate: "2026-10-27"})
	require.NoError(t, err)

	_, err = svc.Cancel(studentCtx(ana), leave.ID)
	require.NoError(t, err)

	for _, d := range []string{"2026-10-19", "2026-10-26"} {
		occ, err := f.occupancy.Occupancy(staffCtx(), nil, mondaySlot, day(d))
		require.NoError(t, err)
		assert.Equal(t, 2, occ.Booked, d)
	}
	assert.Contains(t, f.store.locked, mondaySlot)
}

func TestLeave_CreateRejectsMovesInsideLeave(t *testing.T) {
	f := newFixture(t)
	f.register(ana, mondaySlot)
	martaReg := f.register(marta, tuesdaySlot)

	moved, err := f.changeService().Create(studentCtx(marta), moveRequest(martaReg, "2026-10-20", mondaySlot, "2026-10-19"))
	require.NoError(t, err)
	require.False(t, moved.Waitlisted)

	_, err = f.leaveService().Create(studentCtx(marta), dto.CreateLeaveDTO{StartDate: "2026-10-19", EndDate: "2026-10-19"})
	assert.ErrorIs(t, err, apperrors.ErrLeaveHasChanges)
	assert.Empty(t, f.store.leaves)
	assert.Empty(t, f.store.movements)

	// dates after the move are fine
	_, err = f.leaveService().Create(studentCtx(marta), dto.CreateLeaveDTO{StartDate: "2026-10-21", EndDate: "2026-10-25"})
	assert.NoError(t, err)
}
