package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/aarondl/null/v8"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"studio-system/internal/authz"
	"studio-system/internal/dto"
	"studio-system/internal/entities"
	"studio-system/internal/events"
	"studio-system/internal/repositories"
	"studio-system/pkg/config"
	"studio-system/pkg/constants"
	apperrors "studio-system/pkg/errors"
	"studio-system/pkg/eventbus"
	"studio-system/pkg/types"
	"studio-system/pkg/utils"
)

type LeaveServiceInterface interface {
	Create(ctx context.Context, payload dto.CreateLeaveDTO) (*dto.LeaveResponseDTO, error)
	Cancel(ctx context.Context, id uint64) (*dto.LeaveResponseDTO, error)
	GetByID(ctx context.Context, id uint64) (*dto.LeaveResponseDTO, error)
	GetAll(ctx context.Context, filter types.Filter) ([]dto.LeaveResponseDTO, uint64, error)
}

type LeaveService struct {
	repos         ScheduleChangeRepos
	travelFeeRepo repositories.TravelFeeRepositoryInterface
	studioRepo    repositories.StudioRepositoryInterface
	promoter      *WaitlistPromoter
	txManager     repositories.TxManagerInterface
	bus           *eventbus.Bus
	booking       config.BookingConfig
	calendar      Calendar
	logger        *zap.Logger
}

func NewLeaveService(
	repos ScheduleChangeRepos,
	travelFeeRepo repositories.TravelFeeRepositoryInterface,
	studioRepo repositories.StudioRepositoryInterface,
	promoter *WaitlistPromoter,
	txManager repositories.TxManagerInterface,
	bus *eventbus.Bus,
	booking config.BookingConfig,
	calendar Calendar,
	logger *zap.Logger,
) LeaveServiceInterface {
	return &LeaveService{
		repos:         repos,
		travelFeeRepo: travelFeeRepo,
		studioRepo:    studioRepo,
		promoter:      promoter,
		txManager:     txManager,
		bus:           bus,
		booking:       booking,
		calendar:      calendar,
		logger:        logger,
	}
}

// TravelFee is the seat-hold fee of a leave: the weekly fee per started week.
func TravelFee(perWeek decimal.Decimal, leave entities.TemporaryLeave) decimal.Decimal {
	return perWeek.Mul(decimal.NewFromInt(int64(leave.Weeks()))).Round(2)
}

func (s *LeaveService) Create(ctx context.Context, payload dto.CreateLeaveDTO) (*dto.LeaveResponseDTO, error) {
	authContext, err := authorize(ctx, authz.LeavesCreate, nil)
	if err != nil {
		return nil, err
	}
	studentID, err := resolveStudentID(authContext, payload.StudentID)
	if err != nil {
		return nil, err
	}
	startDate, err := parseRequestDate("start_date", payload.StartDate)
	if err != nil {
		return nil, err
	}
	endDate, err := parseRequestDate("end_date", payload.EndDate)
	if err != nil {
		return nil, err
	}
	today := s.calendar.Today()
	if startDate.Before(today) {
		return nil, apperrors.ErrDateInPast
	}
	if endDate.Before(startDate) {
		return nil, apperrors.ErrInvalidRange
	}
	if _, err := s.studioRepo.FindStudent(ctx, nil, studentID); err != nil {
		return nil, missingReference("student", err)
	}

	leave := entities.TemporaryLeave{
		StudentID: studentID,
		StartDate: startDate,
		EndDate:   endDate,
		Reason:    payload.Reason,
		Status:    constants.LeaveScheduled,
	}
	if startDate.Equal(today) {
		leave.Status = constants.LeaveActive
	}
	fee := TravelFee(s.booking.TravelFeePerWeek, leave)

	var created *entities.TemporaryLeave
	var scheduleIDs []uint64
	var promoted int
	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		overlap, err := s.repos.Leaves.HasOverlap(ctx, tx, studentID, startDate, endDate)
		if err != nil {
			return err
		}
		if overlap {
			return apperrors.ErrLeaveOverlap
		}
		moves, err := s.repos.Changes.HasLiveTargetBetween(ctx, tx, studentID, startDate, endDate)
		if err != nil {
			return err
		}
		if moves {
			return apperrors.ErrLeaveHasChanges
		}

		id, err := s.repos.Leaves.Create(ctx, tx, leave)
		if err != nil {
			return err
		}
		if leave.Status == constants.LeaveActive {
			if _, err := s.repos.Registrations.SwitchStatus(ctx, tx, studentID, constants.RegistrationActive, constants.RegistrationOnLeave); err != nil {
				return err
			}
		}

		if fee.IsPositive() {
			if _, err := s.travelFeeRepo.Create(ctx, tx, entities.TravelFeeMovement{
				StudentID: studentID,
				LeaveID:   null.Uint64From(id),
				Kind:      constants.MovementCharge,
				Amount:    fee,
				Note:      null.StringFrom(fmt.Sprintf("temporary leave %s to %s", utils.FormatDate(startDate), utils.FormatDate(endDate))),
				CreatedBy: null.Uint64From(authContext.ActorID),
			}); err != nil {
				return err
			}
		}

		regs, err := s.repos.Registrations.ListLiveByStudent(ctx, tx, studentID)
		if err != nil {
			return err
		}
		for _, reg := range regs {
			scheduleIDs = append(scheduleIDs, reg.ClassScheduleID)
		}
		scheduleIDs = sortedUnique(scheduleIDs...)
		for _, scheduleID := range scheduleIDs {
			entries, err := s.promoter.PromoteRange(ctx, tx, scheduleID, startDate, endDate)
			if err != nil {
				return err
			}
			promoted += len(entries)
		}

		created, err = s.repos.Leaves.FindByID(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("temporary leave created",
		zap.Uint64("leave_id", created.ID),
		zap.Uint64("student_id", studentID),
		zap.String("status", created.Status),
		zap.String("travel_fee", fee.StringFixed(2)),
		zap.Int("promoted", promoted))
	s.bus.Publish(ctx, events.LeaveChangedEvent{
		Action:      events.ActionCreated,
		Leave:       *created,
		ActorID:     authContext.ActorID,
		ScheduleIDs: scheduleIDs,
	})

	out := leaveToDTO(created)
	out.TravelFee = &fee
	return out, nil
}

// Cancel withdraws a leave that has not started and reverses its charge.
func (s *LeaveService) Cancel(ctx context.Context, id uint64) (*dto.LeaveResponseDTO, error) {
	authContext, err := authorize(ctx, authz.LeavesDelete, nil)
	if err != nil {
		return nil, err
	}

	var cancelled *entities.TemporaryLeave
	var scheduleIDs []uint64
	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		leave, err := s.repos.Leaves.LockByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := permitTarget(authContext, authz.LeavesDelete, leave); err != nil {
			return err
		}
		if leave.Status != constants.LeaveScheduled {
			return apperrors.ErrInvalidTransition
		}

		regs, err := s.repos.Registrations.ListLiveByStudent(ctx, tx, leave.StudentID)
		if err != nil {
			return err
		}
		for _, reg := range regs {
			scheduleIDs = append(scheduleIDs, reg.ClassScheduleID)
		}
		scheduleIDs = sortedUnique(scheduleIDs...)

		// The leave released the student's seats; others may have taken them.
		seats, err := s.claimSeats(ctx, tx, leave, regs)
		if err != nil {
			return err
		}
		if err := s.repos.Leaves.SetStatus(ctx, tx, id, constants.LeaveScheduled, constants.LeaveCancelled); err != nil {
			return err
		}
		if err := seats.verify(ctx, tx, s.repos.Occupancy); err != nil {
			return err
		}

		charge, err := s.travelFeeRepo.FindChargeByLeave(ctx, tx, id)
		switch {
		case err == nil:
			if _, err := s.travelFeeRepo.Create(ctx, tx, entities.TravelFeeMovement{
				StudentID: leave.StudentID,
				LeaveID:   null.Uint64From(id),
				Kind:      constants.MovementReversal,
				Amount:    charge.Amount,
				Note:      null.StringFrom("temporary leave cancelled"),
				CreatedBy: null.Uint64From(authContext.ActorID),
			}); err != nil {
				return err
			}
		case !errors.Is(err, apperrors.ErrNotFound):
			return err
		}

		cancelled, err = s.repos.Leaves.FindByID(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("temporary leave cancelled", zap.Uint64("leave_id", id), zap.Uint64("actor_id", authContext.ActorID))
	s.bus.Publish(ctx, events.LeaveChangedEvent{
		Action:      events.ActionCancelled,
		Leave:       *cancelled,
		ActorID:     authContext.ActorID,
		ScheduleIDs: scheduleIDs,
	})
	return leaveToDTO(cancelled), nil
}

// seatClaims records the claimed seats of every occurrence a leave covers,
// taken before the student comes back.
type seatClaims struct {
	slots  map[uint64]*entities.ClassSchedule
	before map[occurrenceKey]int
}

type occurrenceKey struct {
	scheduleID uint64
	date       time.Time
}

// claimSeats locks the student's slots in id order and counts booked plus
// pending seats on each remaining date of the leave.
func (s *LeaveService) claimSeats(ctx context.Context, tx pgx.Tx, leave *entities.TemporaryLeave, regs []*entities.StudentClassRegistration) (*seatClaims, error) {
	claims := &seatClaims{slots: map[uint64]*entities.ClassSchedule{}, before: map[occurrenceKey]int{}}
	from := leave.StartDate
	if today := s.calendar.Today(); from.Before(today) {
		from = today
	}

	sort.Slice(regs, func(i, j int) bool { return regs[i].ClassScheduleID < regs[j].ClassScheduleID })
	for _, reg := range regs {
		slot, ok := claims.slots[reg.ClassScheduleID]
		if !ok {
			var err error
			if slot, err = s.repos.Schedules.LockByID(ctx, tx, reg.ClassScheduleID); err != nil {
				return nil, err
			}
			claims.slots[slot.ID] = slot
		}
		for _, date := range utils.Occurrences(from, leave.EndDate, slot.DayOfWeek) {
			if !reg.Covers(date) {
				continue
			}
			occ, err := s.repos.Occupancy.Occupancy(ctx, tx, slot.ID, date)
			if err != nil {
				return nil, err
			}
			claims.before[occurrenceKey{slot.ID, date}] = occ.Booked + occ.Pending
		}
	}
	return claims, nil
}

// verify fails with ErrClassFull when an occurrence the student returns to
// grew past its capacity.
func (c *seatClaims) verify(ctx context.Context, tx pgx.Tx, occupancy repositories.OccupancyRepositoryInterface) error {
	for key, before := range c.before {
		occ, err := occupancy.Occupancy(ctx, tx, key.scheduleID, key.date)
		if err != nil {
			return err
		}
		after := occ.Booked + occ.Pending
		if after > before && after > c.slots[key.scheduleID].Capacity() {
			return fmt.Errorf("%w: class %d on %s", apperrors.ErrClassFull, key.scheduleID, utils.FormatDate(key.date))
		}
	}
	return nil
}

func (s *LeaveService) GetByID(ctx context.Context, id uint64) (*dto.LeaveResponseDTO, error) {
	authContext, err := authorize(ctx, authz.LeavesView, nil)
	if err != nil {
		return nil, err
	}
	leave, err := s.repos.Leaves.FindByID(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	if err := permitTarget(authContext, authz.LeavesView, leave); err != nil {
		return nil, err
	}
	return leaveToDTO(leave), nil
}

func (s *LeaveService) GetAll(ctx context.Context, filter types.Filter) ([]dto.LeaveResponseDTO, uint64, error) {
	authContext, err := authorize(ctx, authz.LeavesView, nil)
	if err != nil {
		return nil, 0, err
	}
	list, total, err := s.repos.Leaves.GetAll(ctx, scopeFilter(authContext, filter))
	if err != nil {
		return nil, 0, err
	}
	out := make([]dto.LeaveResponseDTO, 0, len(list))
	for _, l := range list {
		out = append(out, *leaveToDTO(l))
	}
	return out, total, nil
}
