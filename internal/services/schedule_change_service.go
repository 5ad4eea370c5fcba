package services

import (
	"context"
	"time"

	"github.com/aarondl/null/v8"
	"github.com/jackc/pgx/v5"
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

type ScheduleChangeServiceInterface interface {
	Create(ctx context.Context, payload dto.CreateScheduleChangeDTO) (*dto.ScheduleChangeResponseDTO, error)
	Approve(ctx context.Context, id uint64) (*dto.ScheduleChangeResponseDTO, error)
	Reject(ctx context.Context, id uint64, payload dto.RejectScheduleChangeDTO) (*dto.ScheduleChangeResponseDTO, error)
	GetByID(ctx context.Context, id uint64) (*dto.ScheduleChangeResponseDTO, error)
	GetAll(ctx context.Context, filter types.Filter, month string) ([]dto.ScheduleChangeResponseDTO, uint64, error)
}

// ScheduleChangeRepos groups the repositories the reschedule workflow touches.
type ScheduleChangeRepos struct {
	Changes       repositories.ScheduleChangeRepositoryInterface
	Registrations repositories.RegistrationRepositoryInterface
	Schedules     repositories.ClassScheduleRepositoryInterface
	Leaves        repositories.LeaveRepositoryInterface
	Waitlist      repositories.WaitlistRepositoryInterface
	Occupancy     repositories.OccupancyRepositoryInterface
	Jokers        repositories.JokerRepositoryInterface
}

type ScheduleChangeService struct {
	repos     ScheduleChangeRepos
	jokers    JokerServiceInterface
	promoter  *WaitlistPromoter
	rejecter  changeRejecter
	txManager repositories.TxManagerInterface
	bus       *eventbus.Bus
	booking   config.BookingConfig
	calendar  Calendar
	logger    *zap.Logger
}

func NewScheduleChangeService(
	repos ScheduleChangeRepos,
	jokers JokerServiceInterface,
	promoter *WaitlistPromoter,
	txManager repositories.TxManagerInterface,
	bus *eventbus.Bus,
	booking config.BookingConfig,
	calendar Calendar,
	logger *zap.Logger,
) ScheduleChangeServiceInterface {
	return &ScheduleChangeService{
		repos:     repos,
		jokers:    jokers,
		promoter:  promoter,
		rejecter:  changeRejecter{changeRepo: repos.Changes, jokerRepo: repos.Jokers, waitlistRepo: repos.Waitlist},
		txManager: txManager,
		bus:       bus,
		booking:   booking,
		calendar:  calendar,
		logger:    logger,
	}
}

func parseRequestDate(field, value string) (time.Time, error) {
	d, err := utils.ParseDate(value)
	if err != nil {
		return time.Time{}, apperrors.NewInvalidInputError("%s: %s", field, err.Error())
	}
	return d, nil
}

// lockSchedules locks the given slots in ascending id order and returns them
// by id.
func (s *ScheduleChangeService) lockSchedules(ctx context.Context, tx pgx.Tx, ids ...uint64) (map[uint64]*entities.ClassSchedule, error) {
	out := make(map[uint64]*entities.ClassSchedule, len(ids))
	for _, id := range sortedUnique(ids...) {
		slot, err := s.repos.Schedules.LockByID(ctx, tx, id)
		if err != nil {
			return nil, err
		}
		out[id] = slot
	}
	return out, nil
}

// waitlistPosition is the 1-based place of a change in its target queue, or
// 0 when it is not waiting.
func (s *ScheduleChangeService) waitlistPosition(ctx context.Context, tx pgx.Tx, change *entities.ScheduleChange) (int, error) {
	if !change.Waitlisted {
		return 0, nil
	}
	entries, err := s.repos.Waitlist.ListWaiting(ctx, tx, change.TargetScheduleID, change.TargetDate)
	if err != nil {
		return 0, err
	}
	for i, e := range entries {
		if e.ScheduleChangeID == change.ID {
			return i + 1, nil
		}
	}
	return 0, nil
}

func (s *ScheduleChangeService) Create(ctx context.Context, payload dto.CreateScheduleChangeDTO) (*dto.ScheduleChangeResponseDTO, error) {
	authContext, err := authorize(ctx, authz.ScheduleChangesCreate, nil)
	if err != nil {
		return nil, err
	}
	originalDate, err := parseRequestDate("original_date", payload.OriginalDate)
	if err != nil {
		return nil, err
	}
	targetDate, err := parseRequestDate("target_date", payload.TargetDate)
	if err != nil {
		return nil, err
	}

	now := s.calendar.Now()
	today := s.calendar.Today()
	usesJoker := !(payload.WaiveJoker && authContext.IsStaff())

	var created *entities.ScheduleChange
	var position int
	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		reg, err := s.repos.Registrations.FindByID(ctx, tx, payload.RegistrationID)
		if err != nil {
			return err
		}
		if err := permitTarget(authContext, authz.ScheduleChangesCreate, reg); err != nil {
			return err
		}
		if reg.Status != constants.RegistrationActive {
			return apperrors.ErrRegistrationNotLive
		}

		if utils.ISOWeekday(originalDate) != reg.DayOfWeek {
			return apperrors.ErrWeekdayMismatch
		}
		if !reg.Covers(originalDate) {
			return apperrors.NewInvalidInputError("original_date is outside the registration period")
		}
		startsAt, err := s.calendar.StartsAt(originalDate, reg.StartTime)
		if err != nil {
			return err
		}
		if startsAt.Sub(now) < time.Duration(s.booking.MinNoticeHours)*time.Hour {
			return apperrors.ErrInsufficientNotice
		}

		if payload.TargetScheduleID == reg.ClassScheduleID && targetDate.Equal(originalDate) {
			return apperrors.ErrSameOccurrence
		}
		slots, err := s.lockSchedules(ctx, tx, reg.ClassScheduleID, payload.TargetScheduleID)
		if err != nil {
			return err
		}
		target := slots[payload.TargetScheduleID]
		if target.Status != constants.ScheduleActive {
			return apperrors.ErrClassInactive
		}
		if targetDate.Before(today) {
			return apperrors.ErrDateInPast
		}
		if utils.ISOWeekday(targetDate) != target.DayOfWeek {
			return apperrors.ErrWeekdayMismatch
		}

		exists, err := s.repos.Changes.ExistsLive(ctx, tx, reg.ID, originalDate)
		if err != nil {
			return err
		}
		if exists {
			return apperrors.ErrDuplicateChange
		}

		for _, d := range []time.Time{originalDate, targetDate} {
			onLeave, err := s.repos.Leaves.IsOnLeave(ctx, tx, reg.StudentID, d)
			if err != nil {
				return err
			}
			if onLeave {
				return apperrors.ErrStudentOnLeave
			}
		}

		if usesJoker {
			period := utils.MonthStart(originalDate)
			if _, err := s.jokers.EnsureBalance(ctx, tx, reg.StudentID, period); err != nil {
				return err
			}
			if err := s.repos.Jokers.Consume(ctx, tx, reg.StudentID, period); err != nil {
				return err
			}
		}

		occ, err := s.repos.Occupancy.Occupancy(ctx, tx, target.ID, targetDate)
		if err != nil {
			return err
		}
		waitlisted := occ.Booked+occ.Pending >= target.Capacity()

		id, err := s.repos.Changes.Create(ctx, tx, entities.ScheduleChange{
			StudentID:          reg.StudentID,
			RegistrationID:     reg.ID,
			OriginalScheduleID: reg.ClassScheduleID,
			OriginalDate:       originalDate,
			TargetScheduleID:   target.ID,
			TargetDate:         targetDate,
			Status:             constants.ChangePending,
			UsesJoker:          usesJoker,
			Waitlisted:         waitlisted,
			Reason:             payload.Reason,
		})
		if err != nil {
			return err
		}
		if waitlisted {
			if _, err := s.repos.Waitlist.Create(ctx, tx, entities.WaitlistEntry{
				ScheduleChangeID: id,
				ClassScheduleID:  target.ID,
				ClassDate:        targetDate,
				Status:           constants.WaitlistWaiting,
			}); err != nil {
				return err
			}
		}

		created, err = s.repos.Changes.FindByID(ctx, tx, id)
		if err != nil {
			return err
		}
		position, err = s.waitlistPosition(ctx, tx, created)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("schedule change requested",
		zap.Uint64("id", created.ID),
		zap.Uint64("student_id", created.StudentID),
		zap.Bool("uses_joker", created.UsesJoker),
		zap.Bool("waitlisted", created.Waitlisted))
	s.bus.Publish(ctx, events.ScheduleChangeEvent{Event: events.ScheduleChangeCreated, Change: *created, ActorID: authContext.ActorID})

	out := scheduleChangeToDTO(created)
	out.WaitlistPosition = position
	return out, nil
}

func (s *ScheduleChangeService) Approve(ctx context.Context, id uint64) (*dto.ScheduleChangeResponseDTO, error) {
	authContext, err := authorize(ctx, authz.ScheduleChangesReview, nil)
	if err != nil {
		return nil, err
	}
	now := s.calendar.Now()
	today := s.calendar.Today()

	var approved *entities.ScheduleChange
	var promoted []entities.WaitlistEntry
	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		change, err := s.repos.Changes.LockByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if !constants.CanTransition(change.Status, constants.ChangeApproved) {
			return apperrors.ErrInvalidTransition
		}
		if change.Waitlisted {
			return apperrors.ErrStillWaitlisted
		}

		slots, err := s.lockSchedules(ctx, tx, change.OriginalScheduleID, change.TargetScheduleID)
		if err != nil {
			return err
		}
		target := slots[change.TargetScheduleID]
		occ, err := s.repos.Occupancy.Occupancy(ctx, tx, target.ID, change.TargetDate)
		if err != nil {
			return err
		}
		if occ.Booked >= target.Capacity() {
			return apperrors.ErrClassFull
		}

		if err := s.repos.Changes.Approve(ctx, tx, id, authContext.ActorID, now); err != nil {
			return err
		}

		if !change.OriginalDate.Before(today) {
			promoted, err = s.promoter.Promote(ctx, tx, change.OriginalScheduleID, change.OriginalDate)
			if err != nil {
				return err
			}
		}

		approved, err = s.repos.Changes.FindByID(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("schedule change approved",
		zap.Uint64("id", id),
		zap.Uint64("reviewer_id", authContext.ActorID),
		zap.Int("promoted", len(promoted)))
	s.bus.Publish(ctx, events.ScheduleChangeEvent{
		Event:    events.ScheduleChangeApproved,
		Change:   *approved,
		ActorID:  authContext.ActorID,
		Promoted: promoted,
	})
	return scheduleChangeToDTO(approved), nil
}

func (s *ScheduleChangeService) Reject(ctx context.Context, id uint64, payload dto.RejectScheduleChangeDTO) (*dto.ScheduleChangeResponseDTO, error) {
	authContext, err := authorize(ctx, authz.ScheduleChangesReview, nil)
	if err != nil {
		return nil, err
	}
	now := s.calendar.Now()
	today := s.calendar.Today()

	var rejected *entities.ScheduleChange
	var promoted []entities.WaitlistEntry
	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		change, err := s.repos.Changes.LockByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if !constants.CanTransition(change.Status, constants.ChangeRejected) {
			return apperrors.ErrInvalidTransition
		}
		wasWaitlisted := change.Waitlisted

		if _, err := s.rejecter.reject(ctx, tx, change, payload.Reason, null.Uint64From(authContext.ActorID),
			constants.WaitlistCancelled, now); err != nil {
			return err
		}

		// a pending request held a claim on the target; hand it on
		if !wasWaitlisted && !change.TargetDate.Before(today) {
			promoted, err = s.promoter.Promote(ctx, tx, change.TargetScheduleID, change.TargetDate)
			if err != nil {
				return err
			}
		}

		rejected, err = s.repos.Changes.FindByID(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("schedule change rejected", zap.Uint64("id", id), zap.Uint64("reviewer_id", authContext.ActorID))
	s.bus.Publish(ctx, events.ScheduleChangeEvent{
		Event:    events.ScheduleChangeRejected,
		Change:   *rejected,
		ActorID:  authContext.ActorID,
		Promoted: promoted,
	})
	return scheduleChangeToDTO(rejected), nil
}

func (s *ScheduleChangeService) GetByID(ctx context.Context, id uint64) (*dto.ScheduleChangeResponseDTO, error) {
	authContext, err := authorize(ctx, authz.ScheduleChangesView, nil)
	if err != nil {
		return nil, err
	}
	change, err := s.repos.Changes.FindByID(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	if err := permitTarget(authContext, authz.ScheduleChangesView, change); err != nil {
		return nil, err
	}
	position, err := s.waitlistPosition(ctx, nil, change)
	if err != nil {
		return nil, err
	}
	out := scheduleChangeToDTO(change)
	out.WaitlistPosition = position
	return out, nil
}

func (s *ScheduleChangeService) GetAll(ctx context.Context, filter types.Filter, month string) ([]dto.ScheduleChangeResponseDTO, uint64, error) {
	authContext, err := authorize(ctx, authz.ScheduleChangesView, nil)
	if err != nil {
		return nil, 0, err
	}
	var period time.Time
	if month != "" {
		period, err = utils.ParseMonth(month)
		if err != nil {
			return nil, 0, apperrors.NewInvalidInputError("%s", err.Error())
		}
	}

	list, total, err := s.repos.Changes.GetAll(ctx, scopeFilter(authContext, filter), period)
	if err != nil {
		return nil, 0, err
	}
	out := make([]dto.ScheduleChangeResponseDTO, 0, len(list))
	for _, c := range list {
		out = append(out, *scheduleChangeToDTO(c))
	}
	return out, total, nil
}
