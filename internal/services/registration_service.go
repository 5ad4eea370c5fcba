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
	"studio-system/pkg/constants"
	apperrors "studio-system/pkg/errors"
	"studio-system/pkg/eventbus"
	"studio-system/pkg/types"
	"studio-system/pkg/utils"
)

// reasonRegistrationCancelled is written on pending requests of a cancelled
// registration.
const reasonRegistrationCancelled = "the registration was cancelled"

type RegistrationServiceInterface interface {
	Create(ctx context.Context, payload dto.CreateRegistrationDTO) (*dto.RegistrationResponseDTO, error)
	Cancel(ctx context.Context, id uint64) (*dto.RegistrationResponseDTO, error)
	GetByID(ctx context.Context, id uint64) (*dto.RegistrationResponseDTO, error)
	GetAll(ctx context.Context, filter types.Filter) ([]dto.RegistrationResponseDTO, uint64, error)
}

type RegistrationService struct {
	repo          repositories.RegistrationRepositoryInterface
	scheduleRepo  repositories.ClassScheduleRepositoryInterface
	studioRepo    repositories.StudioRepositoryInterface
	occupancyRepo repositories.OccupancyRepositoryInterface
	changeRepo    repositories.ScheduleChangeRepositoryInterface
	rejecter      changeRejecter
	promoter      *WaitlistPromoter
	txManager     repositories.TxManagerInterface
	bus           *eventbus.Bus
	calendar      Calendar
	logger        *zap.Logger
}

func NewRegistrationService(
	repos ScheduleChangeRepos,
	studioRepo repositories.StudioRepositoryInterface,
	promoter *WaitlistPromoter,
	txManager repositories.TxManagerInterface,
	bus *eventbus.Bus,
	calendar Calendar,
	logger *zap.Logger,
) RegistrationServiceInterface {
	return &RegistrationService{
		repo:          repos.Registrations,
		scheduleRepo:  repos.Schedules,
		studioRepo:    studioRepo,
		occupancyRepo: repos.Occupancy,
		changeRepo:    repos.Changes,
		rejecter:      changeRejecter{changeRepo: repos.Changes, jokerRepo: repos.Jokers, waitlistRepo: repos.Waitlist},
		promoter:      promoter,
		txManager:     txManager,
		bus:           bus,
		calendar:      calendar,
		logger:        logger,
	}
}

func (s *RegistrationService) Create(ctx context.Context, payload dto.CreateRegistrationDTO) (*dto.RegistrationResponseDTO, error) {
	authContext, err := authorize(ctx, authz.RegistrationsCreate, nil)
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
	if startDate.Before(s.calendar.Today()) {
		return nil, apperrors.ErrDateInPast
	}
	if _, err := s.studioRepo.FindStudent(ctx, nil, studentID); err != nil {
		return nil, missingReference("student", err)
	}

	var created *entities.StudentClassRegistration
	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		slot, err := s.scheduleRepo.LockByID(ctx, tx, payload.ClassScheduleID)
		if err != nil {
			return err
		}
		if slot.Status != constants.ScheduleActive {
			return apperrors.ErrClassInactive
		}
		if utils.ISOWeekday(startDate) != slot.DayOfWeek {
			return apperrors.ErrWeekdayMismatch
		}

		occ, err := s.occupancyRepo.Occupancy(ctx, tx, slot.ID, startDate)
		if err != nil {
			return err
		}
		if occ.Booked >= slot.Capacity() {
			return apperrors.ErrClassFull
		}

		id, err := s.repo.Create(ctx, tx, entities.StudentClassRegistration{
			StudentID:       studentID,
			ClassScheduleID: slot.ID,
			StartDate:       startDate,
			Status:          constants.RegistrationActive,
		})
		if err != nil {
			return err
		}
		created, err = s.repo.FindByID(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("student registered",
		zap.Uint64("registration_id", created.ID),
		zap.Uint64("student_id", studentID),
		zap.Uint64("class_schedule_id", created.ClassScheduleID))
	s.bus.Publish(ctx, events.RegistrationChangedEvent{Action: events.ActionCreated, Registration: *created, ActorID: authContext.ActorID})
	return registrationToDTO(created), nil
}

// Cancel ends a registration today. Its pending requests are rejected and the
// seats it held on upcoming classes go to the slot's waitlists.
func (s *RegistrationService) Cancel(ctx context.Context, id uint64) (*dto.RegistrationResponseDTO, error) {
	authContext, err := authorize(ctx, authz.RegistrationsDelete, nil)
	if err != nil {
		return nil, err
	}
	today := s.calendar.Today()
	now := s.calendar.Now()

	var cancelled *entities.StudentClassRegistration
	var rejected []entities.ScheduleChange
	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		reg, err := s.repo.FindByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := permitTarget(authContext, authz.RegistrationsDelete, reg); err != nil {
			return err
		}
		pending, err := s.changeRepo.ListPendingByRegistration(ctx, tx, id)
		if err != nil {
			return err
		}
		slotIDs := []uint64{reg.ClassScheduleID}
		for _, change := range pending {
			slotIDs = append(slotIDs, change.TargetScheduleID)
		}
		for _, slotID := range sortedUnique(slotIDs...) {
			if _, err := s.scheduleRepo.LockByID(ctx, tx, slotID); err != nil {
				return err
			}
		}

		endDate := today
		if reg.StartDate.After(today) {
			endDate = reg.StartDate
		}
		if err := s.repo.Cancel(ctx, tx, id, endDate); err != nil {
			return err
		}

		for _, change := range pending {
			wasWaitlisted := change.Waitlisted
			if _, err := s.rejecter.reject(ctx, tx, change, reasonRegistrationCancelled, null.Uint64From(authContext.ActorID),
				constants.WaitlistCancelled, now); err != nil {
				return err
			}
			rejected = append(rejected, *change)
			if !wasWaitlisted && !change.TargetDate.Before(today) {
				if _, err := s.promoter.Promote(ctx, tx, change.TargetScheduleID, change.TargetDate); err != nil {
					return err
				}
			}
		}

		if _, err := s.promoter.PromoteRange(ctx, tx, reg.ClassScheduleID, today.AddDate(0, 0, 1), farFuture(today)); err != nil {
			return err
		}

		cancelled, err = s.repo.FindByID(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("registration cancelled",
		zap.Uint64("registration_id", id),
		zap.Int("rejected_changes", len(rejected)),
		zap.Uint64("actor_id", authContext.ActorID))
	s.bus.Publish(ctx, events.RegistrationChangedEvent{
		Action:       events.ActionCancelled,
		Registration: *cancelled,
		ActorID:      authContext.ActorID,
		Rejected:     rejected,
	})
	return registrationToDTO(cancelled), nil
}

// farFuture bounds open-ended waitlist scans.
func farFuture(today time.Time) time.Time {
	return today.AddDate(1, 0, 0)
}

func (s *RegistrationService) GetByID(ctx context.Context, id uint64) (*dto.RegistrationResponseDTO, error) {
	authContext, err := authorize(ctx, authz.RegistrationsView, nil)
	if err != nil {
		return nil, err
	}
	reg, err := s.repo.FindByID(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	if err := permitTarget(authContext, authz.RegistrationsView, reg); err != nil {
		return nil, err
	}
	return registrationToDTO(reg), nil
}

func (s *RegistrationService) GetAll(ctx context.Context, filter types.Filter) ([]dto.RegistrationResponseDTO, uint64, error) {
	authContext, err := authorize(ctx, authz.RegistrationsView, nil)
	if err != nil {
		return nil, 0, err
	}
	list, total, err := s.repo.GetAll(ctx, scopeFilter(authContext, filter))
	if err != nil {
		return nil, 0, err
	}
	out := make([]dto.RegistrationResponseDTO, 0, len(list))
	for _, reg := range list {
		out = append(out, *registrationToDTO(reg))
	}
	return out, total, nil
}
