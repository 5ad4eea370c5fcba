package services

import (
	"context"
	"errors"
	"net/http"

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
)

type ClassScheduleServiceInterface interface {
	Create(ctx context.Context, payload dto.CreateClassScheduleDTO) (*dto.ClassScheduleResponseDTO, error)
	Update(ctx context.Context, id uint64, payload dto.UpdateClassScheduleDTO) (*dto.ClassScheduleResponseDTO, error)
	Delete(ctx context.Context, id uint64) error
	GetByID(ctx context.Context, id uint64) (*dto.ClassScheduleResponseDTO, error)
	GetAll(ctx context.Context, filter types.Filter) ([]dto.ClassScheduleResponseDTO, uint64, error)
}

type ClassScheduleService struct {
	repo       repositories.ClassScheduleRepositoryInterface
	studioRepo repositories.StudioRepositoryInterface
	txManager  repositories.TxManagerInterface
	bus        *eventbus.Bus
	logger     *zap.Logger
}

func NewClassScheduleService(
	repo repositories.ClassScheduleRepositoryInterface,
	studioRepo repositories.StudioRepositoryInterface,
	txManager repositories.TxManagerInterface,
	bus *eventbus.Bus,
	logger *zap.Logger,
) ClassScheduleServiceInterface {
	return &ClassScheduleService{
		repo:       repo,
		studioRepo: studioRepo,
		txManager:  txManager,
		bus:        bus,
		logger:     logger,
	}
}

func missingReference(what string, err error) error {
	if errors.Is(err, apperrors.ErrNotFound) {
		return apperrors.NewHttpError(http.StatusBadRequest, what+" does not exist", err, nil)
	}
	return err
}

// checkSlot validates the parts of a slot the database cannot check with a
// friendly message.
func (s *ClassScheduleService) checkSlot(ctx context.Context, tx pgx.Tx, slot entities.ClassSchedule) error {
	if slot.EndTime <= slot.StartTime {
		return apperrors.NewInvalidInputError("end_time must be after start_time")
	}
	if _, err := s.studioRepo.FindStudio(ctx, tx, slot.StudioID); err != nil {
		return missingReference("studio", err)
	}
	if slot.InstructorID.Valid {
		if _, err := s.studioRepo.FindInstructor(ctx, tx, slot.InstructorID.Uint64); err != nil {
			return missingReference("instructor", err)
		}
	}
	return nil
}

func (s *ClassScheduleService) Create(ctx context.Context, payload dto.CreateClassScheduleDTO) (*dto.ClassScheduleResponseDTO, error) {
	authContext, err := authorize(ctx, authz.ClassSchedulesCreate, nil)
	if err != nil {
		return nil, err
	}

	slot := entities.ClassSchedule{
		StudioID:         payload.StudioID,
		InstructorID:     payload.InstructorID,
		DayOfWeek:        payload.DayOfWeek,
		StartTime:        payload.StartTime,
		EndTime:          payload.EndTime,
		CapacityOverride: payload.CapacityOverride,
		Status:           payload.Status,
	}
	if slot.Status == "" {
		slot.Status = constants.ScheduleActive
	}

	var created *entities.ClassSchedule
	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		if err := s.checkSlot(ctx, tx, slot); err != nil {
			return err
		}
		id, err := s.repo.Create(ctx, tx, slot)
		if err != nil {
			return err
		}
		created, err = s.repo.FindByID(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("class schedule created", zap.Uint64("id", created.ID), zap.Uint64("actor_id", authContext.ActorID))
	s.bus.Publish(ctx, events.ClassScheduleChangedEvent{Action: events.ActionCreated, ScheduleID: created.ID, ActorID: authContext.ActorID})
	return classScheduleToDTO(created), nil
}

func (s *ClassScheduleService) Update(ctx context.Context, id uint64, payload dto.UpdateClassScheduleDTO) (*dto.ClassScheduleResponseDTO, error) {
	authContext, err := authorize(ctx, authz.ClassSchedulesUpdate, nil)
	if err != nil {
		return nil, err
	}

	var updated *entities.ClassSchedule
	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		slot, err := s.repo.LockByID(ctx, tx, id)
		if err != nil {
			return err
		}

		if payload.StudioID != nil {
			slot.StudioID = *payload.StudioID
		}
		if payload.InstructorID.Valid {
			slot.InstructorID = payload.InstructorID
		}
		if payload.DayOfWeek != nil {
			slot.DayOfWeek = *payload.DayOfWeek
		}
		if payload.StartTime != nil {
			slot.StartTime = *payload.StartTime
		}
		if payload.EndTime != nil {
			slot.EndTime = *payload.EndTime
		}
		if payload.ClearCapacityOverride {
			slot.CapacityOverride = null.Int{}
		} else if payload.CapacityOverride.Valid {
			slot.CapacityOverride = payload.CapacityOverride
		}
		if payload.Status != nil {
			slot.Status = *payload.Status
		}

		if err := s.checkSlot(ctx, tx, *slot); err != nil {
			return err
		}
		if err := s.repo.Update(ctx, tx, *slot); err != nil {
			return err
		}
		updated, err = s.repo.FindByID(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.bus.Publish(ctx, events.ClassScheduleChangedEvent{Action: events.ActionUpdated, ScheduleID: id, ActorID: authContext.ActorID})
	return classScheduleToDTO(updated), nil
}

func (s *ClassScheduleService) Delete(ctx context.Context, id uint64) error {
	authContext, err := authorize(ctx, authz.ClassSchedulesDelete, nil)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, nil, id); err != nil {
		return err
	}
	s.logger.Info("class schedule deleted", zap.Uint64("id", id), zap.Uint64("actor_id", authContext.ActorID))
	s.bus.Publish(ctx, events.ClassScheduleChangedEvent{Action: events.ActionDeleted, ScheduleID: id, ActorID: authContext.ActorID})
	return nil
}

func (s *ClassScheduleService) GetByID(ctx context.Context, id uint64) (*dto.ClassScheduleResponseDTO, error) {
	if _, err := authorize(ctx, authz.ClassSchedulesView, nil); err != nil {
		return nil, err
	}
	slot, err := s.repo.FindByID(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	return classScheduleToDTO(slot), nil
}

func (s *ClassScheduleService) GetAll(ctx context.Context, filter types.Filter) ([]dto.ClassScheduleResponseDTO, uint64, error) {
	if _, err := authorize(ctx, authz.ClassSchedulesView, nil); err != nil {
		return nil, 0, err
	}
	list, total, err := s.repo.GetAll(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	out := make([]dto.ClassScheduleResponseDTO, 0, len(list))
	for _, slot := range list {
		out = append(out, *classScheduleToDTO(slot))
	}
	return out, total, nil
}
