package services

import (
	"context"
	"time"

	"github.com/aarondl/null/v8"
	"go.uber.org/zap"

	"studio-system/internal/authz"
	"studio-system/internal/dto"
	"studio-system/internal/entities"
	"studio-system/internal/repositories"
	"studio-system/pkg/config"
	"studio-system/pkg/constants"
	apperrors "studio-system/pkg/errors"
)

type TravelFeeServiceInterface interface {
	Balance(ctx context.Context, studentID uint64) (*dto.TravelFeeBalanceDTO, error)
	RecordPayment(ctx context.Context, studentID uint64, payload dto.CreatePaymentDTO) (*dto.TravelFeeMovementDTO, error)
}

type TravelFeeService struct {
	repo       repositories.TravelFeeRepositoryInterface
	studioRepo repositories.StudioRepositoryInterface
	booking    config.BookingConfig
	logger     *zap.Logger
}

func NewTravelFeeService(
	repo repositories.TravelFeeRepositoryInterface,
	studioRepo repositories.StudioRepositoryInterface,
	booking config.BookingConfig,
	logger *zap.Logger,
) TravelFeeServiceInterface {
	return &TravelFeeService{repo: repo, studioRepo: studioRepo, booking: booking, logger: logger}
}

// Balance is payments plus reversals minus charges; negative means the
// student owes the studio.
func (s *TravelFeeService) Balance(ctx context.Context, studentID uint64) (*dto.TravelFeeBalanceDTO, error) {
	if _, err := authorize(ctx, authz.TravelFeesView, authz.StudentRef{StudentID: studentID}); err != nil {
		return nil, err
	}
	if _, err := s.studioRepo.FindStudent(ctx, nil, studentID); err != nil {
		return nil, err
	}

	balance, err := s.repo.Balance(ctx, nil, studentID)
	if err != nil {
		return nil, err
	}
	movements, err := s.repo.ListByStudent(ctx, nil, studentID)
	if err != nil {
		return nil, err
	}

	out := &dto.TravelFeeBalanceDTO{
		StudentID: studentID,
		Balance:   balance,
		Currency:  s.booking.Currency,
		Movements: make([]dto.TravelFeeMovementDTO, 0, len(movements)),
	}
	for _, m := range movements {
		out.Movements = append(out.Movements, movementToDTO(m))
	}
	return out, nil
}

func (s *TravelFeeService) RecordPayment(ctx context.Context, studentID uint64, payload dto.CreatePaymentDTO) (*dto.TravelFeeMovementDTO, error) {
	authContext, err := authorize(ctx, authz.TravelFeesPayment, authz.StudentRef{StudentID: studentID})
	if err != nil {
		return nil, err
	}
	if !payload.Amount.IsPositive() {
		return nil, apperrors.ErrInvalidAmount
	}
	if !payload.Amount.Equal(payload.Amount.Round(2)) {
		return nil, apperrors.NewInvalidInputError("amount may have at most two decimals")
	}
	if _, err := s.studioRepo.FindStudent(ctx, nil, studentID); err != nil {
		return nil, err
	}

	movement := entities.TravelFeeMovement{
		StudentID: studentID,
		Kind:      constants.MovementPayment,
		Amount:    payload.Amount,
		Note:      payload.Note,
		CreatedBy: null.Uint64From(authContext.ActorID),
	}
	id, err := s.repo.Create(ctx, nil, movement)
	if err != nil {
		return nil, err
	}
	movement.ID = id
	movement.CreatedAt = time.Now()

	s.logger.Info("travel fee payment recorded",
		zap.Uint64("student_id", studentID),
		zap.String("amount", payload.Amount.StringFixed(2)),
		zap.Uint64("actor_id", authContext.ActorID))
	out := movementToDTO(&movement)
	return &out, nil
}
