package services

import (
	"context"
	"errors"
	"fmt"
	"time"

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
	"studio-system/pkg/utils"
)

// JokersForWeeklyClasses is the monthly allotment for a student attending
// weeklyClasses different weekdays.
func JokersForWeeklyClasses(weeklyClasses int) int {
	switch {
	case weeklyClasses <= 0:
		return 0
	case weeklyClasses >= 3:
		return 3
	default:
		return weeklyClasses
	}
}

type JokerServiceInterface interface {
	EnsureBalance(ctx context.Context, tx pgx.Tx, studentID uint64, period time.Time) (*entities.JokerBalance, error)
	Summary(ctx context.Context, studentID uint64, month string) (*dto.JokerSummaryDTO, error)
	AllocateMonth(ctx context.Context, month time.Time) (*dto.JokerAllocationDTO, error)
}

type JokerService struct {
	*BaseService
	jokerRepo  repositories.JokerRepositoryInterface
	regRepo    repositories.RegistrationRepositoryInterface
	studioRepo repositories.StudioRepositoryInterface
	txManager  repositories.TxManagerInterface
	bus        *eventbus.Bus
	calendar   Calendar
	logger     *zap.Logger
}

func NewJokerService(
	base *BaseService,
	jokerRepo repositories.JokerRepositoryInterface,
	regRepo repositories.RegistrationRepositoryInterface,
	studioRepo repositories.StudioRepositoryInterface,
	txManager repositories.TxManagerInterface,
	bus *eventbus.Bus,
	calendar Calendar,
	logger *zap.Logger,
) *JokerService {
	return &JokerService{
		BaseService: base,
		jokerRepo:   jokerRepo,
		regRepo:     regRepo,
		studioRepo:  studioRepo,
		txManager:   txManager,
		bus:         bus,
		calendar:    calendar,
		logger:      logger,
	}
}

// EnsureBalance returns the balance of the month starting at period, creating
// it from the current weekly class count when it does not exist yet.
func (s *JokerService) EnsureBalance(ctx context.Context, tx pgx.Tx, studentID uint64, period time.Time) (*entities.JokerBalance, error) {
	weekly, err := s.regRepo.CountWeeklyClasses(ctx, tx, studentID)
	if err != nil {
		return nil, err
	}
	if _, err := s.jokerRepo.Ensure(ctx, tx, studentID, period, JokersForWeeklyClasses(weekly)); err != nil {
		return nil, err
	}
	return s.jokerRepo.Find(ctx, tx, studentID, period)
}

// Summary reports the balance of a month without creating it.
func (s *JokerService) Summary(ctx context.Context, studentID uint64, month string) (*dto.JokerSummaryDTO, error) {
	if _, err := authorize(ctx, authz.JokersView, authz.StudentRef{StudentID: studentID}); err != nil {
		return nil, err
	}

	period := utils.MonthStart(s.calendar.Today())
	if month != "" {
		m, err := utils.ParseMonth(month)
		if err != nil {
			return nil, apperrors.NewInvalidInputError("%s", err.Error())
		}
		period = m
	}

	key := fmt.Sprintf(constants.CacheKeyJokers, studentID, period.Format(utils.MonthLayout))
	var cached dto.JokerSummaryDTO
	if s.CacheGet(ctx, key, &cached) {
		return &cached, nil
	}

	if _, err := s.studioRepo.FindStudent(ctx, nil, studentID); err != nil {
		return nil, err
	}
	weekly, err := s.regRepo.CountWeeklyClasses(ctx, nil, studentID)
	if err != nil {
		return nil, err
	}

	summary := &dto.JokerSummaryDTO{
		StudentID:     studentID,
		Month:         period.Format(utils.MonthLayout),
		WeeklyClasses: weekly,
	}
	balance, err := s.jokerRepo.Find(ctx, nil, studentID, period)
	switch {
	case err == nil:
		summary.Allotted = balance.Allotted
		summary.Used = balance.Used
		summary.Available = balance.Available()
	case errors.Is(err, apperrors.ErrNotFound):
		summary.Allotted = JokersForWeeklyClasses(weekly)
		summary.Available = summary.Allotted
	default:
		return nil, err
	}

	s.CacheSet(ctx, key, summary)
	return summary, nil
}

// AllocateMonth creates the balance rows of month for every enrolled student.
// Rows that already exist are kept, so running it twice is harmless.
func (s *JokerService) AllocateMonth(ctx context.Context, month time.Time) (*dto.JokerAllocationDTO, error) {
	period := utils.MonthStart(month)
	students, err := s.studioRepo.ListEnrolledStudentIDs(ctx, nil)
	if err != nil {
		return nil, err
	}

	result := &dto.JokerAllocationDTO{Month: period.Format(utils.MonthLayout), Students: len(students)}
	for _, studentID := range students {
		err := s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
			weekly, err := s.regRepo.CountWeeklyClasses(ctx, tx, studentID)
			if err != nil {
				return err
			}
			created, err := s.jokerRepo.Ensure(ctx, tx, studentID, period, JokersForWeeklyClasses(weekly))
			if err != nil {
				return err
			}
			if created {
				result.Created++
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("allocate jokers for student %d: %w", studentID, err)
		}
	}

	s.logger.Info("monthly jokers allocated",
		zap.String("month", result.Month),
		zap.Int("students", result.Students),
		zap.Int("created", result.Created))
	s.bus.Publish(ctx, events.JokersAllocatedEvent{Allocation: *result})
	return result, nil
}
