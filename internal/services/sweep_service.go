package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/aarondl/null/v8"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"studio-system/internal/dto"
	"studio-system/internal/events"
	"studio-system/internal/repositories"
	"studio-system/pkg/constants"
	"studio-system/pkg/eventbus"
	"studio-system/pkg/utils"
)

type SweepServiceInterface interface {
	Run(ctx context.Context) (*dto.SweepResultDTO, error)
}

type SweepService struct {
	leaveRepo    repositories.LeaveRepositoryInterface
	regRepo      repositories.RegistrationRepositoryInterface
	changeRepo   repositories.ScheduleChangeRepositoryInterface
	waitlistRepo repositories.WaitlistRepositoryInterface
	rejecter     changeRejecter
	txManager    repositories.TxManagerInterface
	bus          *eventbus.Bus
	calendar     Calendar
	logger       *zap.Logger
}

func NewSweepService(
	repos ScheduleChangeRepos,
	txManager repositories.TxManagerInterface,
	bus *eventbus.Bus,
	calendar Calendar,
	logger *zap.Logger,
) SweepServiceInterface {
	return &SweepService{
		leaveRepo:    repos.Leaves,
		regRepo:      repos.Registrations,
		changeRepo:   repos.Changes,
		waitlistRepo: repos.Waitlist,
		rejecter:     changeRejecter{changeRepo: repos.Changes, jokerRepo: repos.Jokers, waitlistRepo: repos.Waitlist},
		txManager:    txManager,
		bus:          bus,
		calendar:     calendar,
		logger:       logger,
	}
}

// Run applies the daily transitions for today in the studio time zone. Each
// step commits on its own; a failed step is reported and the others still run.
func (s *SweepService) Run(ctx context.Context) (*dto.SweepResultDTO, error) {
	today := s.calendar.Today()
	now := s.calendar.Now()
	result := &dto.SweepResultDTO{Date: utils.FormatDate(today)}

	steps := []struct {
		name string
		fn   func(tx pgx.Tx) error
	}{
		{"activate leaves", func(tx pgx.Tx) error {
			leaves, err := s.leaveRepo.ListDueToStart(ctx, tx, today)
			if err != nil {
				return err
			}
			for _, leave := range leaves {
				if err := s.leaveRepo.SetStatus(ctx, tx, leave.ID, constants.LeaveScheduled, constants.LeaveActive); err != nil {
					return err
				}
				n, err := s.regRepo.SwitchStatus(ctx, tx, leave.StudentID, constants.RegistrationActive, constants.RegistrationOnLeave)
				if err != nil {
					return err
				}
				result.LeavesActivated++
				result.RegistrationsPaused += n
			}
			return nil
		}},
		{"complete leaves", func(tx pgx.Tx) error {
			leaves, err := s.leaveRepo.ListFinished(ctx, tx, today)
			if err != nil {
				return err
			}
			for _, leave := range leaves {
				if err := s.leaveRepo.SetStatus(ctx, tx, leave.ID, constants.LeaveActive, constants.LeaveCompleted); err != nil {
					return err
				}
				result.LeavesCompleted++
				stillAway, err := s.leaveRepo.HasActive(ctx, tx, leave.StudentID)
				if err != nil {
					return err
				}
				if stillAway {
					continue
				}
				n, err := s.regRepo.SwitchStatus(ctx, tx, leave.StudentID, constants.RegistrationOnLeave, constants.RegistrationActive)
				if err != nil {
					return err
				}
				result.RegistrationsResumed += n
			}
			return nil
		}},
		{"complete approved changes", func(tx pgx.Tx) error {
			n, err := s.changeRepo.CompleteApprovedBefore(ctx, tx, today, now)
			result.ChangesCompleted = n
			return err
		}},
		{"expire pending changes", func(tx pgx.Tx) error {
			pending, err := s.changeRepo.ListPendingBefore(ctx, tx, today)
			if err != nil {
				return err
			}
			for _, change := range pending {
				refunded, err := s.rejecter.reject(ctx, tx, change, constants.ReasonExpired, null.Uint64{}, constants.WaitlistExpired, now)
				if err != nil {
					return err
				}
				result.ChangesExpired++
				if refunded {
					result.JokersRefunded++
				}
			}
			return nil
		}},
		{"expire waitlist", func(tx pgx.Tx) error {
			n, err := s.waitlistRepo.ExpireBefore(ctx, tx, today)
			result.WaitlistExpired = n
			return err
		}},
	}

	var errs []error
	for _, step := range steps {
		snapshot := *result
		if err := s.txManager.RunInTransaction(ctx, step.fn); err != nil {
			// the step rolled back, so do its counters
			*result = snapshot
			s.logger.Error("sweep step failed", zap.String("step", step.name), zap.Error(err))
			errs = append(errs, fmt.Errorf("%s: %w", step.name, err))
		}
	}

	s.logger.Info("daily sweep finished",
		zap.String("date", result.Date),
		zap.Int("leaves_activated", result.LeavesActivated),
		zap.Int("leaves_completed", result.LeavesCompleted),
		zap.Int64("changes_completed", result.ChangesCompleted),
		zap.Int("changes_expired", result.ChangesExpired),
		zap.Int64("waitlist_expired", result.WaitlistExpired))
	s.bus.Publish(ctx, events.SweepCompletedEvent{Result: *result})

	return result, errors.Join(errs...)
}
