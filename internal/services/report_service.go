package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"studio-system/internal/authz"
	"studio-system/internal/dto"
	"studio-system/internal/entities"
	"studio-system/internal/repositories"
	apperrors "studio-system/pkg/errors"
	"studio-system/pkg/utils"
)

type ReportServiceInterface interface {
	ScheduleChangeSummary(ctx context.Context, month string) (*dto.ScheduleChangeReportDTO, error)
	ScheduleChangeItems(ctx context.Context, month string) ([]entities.ScheduleChangeReportItem, time.Time, error)
}

type reportService struct {
	reportRepo repositories.ReportRepositoryInterface
	calendar   Calendar
	logger     *zap.Logger
}

func NewReportService(reportRepo repositories.ReportRepositoryInterface, calendar Calendar, logger *zap.Logger) ReportServiceInterface {
	return &reportService{reportRepo: reportRepo, calendar: calendar, logger: logger}
}

// reportMonth authorizes the caller and resolves the month, the current one
// when empty.
func (s *reportService) reportMonth(ctx context.Context, month string) (time.Time, error) {
	authContext, err := authorize(ctx, authz.ReportsView, nil)
	if err != nil {
		return time.Time{}, err
	}
	if !authContext.IsStaff() {
		s.logger.Warn("report requested by a student actor", zap.Uint64("user_id", authContext.ActorID))
		return time.Time{}, apperrors.ErrForbidden
	}
	if month == "" {
		return utils.MonthStart(s.calendar.Today()), nil
	}
	period, err := utils.ParseMonth(month)
	if err != nil {
		return time.Time{}, apperrors.NewInvalidInputError("%s", err.Error())
	}
	return period, nil
}

func (s *reportService) ScheduleChangeSummary(ctx context.Context, month string) (*dto.ScheduleChangeReportDTO, error) {
	period, err := s.reportMonth(ctx, month)
	if err != nil {
		return nil, err
	}
	counts, err := s.reportRepo.ScheduleChangeSummary(ctx, period)
	if err != nil {
		return nil, err
	}

	out := &dto.ScheduleChangeReportDTO{
		Month:    period.Format(utils.MonthLayout),
		ByStatus: make([]dto.StatusCountDTO, 0, len(counts)),
	}
	for _, c := range counts {
		out.Total += c.Total
		out.JokersUsed += c.WithJoker
		out.ByStatus = append(out.ByStatus, dto.StatusCountDTO{
			Status:     c.Status,
			Total:      c.Total,
			WithJoker:  c.WithJoker,
			Waitlisted: c.Waitlisted,
		})
	}
	return out, nil
}

// ScheduleChangeItems returns the rows of the monthly export and the month
// they belong to.
func (s *reportService) ScheduleChangeItems(ctx context.Context, month string) ([]entities.ScheduleChangeReportItem, time.Time, error) {
	period, err := s.reportMonth(ctx, month)
	if err != nil {
		return nil, time.Time{}, err
	}
	items, err := s.reportRepo.ScheduleChangeItems(ctx, period)
	if err != nil {
		return nil, time.Time{}, err
	}
	return items, period, nil
}
