package services

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"studio-system/internal/authz"
	"studio-system/internal/dto"
	"studio-system/internal/entities"
	"studio-system/internal/repositories"
	"studio-system/pkg/config"
	"studio-system/pkg/constants"
	apperrors "studio-system/pkg/errors"
	"studio-system/pkg/utils"
)

// defaultAvailabilityDays is the window used when the caller omits "to".
const defaultAvailabilityDays = 28

type AvailabilityServiceInterface interface {
	ForSchedule(ctx context.Context, scheduleID uint64, from, to string) ([]dto.AvailabilityDTO, error)
	ForDate(ctx context.Context, date string) ([]dto.AvailabilityDTO, error)
	Waitlist(ctx context.Context, scheduleID uint64, date string) ([]dto.WaitlistItemDTO, error)
}

type AvailabilityService struct {
	*BaseService
	scheduleRepo  repositories.ClassScheduleRepositoryInterface
	occupancyRepo repositories.OccupancyRepositoryInterface
	waitlistRepo  repositories.WaitlistRepositoryInterface
	booking       config.BookingConfig
	calendar      Calendar
	logger        *zap.Logger
}

func NewAvailabilityService(
	base *BaseService,
	scheduleRepo repositories.ClassScheduleRepositoryInterface,
	occupancyRepo repositories.OccupancyRepositoryInterface,
	waitlistRepo repositories.WaitlistRepositoryInterface,
	booking config.BookingConfig,
	calendar Calendar,
	logger *zap.Logger,
) AvailabilityServiceInterface {
	return &AvailabilityService{
		BaseService:   base,
		scheduleRepo:  scheduleRepo,
		occupancyRepo: occupancyRepo,
		waitlistRepo:  waitlistRepo,
		booking:       booking,
		calendar:      calendar,
		logger:        logger,
	}
}

func (s *AvailabilityService) parseRange(from, to string) (time.Time, time.Time, error) {
	start := s.calendar.Today()
	if from != "" {
		d, err := utils.ParseDate(from)
		if err != nil {
			return time.Time{}, time.Time{}, apperrors.NewInvalidInputError("%s", err.Error())
		}
		start = d
	}
	end := start.AddDate(0, 0, defaultAvailabilityDays-1)
	if to != "" {
		d, err := utils.ParseDate(to)
		if err != nil {
			return time.Time{}, time.Time{}, apperrors.NewInvalidInputError("%s", err.Error())
		}
		end = d
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, apperrors.ErrInvalidRange
	}
	if limit := s.booking.MaxAvailabilityDays; limit > 0 && utils.DaysInclusive(start, end) > limit {
		return time.Time{}, time.Time{}, apperrors.NewHttpError(http.StatusBadRequest,
			fmt.Sprintf("The range may span at most %d days", limit), apperrors.ErrInvalidRange, nil)
	}
	return start, end, nil
}

func (s *AvailabilityService) ForSchedule(ctx context.Context, scheduleID uint64, from, to string) ([]dto.AvailabilityDTO, error) {
	if _, err := authorize(ctx, authz.ClassSchedulesView, nil); err != nil {
		return nil, err
	}
	start, end, err := s.parseRange(from, to)
	if err != nil {
		return nil, err
	}
	slot, err := s.scheduleRepo.FindByID(ctx, nil, scheduleID)
	if err != nil {
		return nil, err
	}

	dates := utils.Occurrences(start, end, slot.DayOfWeek)
	out := make([]dto.AvailabilityDTO, 0, len(dates))
	for _, date := range dates {
		item, err := s.occurrence(ctx, slot, date)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, nil
}

func (s *AvailabilityService) ForDate(ctx context.Context, date string) ([]dto.AvailabilityDTO, error) {
	if _, err := authorize(ctx, authz.ClassSchedulesView, nil); err != nil {
		return nil, err
	}
	day := s.calendar.Today()
	if date != "" {
		d, err := utils.ParseDate(date)
		if err != nil {
			return nil, apperrors.NewInvalidInputError("%s", err.Error())
		}
		day = d
	}

	slots, err := s.scheduleRepo.ListActiveByWeekday(ctx, utils.ISOWeekday(day))
	if err != nil {
		return nil, err
	}
	out := make([]dto.AvailabilityDTO, 0, len(slots))
	for _, slot := range slots {
		item, err := s.occurrence(ctx, slot, day)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, nil
}

// occurrence returns the counts of slot on date, from the cache when
// possible. Listeners drop the key whenever a count may have changed.
func (s *AvailabilityService) occurrence(ctx context.Context, slot *entities.ClassSchedule, date time.Time) (dto.AvailabilityDTO, error) {
	key := fmt.Sprintf(constants.CacheKeyAvailability, slot.ID, utils.FormatDate(date))
	var cached dto.AvailabilityDTO
	if s.CacheGet(ctx, key, &cached) {
		return cached, nil
	}

	occ, err := s.occupancyRepo.Occupancy(ctx, nil, slot.ID, date)
	if err != nil {
		return dto.AvailabilityDTO{}, err
	}

	capacity := slot.Capacity()
	available := capacity - occ.Booked
	if available < 0 {
		available = 0
	}
	item := dto.AvailabilityDTO{
		ClassScheduleID: slot.ID,
		Date:            utils.FormatDate(date),
		DayOfWeek:       slot.DayOfWeek,
		StartTime:       slot.StartTime,
		EndTime:         slot.EndTime,
		StudioName:      slot.StudioName,
		Capacity:        capacity,
		Booked:          occ.Booked,
		Pending:         occ.Pending,
		Available:       available,
		Waitlisted:      occ.Waitlisted,
	}
	s.CacheSet(ctx, key, item)
	return item, nil
}

func (s *AvailabilityService) Waitlist(ctx context.Context, scheduleID uint64, date string) ([]dto.WaitlistItemDTO, error) {
	authContext, err := authorize(ctx, authz.ScheduleChangesView, nil)
	if err != nil {
		return nil, err
	}
	if !authContext.IsStaff() {
		return nil, apperrors.ErrForbidden
	}
	day, err := utils.ParseDate(date)
	if err != nil {
		return nil, apperrors.NewInvalidInputError("%s", err.Error())
	}
	if _, err := s.scheduleRepo.FindByID(ctx, nil, scheduleID); err != nil {
		return nil, err
	}

	entries, err := s.waitlistRepo.ListWaiting(ctx, nil, scheduleID, day)
	if err != nil {
		return nil, err
	}
	out := make([]dto.WaitlistItemDTO, 0, len(entries))
	for i, e := range entries {
		out = append(out, dto.WaitlistItemDTO{
			Position:         i + 1,
			ID:               e.ID,
			ScheduleChangeID: e.ScheduleChangeID,
			StudentID:        e.StudentID,
			ClassDate:        utils.FormatDate(e.ClassDate),
			CreatedAt:        formatTimestamp(e.CreatedAt),
		})
	}
	return out, nil
}
