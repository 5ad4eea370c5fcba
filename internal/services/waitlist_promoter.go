package services

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"studio-system/internal/entities"
	"studio-system/internal/repositories"
	"studio-system/pkg/constants"
	apperrors "studio-system/pkg/errors"
	"studio-system/pkg/utils"
)

// WaitlistPromoter hands freed seats to waiting requests in FIFO order.
// A promoted request becomes approvable; it is not approved automatically.
type WaitlistPromoter struct {
	scheduleRepo  repositories.ClassScheduleRepositoryInterface
	occupancyRepo repositories.OccupancyRepositoryInterface
	waitlistRepo  repositories.WaitlistRepositoryInterface
	changeRepo    repositories.ScheduleChangeRepositoryInterface
	logger        *zap.Logger
}

func NewWaitlistPromoter(
	scheduleRepo repositories.ClassScheduleRepositoryInterface,
	occupancyRepo repositories.OccupancyRepositoryInterface,
	waitlistRepo repositories.WaitlistRepositoryInterface,
	changeRepo repositories.ScheduleChangeRepositoryInterface,
	logger *zap.Logger,
) *WaitlistPromoter {
	return &WaitlistPromoter{
		scheduleRepo:  scheduleRepo,
		occupancyRepo: occupancyRepo,
		waitlistRepo:  waitlistRepo,
		changeRepo:    changeRepo,
		logger:        logger,
	}
}

// Promote pops waiting entries of one occurrence while booked plus pending
// seats stay below capacity. The slot row is locked first.
func (p *WaitlistPromoter) Promote(ctx context.Context, tx pgx.Tx, scheduleID uint64, date time.Time) ([]entities.WaitlistEntry, error) {
	slot, err := p.scheduleRepo.LockByID(ctx, tx, scheduleID)
	if err != nil {
		return nil, err
	}
	occ, err := p.occupancyRepo.Occupancy(ctx, tx, scheduleID, date)
	if err != nil {
		return nil, err
	}

	claimed := occ.Booked + occ.Pending
	var promoted []entities.WaitlistEntry
	for claimed < slot.Capacity() {
		head, err := p.waitlistRepo.LockHead(ctx, tx, scheduleID, date)
		if errors.Is(err, apperrors.ErrNotFound) {
			break
		}
		if err != nil {
			return nil, err
		}
		if err := p.waitlistRepo.SetStatus(ctx, tx, head.ID, constants.WaitlistPromoted); err != nil {
			return nil, err
		}
		if err := p.changeRepo.SetWaitlisted(ctx, tx, head.ScheduleChangeID, false); err != nil {
			return nil, err
		}
		head.Status = constants.WaitlistPromoted
		promoted = append(promoted, *head)
		claimed++

		p.logger.Info("waitlist entry promoted",
			zap.Uint64("entry_id", head.ID),
			zap.Uint64("schedule_change_id", head.ScheduleChangeID),
			zap.Uint64("class_schedule_id", scheduleID),
			zap.String("date", utils.FormatDate(date)))
	}
	return promoted, nil
}

// PromoteRange runs Promote for every date in [from, to] that has waiting
// entries on the slot.
func (p *WaitlistPromoter) PromoteRange(ctx context.Context, tx pgx.Tx, scheduleID uint64, from, to time.Time) ([]entities.WaitlistEntry, error) {
	dates, err := p.waitlistRepo.WaitingDates(ctx, tx, scheduleID, from, to)
	if err != nil {
		return nil, err
	}
	var promoted []entities.WaitlistEntry
	for _, date := range dates {
		entries, err := p.Promote(ctx, tx, scheduleID, date)
		if err != nil {
			return nil, err
		}
		promoted = append(promoted, entries...)
	}
	return promoted, nil
}
