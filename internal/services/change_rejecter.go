package services

import (
	"context"
	"time"

	"github.com/aarondl/null/v8"
	"github.com/jackc/pgx/v5"

	"studio-system/internal/entities"
	"studio-system/internal/repositories"
	"studio-system/pkg/constants"
	"studio-system/pkg/utils"
)

// changeRejecter closes a PENDING change: the change is rejected, its joker
// goes back to the month it was taken from and its waitlist entry, if any,
// leaves the queue with waitlistStatus.
type changeRejecter struct {
	changeRepo   repositories.ScheduleChangeRepositoryInterface
	jokerRepo    repositories.JokerRepositoryInterface
	waitlistRepo repositories.WaitlistRepositoryInterface
}

// reject reports whether a joker was refunded.
func (r changeRejecter) reject(ctx context.Context, tx pgx.Tx, change *entities.ScheduleChange,
	reason string, reviewer null.Uint64, waitlistStatus string, at time.Time,
) (bool, error) {
	if err := r.changeRepo.Reject(ctx, tx, change.ID, reason, reviewer, at); err != nil {
		return false, err
	}

	refunded := false
	if change.UsesJoker {
		var err error
		refunded, err = r.jokerRepo.Refund(ctx, tx, change.StudentID, utils.MonthStart(change.OriginalDate))
		if err != nil {
			return false, err
		}
	}

	if _, err := r.waitlistRepo.SetStatusByChange(ctx, tx, change.ID, constants.WaitlistWaiting, waitlistStatus); err != nil {
		return false, err
	}

	change.Status = constants.ChangeRejected
	change.RejectionReason = null.StringFrom(reason)
	change.Waitlisted = false
	return refunded, nil
}
