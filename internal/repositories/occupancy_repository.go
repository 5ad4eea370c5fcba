package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"studio-system/pkg/constants"
)

// Occupancy of one class occurrence (slot on a date).
type Occupancy struct {
	// Booked seats: regular students present that day plus approved moves in,
	// minus approved moves out.
	Booked int
	// Pending requests targeting the occurrence that are not waitlisted.
	Pending int
	// Waiting entries on the occurrence waitlist.
	Waitlisted int
}

// A registration counts on $2 when it is live, covers the date and its
// student has no open leave covering the date. Moves out only count for
// such registrations, so a student on leave is never subtracted twice.
const occupancyQuery = `
WITH present AS (
	SELECT r.id
	FROM student_class_registrations r
	WHERE r.class_schedule_id = $1
	  AND r.status = ANY($3)
	  AND r.start_date <= $2
	  AND (r.end_date IS NULL OR r.end_date >= $2)
	  AND NOT EXISTS (
		SELECT 1 FROM temporary_leaves l
		WHERE l.student_id = r.student_id
		  AND l.status = ANY($4)
		  AND l.start_date <= $2 AND l.end_date >= $2
	  )
)
SELECT
	(SELECT COUNT(*) FROM present)
	- (SELECT COUNT(*) FROM schedule_changes c
	   WHERE c.original_schedule_id = $1 AND c.original_date = $2
	     AND c.status = ANY($5) AND c.registration_id IN (SELECT id FROM present))
	+ (SELECT COUNT(*) FROM schedule_changes c
	   WHERE c.target_schedule_id = $1 AND c.target_date = $2 AND c.status = ANY($5)),
	(SELECT COUNT(*) FROM schedule_changes c
	 WHERE c.target_schedule_id = $1 AND c.target_date = $2
	   AND c.status = $6 AND NOT c.waitlisted),
	(SELECT COUNT(*) FROM waitlist_entries w
	 WHERE w.class_schedule_id = $1 AND w.class_date = $2 AND w.status = $7)`

type OccupancyRepositoryInterface interface {
	Occupancy(ctx context.Context, tx pgx.Tx, scheduleID uint64, date time.Time) (Occupancy, error)
}

type occupancyRepository struct {
	storage *pgxpool.Pool
}

func NewOccupancyRepository(storage *pgxpool.Pool) OccupancyRepositoryInterface {
	return &occupancyRepository{storage: storage}
}

func (r *occupancyRepository) getQuerier(tx pgx.Tx) Querier {
	if tx != nil {
		return tx
	}
	return r.storage
}

func (r *occupancyRepository) Occupancy(ctx context.Context, tx pgx.Tx, scheduleID uint64, date time.Time) (Occupancy, error) {
	var o Occupancy
	err := r.getQuerier(tx).QueryRow(ctx, occupancyQuery,
		scheduleID,
		date,
		constants.LiveRegistrationStatuses,
		constants.OpenLeaveStatuses,
		constants.SeatHoldingChangeStatuses,
		constants.ChangePending,
		constants.WaitlistWaiting,
	).Scan(&o.Booked, &o.Pending, &o.Waitlisted)
	if err != nil {
		return Occupancy{}, fmt.Errorf("occupancy of schedule %d on %s: %w", scheduleID, date.Format("2006-01-02"), err)
	}
	return o, nil
}
