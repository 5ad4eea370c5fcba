package entities

import (
	"time"

	"github.com/aarondl/null/v8"
)

type ScheduleChangeStatusCount struct {
	Status     string
	Total      int
	WithJoker  int
	Waitlisted int
}

// ScheduleChangeReportItem is one row of the monthly export.
type ScheduleChangeReportItem struct {
	ID                uint64
	StudentName       string
	OriginalDate      time.Time
	OriginalDayOfWeek int
	OriginalStartTime string
	TargetDate        time.Time
	TargetDayOfWeek   int
	TargetStartTime   string
	TargetStudio      string
	Status            string
	UsesJoker         bool
	Waitlisted        bool
	Reason            null.String
	RejectionReason   null.String
	CreatedAt         time.Time
	ReviewedAt        null.Time
}
