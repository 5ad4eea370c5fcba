package entities

import (
	"time"

	"github.com/aarondl/null/v8"
	"github.com/shopspring/decimal"

	"studio-system/pkg/types"
)

type TemporaryLeave struct {
	ID        uint64      `json:"id"`
	StudentID uint64      `json:"student_id"`
	StartDate time.Time   `json:"start_date"`
	EndDate   time.Time   `json:"end_date"`
	Reason    null.String `json:"reason"`
	Status    string      `json:"status"`

	types.BaseEntity
}

func (l *TemporaryLeave) Covers(date time.Time) bool {
	return !date.Before(l.StartDate) && !date.After(l.EndDate)
}

// Weeks counts started weeks, so 8 days are 2 weeks.
func (l *TemporaryLeave) Weeks() int {
	days := int(l.EndDate.Sub(l.StartDate).Hours()/24) + 1
	return (days + 6) / 7
}

type TravelFeeMovement struct {
	ID        uint64          `json:"id"`
	StudentID uint64          `json:"student_id"`
	LeaveID   null.Uint64     `json:"leave_id"`
	Kind      string          `json:"kind"`
	Amount    decimal.Decimal `json:"amount"`
	Note      null.String     `json:"note"`
	CreatedBy null.Uint64     `json:"created_by"`
	CreatedAt time.Time       `json:"created_at"`
}
