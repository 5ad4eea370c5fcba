package entities

import (
	"time"

	"github.com/aarondl/null/v8"

	"studio-system/pkg/types"
)

// ScheduleChange moves one occurrence of a registration (OriginalScheduleID
// on OriginalDate) to another occurrence (TargetScheduleID on TargetDate).
type ScheduleChange struct {
	ID                 uint64      `json:"id"`
	StudentID          uint64      `json:"student_id"`
	RegistrationID     uint64      `json:"registration_id"`
	OriginalScheduleID uint64      `json:"original_schedule_id"`
	OriginalDate       time.Time   `json:"original_date"`
	TargetScheduleID   uint64      `json:"target_schedule_id"`
	TargetDate         time.Time   `json:"target_date"`
	Status             string      `json:"status"`
	UsesJoker          bool        `json:"uses_joker"`
	Waitlisted         bool        `json:"waitlisted"`
	Reason             null.String `json:"reason"`
	RejectionReason    null.String `json:"rejection_reason"`
	ReviewedBy         null.Uint64 `json:"reviewed_by"`
	ReviewedAt         null.Time   `json:"reviewed_at"`
	CompletedAt        null.Time   `json:"completed_at"`

	types.BaseEntity
}

type WaitlistEntry struct {
	ID               uint64    `json:"id"`
	ScheduleChangeID uint64    `json:"schedule_change_id"`
	ClassScheduleID  uint64    `json:"class_schedule_id"`
	ClassDate        time.Time `json:"class_date"`
	Status           string    `json:"status"`
	StudentID        uint64    `json:"student_id"`

	types.BaseEntity
}
