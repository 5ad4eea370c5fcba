package dto

import "github.com/aarondl/null/v8"

type CreateScheduleChangeDTO struct {
	RegistrationID   uint64      `json:"registration_id" validate:"required,gt=0"`
	OriginalDate     string      `json:"original_date" validate:"required,date_only"`
	TargetScheduleID uint64      `json:"target_schedule_id" validate:"required,gt=0"`
	TargetDate       string      `json:"target_date" validate:"required,date_only"`
	Reason           null.String `json:"reason" validate:"omitempty,max=500"`
	// WaiveJoker is honoured for staff only.
	WaiveJoker bool `json:"waive_joker"`
}

type RejectScheduleChangeDTO struct {
	Reason string `json:"reason" validate:"required,min=3,max=500"`
}

type ScheduleChangeResponseDTO struct {
	ID                 uint64      `json:"id"`
	StudentID          uint64      `json:"student_id"`
	RegistrationID     uint64      `json:"registration_id"`
	OriginalScheduleID uint64      `json:"original_schedule_id"`
	OriginalDate       string      `json:"original_date"`
	TargetScheduleID   uint64      `json:"target_schedule_id"`
	TargetDate         string      `json:"target_date"`
	Status             string      `json:"status"`
	UsesJoker          bool        `json:"uses_joker"`
	Waitlisted         bool        `json:"waitlisted"`
	WaitlistPosition   int         `json:"waitlist_position,omitempty"`
	Reason             null.String `json:"reason"`
	RejectionReason    null.String `json:"rejection_reason"`
	ReviewedBy         null.Uint64 `json:"reviewed_by"`
	ReviewedAt         *string     `json:"reviewed_at"`
	CompletedAt        *string     `json:"completed_at"`
	CreatedAt          string      `json:"created_at"`
	UpdatedAt          string      `json:"updated_at"`
}
