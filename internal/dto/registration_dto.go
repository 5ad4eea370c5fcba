package dto

import "github.com/aarondl/null/v8"

// CreateRegistrationDTO registers a student in a weekly slot. StudentID may
// be omitted by a student acting for themselves.
type CreateRegistrationDTO struct {
	StudentID       uint64 `json:"student_id" validate:"omitempty,gt=0"`
	ClassScheduleID uint64 `json:"class_schedule_id" validate:"required,gt=0"`
	StartDate       string `json:"start_date" validate:"required,date_only"`
}

type RegistrationResponseDTO struct {
	ID              uint64      `json:"id"`
	StudentID       uint64      `json:"student_id"`
	ClassScheduleID uint64      `json:"class_schedule_id"`
	DayOfWeek       int         `json:"day_of_week"`
	StartTime       string      `json:"start_time"`
	StartDate       string      `json:"start_date"`
	EndDate         null.String `json:"end_date"`
	Status          string      `json:"status"`
	CreatedAt       string      `json:"created_at"`
	UpdatedAt       string      `json:"updated_at"`
}
