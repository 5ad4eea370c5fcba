package dto

import "github.com/aarondl/null/v8"

type CreateClassScheduleDTO struct {
	StudioID         uint64      `json:"studio_id" validate:"required,gt=0"`
	InstructorID     null.Uint64 `json:"instructor_id"`
	DayOfWeek        int         `json:"day_of_week" validate:"required,weekday"`
	StartTime        string      `json:"start_time" validate:"required,clock"`
	EndTime          string      `json:"end_time" validate:"required,clock"`
	CapacityOverride null.Int    `json:"capacity_override" validate:"omitempty,gte=1,lte=100"`
	Status           string      `json:"status" validate:"omitempty,oneof=ACTIVE INACTIVE"`
}

// UpdateClassScheduleDTO is a partial update; nil fields keep their value.
// ClearCapacityOverride drops the override so the studio capacity applies.
type UpdateClassScheduleDTO struct {
	StudioID              *uint64     `json:"studio_id" validate:"omitempty,gt=0"`
	InstructorID          null.Uint64 `json:"instructor_id"`
	DayOfWeek             *int        `json:"day_of_week" validate:"omitempty,weekday"`
	StartTime             *string     `json:"start_time" validate:"omitempty,clock"`
	EndTime               *string     `json:"end_time" validate:"omitempty,clock"`
	CapacityOverride      null.Int    `json:"capacity_override" validate:"omitempty,gte=1,lte=100"`
	ClearCapacityOverride bool        `json:"clear_capacity_override"`
	Status                *string     `json:"status" validate:"omitempty,oneof=ACTIVE INACTIVE"`
}

type ClassScheduleResponseDTO struct {
	ID               uint64      `json:"id"`
	StudioID         uint64      `json:"studio_id"`
	StudioName       string      `json:"studio_name"`
	InstructorID     null.Uint64 `json:"instructor_id"`
	DayOfWeek        int         `json:"day_of_week"`
	StartTime        string      `json:"start_time"`
	EndTime          string      `json:"end_time"`
	Capacity         int         `json:"capacity"`
	CapacityOverride null.Int    `json:"capacity_override"`
	Status           string      `json:"status"`
	CreatedAt        string      `json:"created_at"`
	UpdatedAt        string      `json:"updated_at"`
}
