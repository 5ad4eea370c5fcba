package entities

import (
	"time"

	"github.com/aarondl/null/v8"

	"studio-system/pkg/types"
)

type StudentClassRegistration struct {
	ID              uint64    `json:"id"`
	StudentID       uint64    `json:"student_id"`
	ClassScheduleID uint64    `json:"class_schedule_id"`
	StartDate       time.Time `json:"start_date"`
	EndDate         null.Time `json:"end_date"`
	Status          string    `json:"status"`

	DayOfWeek int    `json:"day_of_week"`
	StartTime string `json:"start_time"`

	types.BaseEntity
}

// Covers reports whether date lies within the registration period.
func (r *StudentClassRegistration) Covers(date time.Time) bool {
	if date.Before(r.StartDate) {
		return false
	}
	return !r.EndDate.Valid || !date.After(r.EndDate.Time)
}
