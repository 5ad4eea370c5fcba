package entities

import (
	"github.com/aarondl/null/v8"

	"studio-system/pkg/types"
)

// ClassSchedule is a weekly slot: every DayOfWeek from StartTime to EndTime.
type ClassSchedule struct {
	ID               uint64      `json:"id"`
	StudioID         uint64      `json:"studio_id"`
	InstructorID     null.Uint64 `json:"instructor_id"`
	DayOfWeek        int         `json:"day_of_week"`
	StartTime        string      `json:"start_time"`
	EndTime          string      `json:"end_time"`
	CapacityOverride null.Int    `json:"capacity_override"`
	Status           string      `json:"status"`

	StudioName     string `json:"studio_name"`
	StudioCapacity int    `json:"studio_capacity"`

	types.BaseEntity
}

func (s *ClassSchedule) Capacity() int {
	if s.CapacityOverride.Valid {
		return s.CapacityOverride.Int
	}
	return s.StudioCapacity
}
