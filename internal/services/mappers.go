package services

import (
	"time"

	"github.com/aarondl/null/v8"

	"studio-system/internal/dto"
	"studio-system/internal/entities"
	"studio-system/pkg/utils"
)

func formatTimestamp(t time.Time) string {
	return t.Format(time.RFC3339)
}

func formatNullTime(t null.Time) *string {
	if !t.Valid {
		return nil
	}
	s := t.Time.Format(time.RFC3339)
	return &s
}

func classScheduleToDTO(s *entities.ClassSchedule) *dto.ClassScheduleResponseDTO {
	if s == nil {
		return nil
	}
	return &dto.ClassScheduleResponseDTO{
		ID:               s.ID,
		StudioID:         s.StudioID,
		StudioName:       s.StudioName,
		InstructorID:     s.InstructorID,
		DayOfWeek:        s.DayOfWeek,
		StartTime:        s.StartTime,
		EndTime:          s.EndTime,
		Capacity:         s.Capacity(),
		CapacityOverride: s.CapacityOverride,
		Status:           s.Status,
		CreatedAt:        formatTimestamp(s.CreatedAt),
		UpdatedAt:        formatTimestamp(s.UpdatedAt),
	}
}

func registrationToDTO(r *entities.StudentClassRegistration) *dto.RegistrationResponseDTO {
	if r == nil {
		return nil
	}
	out := &dto.RegistrationResponseDTO{
		ID:              r.ID,
		StudentID:       r.StudentID,
		ClassScheduleID: r.ClassScheduleID,
		DayOfWeek:       r.DayOfWeek,
		StartTime:       r.StartTime,
		StartDate:       utils.FormatDate(r.StartDate),
		Status:          r.Status,
		CreatedAt:       formatTimestamp(r.CreatedAt),
		UpdatedAt:       formatTimestamp(r.UpdatedAt),
	}
	if r.EndDate.Valid {
		out.EndDate = null.StringFrom(utils.FormatDate(r.EndDate.Time))
	}
	return out
}

func scheduleChangeToDTO(c *entities.ScheduleChange) *dto.ScheduleChangeResponseDTO {
	if c == nil {
		return nil
	}
	return &dto.ScheduleChangeResponseDTO{
		ID:                 c.ID,
		StudentID:          c.StudentID,
		RegistrationID:     c.RegistrationID,
		OriginalScheduleID: c.OriginalScheduleID,
		OriginalDate:       utils.FormatDate(c.OriginalDate),
		TargetScheduleID:   c.TargetScheduleID,
		TargetDate:         utils.FormatDate(c.TargetDate),
		Status:             c.Status,
		UsesJoker:          c.UsesJoker,
		Waitlisted:         c.Waitlisted,
		Reason:             c.Reason,
		RejectionReason:    c.RejectionReason,
		ReviewedBy:         c.ReviewedBy,
		ReviewedAt:         formatNullTime(c.ReviewedAt),
		CompletedAt:        formatNullTime(c.CompletedAt),
		CreatedAt:          formatTimestamp(c.CreatedAt),
		UpdatedAt:          formatTimestamp(c.UpdatedAt),
	}
}

func leaveToDTO(l *entities.TemporaryLeave) *dto.LeaveResponseDTO {
	if l == nil {
		return nil
	}
	return &dto.LeaveResponseDTO{
		ID:        l.ID,
		StudentID: l.StudentID,
		StartDate: utils.FormatDate(l.StartDate),
		EndDate:   utils.FormatDate(l.EndDate),
		Weeks:     l.Weeks(),
		Reason:    l.Reason,
		Status:    l.Status,
		CreatedAt: formatTimestamp(l.CreatedAt),
		UpdatedAt: formatTimestamp(l.UpdatedAt),
	}
}

func movementToDTO(m *entities.TravelFeeMovement) dto.TravelFeeMovementDTO {
	return dto.TravelFeeMovementDTO{
		ID:        m.ID,
		LeaveID:   m.LeaveID,
		Kind:      m.Kind,
		Amount:    m.Amount,
		Note:      m.Note,
		CreatedBy: m.CreatedBy,
		CreatedAt: formatTimestamp(m.CreatedAt),
	}
}
