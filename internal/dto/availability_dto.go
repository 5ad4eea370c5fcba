package dto

// AvailabilityDTO describes one occurrence of a class schedule.
type AvailabilityDTO struct {
	ClassScheduleID uint64 `json:"class_schedule_id"`
	Date            string `json:"date"`
	DayOfWeek       int    `json:"day_of_week"`
	StartTime       string `json:"start_time"`
	EndTime         string `json:"end_time"`
	StudioName      string `json:"studio_name"`
	Capacity        int    `json:"capacity"`
	Booked          int    `json:"booked"`
	Pending         int    `json:"pending"`
	Available       int    `json:"available"`
	Waitlisted      int    `json:"waitlisted"`
}

type WaitlistItemDTO struct {
	Position         int    `json:"position"`
	ID               uint64 `json:"id"`
	ScheduleChangeID uint64 `json:"schedule_change_id"`
	StudentID        uint64 `json:"student_id"`
	ClassDate        string `json:"class_date"`
	CreatedAt        string `json:"created_at"`
}
