package dto

type StatusCountDTO struct {
	Status     string `json:"status"`
	Total      int    `json:"total"`
	WithJoker  int    `json:"with_joker"`
	Waitlisted int    `json:"waitlisted"`
}

type ScheduleChangeReportDTO struct {
	Month      string           `json:"month"`
	Total      int              `json:"total"`
	JokersUsed int              `json:"jokers_used"`
	ByStatus   []StatusCountDTO `json:"by_status"`
}
