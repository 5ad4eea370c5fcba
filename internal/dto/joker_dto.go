package dto

type JokerSummaryDTO struct {
	StudentID     uint64 `json:"student_id"`
	Month         string `json:"month"`
	Allotted      int    `json:"allotted"`
	Used          int    `json:"used"`
	Available     int    `json:"available"`
	WeeklyClasses int    `json:"weekly_classes"`
}

type JokerAllocationDTO struct {
	Month    string `json:"month"`
	Students int    `json:"students"`
	Created  int    `json:"created"`
}
