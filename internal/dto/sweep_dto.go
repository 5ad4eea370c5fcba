package dto

// SweepResultDTO counts what one daily sweep changed.
type SweepResultDTO struct {
	Date                 string `json:"date"`
	LeavesActivated      int    `json:"leaves_activated"`
	RegistrationsPaused  int64  `json:"registrations_paused"`
	LeavesCompleted      int    `json:"leaves_completed"`
	RegistrationsResumed int64  `json:"registrations_resumed"`
	ChangesCompleted     int64  `json:"changes_completed"`
	ChangesExpired       int    `json:"changes_expired"`
	JokersRefunded       int    `json:"jokers_refunded"`
	WaitlistExpired      int64  `json:"waitlist_expired"`
}
