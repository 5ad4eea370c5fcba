package constants

// Redis key formats.
const (
	// availability:<schedule_id>:<YYYY-MM-DD> -> JSON dto.AvailabilityDTO
	CacheKeyAvailability = "availability:%d:%s"

	// jokers:<student_id>:<YYYY-MM> -> JSON dto.JokerSummaryDTO
	CacheKeyJokers = "jokers:%d:%s"
)
