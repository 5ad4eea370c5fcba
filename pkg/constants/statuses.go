package constants

// Class schedule statuses
const (
	ScheduleActive   = "ACTIVE"
	ScheduleInactive = "INACTIVE"
)

// Student class registration statuses
const (
	RegistrationActive    = "ACTIVE"
	RegistrationOnLeave   = "ON_LEAVE"
	RegistrationCancelled = "CANCELLED"
)

// Schedule change (reschedule request) statuses
const (
	ChangePending   = "PENDING"
	ChangeApproved  = "APPROVED"
	ChangeRejected  = "REJECTED"
	ChangeCompleted = "COMPLETED"
)

// Waitlist entry statuses
const (
	WaitlistWaiting   = "WAITING"
	WaitlistPromoted  = "PROMOTED"
	WaitlistCancelled = "CANCELLED"
	WaitlistExpired   = "EXPIRED"
)

// Temporary leave statuses
const (
	LeaveScheduled = "SCHEDULED"
	LeaveActive    = "ACTIVE"
	LeaveCompleted = "COMPLETED"
	LeaveCancelled = "CANCELLED"
)

// Travel fee movement kinds
const (
	MovementCharge   = "CHARGE"
	MovementPayment  = "PAYMENT"
	MovementReversal = "REVERSAL"
)

// Rejection reasons written by the system
const (
	ReasonExpired = "expired: the class date passed without review"
)

// ChangeTransitions lists the allowed status moves of a schedule change.
var ChangeTransitions = map[string][]string{
	ChangePending:  {ChangeApproved, ChangeRejected},
	ChangeApproved: {ChangeCompleted},
}

func CanTransition(from, to string) bool {
	for _, s := range ChangeTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// SeatHoldingChangeStatuses are the change statuses that occupy the target seat.
var SeatHoldingChangeStatuses = []string{ChangeApproved, ChangeCompleted}

// LiveChangeStatuses block another request for the same original class.
var LiveChangeStatuses = []string{ChangePending, ChangeApproved, ChangeCompleted}

// LiveRegistrationStatuses count towards the weekly class count.
var LiveRegistrationStatuses = []string{RegistrationActive, RegistrationOnLeave}

// OpenLeaveStatuses are leaves that still reserve their dates.
var OpenLeaveStatuses = []string{LeaveScheduled, LeaveActive}
