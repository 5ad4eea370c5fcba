package events

import (
	"time"

	"studio-system/internal/dto"
	"studio-system/internal/entities"
)

const (
	ScheduleChangeCreated  = "schedule_change.created"
	ScheduleChangeApproved = "schedule_change.approved"
	ScheduleChangeRejected = "schedule_change.rejected"
	RegistrationChanged    = "registration.changed"
	LeaveChanged           = "leave.changed"
	ClassScheduleChanged   = "class_schedule.changed"
	JokersAllocated        = "jokers.allocated"
	SweepCompleted         = "sweep.completed"
)

// Occurrence identifies one class: a schedule on a date.
type Occurrence struct {
	ScheduleID uint64
	Date       time.Time
}

// ScheduleChangeEvent is published for created, approved and rejected
// requests. Promoted lists waitlist entries that gained a seat.
type ScheduleChangeEvent struct {
	Event    string
	Change   entities.ScheduleChange
	ActorID  uint64
	Promoted []entities.WaitlistEntry
}

func (e ScheduleChangeEvent) Name() string { return e.Event }

// Occurrences are the classes whose counts the change touched.
func (e ScheduleChangeEvent) Occurrences() []Occurrence {
	out := []Occurrence{
		{ScheduleID: e.Change.OriginalScheduleID, Date: e.Change.OriginalDate},
		{ScheduleID: e.Change.TargetScheduleID, Date: e.Change.TargetDate},
	}
	for _, p := range e.Promoted {
		out = append(out, Occurrence{ScheduleID: p.ClassScheduleID, Date: p.ClassDate})
	}
	return out
}

type RegistrationChangedEvent struct {
	Action       string
	Registration entities.StudentClassRegistration
	ActorID      uint64
	Rejected     []entities.ScheduleChange
}

func (e RegistrationChangedEvent) Name() string { return RegistrationChanged }

type LeaveChangedEvent struct {
	Action      string
	Leave       entities.TemporaryLeave
	ActorID     uint64
	ScheduleIDs []uint64
}

func (e LeaveChangedEvent) Name() string { return LeaveChanged }

type ClassScheduleChangedEvent struct {
	Action     string
	ScheduleID uint64
	ActorID    uint64
}

func (e ClassScheduleChangedEvent) Name() string { return ClassScheduleChanged }

type JokersAllocatedEvent struct {
	Allocation dto.JokerAllocationDTO
}

func (e JokersAllocatedEvent) Name() string { return JokersAllocated }

type SweepCompletedEvent struct {
	Result dto.SweepResultDTO
}

func (e SweepCompletedEvent) Name() string { return SweepCompleted }

// Actions carried by the *ChangedEvent types.
const (
	ActionCreated   = "created"
	ActionUpdated   = "updated"
	ActionDeleted   = "deleted"
	ActionCancelled = "cancelled"
)
