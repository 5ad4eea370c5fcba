package listeners

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"studio-system/internal/events"
	"studio-system/pkg/eventbus"
	"studio-system/pkg/utils"
)

// AuditListener writes one structured line per business event to the
// "audit" logger. Every line carries its own audit_id.
type AuditListener struct {
	logger *zap.Logger
	newID  func() string
}

func NewAuditListener(logger *zap.Logger) *AuditListener {
	return &AuditListener{logger: logger.Named("audit"), newID: uuid.NewString}
}

func (l *AuditListener) Register(bus *eventbus.Bus) {
	for _, name := range []string{
		events.ScheduleChangeCreated,
		events.ScheduleChangeApproved,
		events.ScheduleChangeRejected,
		events.RegistrationChanged,
		events.LeaveChanged,
		events.ClassScheduleChanged,
		events.JokersAllocated,
		events.SweepCompleted,
	} {
		bus.Subscribe(name, l.handle)
	}
}

func (l *AuditListener) handle(_ context.Context, event eventbus.Event) error {
	fields := []zap.Field{
		zap.String("audit_id", l.newID()),
		zap.String("event", event.Name()),
	}

	switch e := event.(type) {
	case events.ScheduleChangeEvent:
		fields = append(fields,
			zap.Uint64("actor_id", e.ActorID),
			zap.Uint64("schedule_change_id", e.Change.ID),
			zap.Uint64("student_id", e.Change.StudentID),
			zap.String("status", e.Change.Status),
			zap.String("original_date", utils.FormatDate(e.Change.OriginalDate)),
			zap.String("target_date", utils.FormatDate(e.Change.TargetDate)),
			zap.Bool("uses_joker", e.Change.UsesJoker),
			zap.Bool("waitlisted", e.Change.Waitlisted))
		if len(e.Promoted) > 0 {
			promoted := make([]uint64, 0, len(e.Promoted))
			for _, p := range e.Promoted {
				promoted = append(promoted, p.ScheduleChangeID)
			}
			fields = append(fields, zap.Uint64s("promoted_changes", promoted))
		}
	case events.RegistrationChangedEvent:
		fields = append(fields,
			zap.String("action", e.Action),
			zap.Uint64("actor_id", e.ActorID),
			zap.Uint64("registration_id", e.Registration.ID),
			zap.Uint64("student_id", e.Registration.StudentID),
			zap.Int("rejected_changes", len(e.Rejected)))
	case events.LeaveChangedEvent:
		fields = append(fields,
			zap.String("action", e.Action),
			zap.Uint64("actor_id", e.ActorID),
			zap.Uint64("leave_id", e.Leave.ID),
			zap.Uint64("student_id", e.Leave.StudentID),
			zap.String("status", e.Leave.Status))
	case events.ClassScheduleChangedEvent:
		fields = append(fields,
			zap.String("action", e.Action),
			zap.Uint64("actor_id", e.ActorID),
			zap.Uint64("class_schedule_id", e.ScheduleID))
	case events.JokersAllocatedEvent:
		fields = append(fields,
			zap.String("month", e.Allocation.Month),
			zap.Int("students", e.Allocation.Students),
			zap.Int("created", e.Allocation.Created))
	case events.SweepCompletedEvent:
		fields = append(fields, zap.Any("result", e.Result))
	}

	l.logger.Info("audit", fields...)
	return nil
}
