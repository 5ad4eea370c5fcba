package listeners

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"studio-system/internal/events"
	"studio-system/internal/repositories"
	"studio-system/pkg/constants"
	"studio-system/pkg/eventbus"
	"studio-system/pkg/utils"
)

// CacheListener drops cached availability counts and joker summaries after
// every write that may have changed them.
type CacheListener struct {
	cache  repositories.CacheRepositoryInterface
	logger *zap.Logger
}

func NewCacheListener(cache repositories.CacheRepositoryInterface, logger *zap.Logger) *CacheListener {
	return &CacheListener{cache: cache, logger: logger}
}

func (l *CacheListener) Register(bus *eventbus.Bus) {
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
	l.logger.Info("cache listener subscribed")
}

func occurrenceKey(o events.Occurrence) string {
	return fmt.Sprintf(constants.CacheKeyAvailability, o.ScheduleID, utils.FormatDate(o.Date))
}

func scheduleKeys(scheduleID uint64) string {
	return fmt.Sprintf("availability:%d:*", scheduleID)
}

func studentJokerKeys(studentID uint64) string {
	return fmt.Sprintf(constants.CacheKeyJokers, studentID, "*")
}

func (l *CacheListener) handle(ctx context.Context, event eventbus.Event) error {
	var keys, patterns []string

	switch e := event.(type) {
	case events.ScheduleChangeEvent:
		for _, o := range e.Occurrences() {
			keys = append(keys, occurrenceKey(o))
		}
		keys = append(keys, fmt.Sprintf(constants.CacheKeyJokers, e.Change.StudentID, e.Change.OriginalDate.Format(utils.MonthLayout)))
	case events.RegistrationChangedEvent:
		patterns = append(patterns, scheduleKeys(e.Registration.ClassScheduleID), studentJokerKeys(e.Registration.StudentID))
		for _, c := range e.Rejected {
			keys = append(keys, occurrenceKey(events.Occurrence{ScheduleID: c.TargetScheduleID, Date: c.TargetDate}))
		}
	case events.LeaveChangedEvent:
		for _, id := range e.ScheduleIDs {
			patterns = append(patterns, scheduleKeys(id))
		}
	case events.ClassScheduleChangedEvent:
		patterns = append(patterns, scheduleKeys(e.ScheduleID))
	case events.JokersAllocatedEvent:
		patterns = append(patterns, fmt.Sprintf("jokers:*:%s", e.Allocation.Month))
	case events.SweepCompletedEvent:
		patterns = append(patterns, "availability:*", "jokers:*")
	default:
		return nil
	}

	var errs []error
	if len(keys) > 0 {
		if err := l.cache.Del(ctx, keys...); err != nil {
			errs = append(errs, err)
		}
	}
	for _, pattern := range patterns {
		if _, err := l.cache.DelPattern(ctx, pattern); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", pattern, err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalidate cache for %s: %w", event.Name(), err)
	}

	l.logger.Debug("cache invalidated",
		zap.String("event", event.Name()),
		zap.Strings("keys", keys),
		zap.Strings("patterns", patterns))
	return nil
}
