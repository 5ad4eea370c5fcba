package authz

const (
	Superuser = "superuser"

	// Class schedules
	ClassSchedulesView   = "class_schedules:view"
	ClassSchedulesCreate = "class_schedules:create"
	ClassSchedulesUpdate = "class_schedules:update"
	ClassSchedulesDelete = "class_schedules:delete"

	// Student registrations
	RegistrationsView   = "registrations:view"
	RegistrationsCreate = "registrations:create"
	RegistrationsDelete = "registrations:delete"

	// Schedule changes (reschedule requests)
	ScheduleChangesView   = "schedule_changes:view"
	ScheduleChangesCreate = "schedule_changes:create"
	ScheduleChangesReview = "schedule_changes:review"

	// Temporary leaves
	LeavesView   = "leaves:view"
	LeavesCreate = "leaves:create"
	LeavesDelete = "leaves:delete"

	// Travel fee balance
	TravelFeesView    = "travel_fees:view"
	TravelFeesPayment = "travel_fees:payment"

	JokersView  = "jokers:view"
	ReportsView = "reports:view"

	// Scope modifiers
	ScopeOwn = "scope:own"
	ScopeAll = "scope:all"
)
