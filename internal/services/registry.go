package services

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"studio-system/internal/repositories"
	"studio-system/pkg/config"
	"studio-system/pkg/eventbus"
)

// Registry holds every service of the studio API. The HTTP router and the
// CLI jobs build it once and share it.
type Registry struct {
	Calendar       Calendar
	ClassSchedules ClassScheduleServiceInterface
	Availability   AvailabilityServiceInterface
	Registrations  RegistrationServiceInterface
	Changes        ScheduleChangeServiceInterface
	Leaves         LeaveServiceInterface
	TravelFees     TravelFeeServiceInterface
	Jokers         JokerServiceInterface
	Reports        ReportServiceInterface
	Sweep          SweepServiceInterface
}

func NewRegistry(
	dbConn *pgxpool.Pool,
	cache repositories.CacheRepositoryInterface,
	bus *eventbus.Bus,
	cfg *config.Config,
	logger *zap.Logger,
) *Registry {
	txManager := repositories.NewTxManager(dbConn, cfg.Postgres.LockTimeout)
	calendar := NewCalendar(cfg.Scheduler.Location())
	base := NewBaseService(cache, cfg.Redis.CacheTTL, logger.Named("cache"))

	repos := ScheduleChangeRepos{
		Changes:       repositories.NewScheduleChangeRepository(dbConn, logger),
		Registrations: repositories.NewRegistrationRepository(dbConn, logger),
		Schedules:     repositories.NewClassScheduleRepository(dbConn, logger),
		Leaves:        repositories.NewLeaveRepository(dbConn, logger),
		Waitlist:      repositories.NewWaitlistRepository(dbConn),
		Occupancy:     repositories.NewOccupancyRepository(dbConn),
		Jokers:        repositories.NewJokerRepository(dbConn),
	}
	studioRepo := repositories.NewStudioRepository(dbConn)
	travelFeeRepo := repositories.NewTravelFeeRepository(dbConn)
	reportRepo := repositories.NewReportRepository(dbConn)

	promoter := NewWaitlistPromoter(repos.Schedules, repos.Occupancy, repos.Waitlist, repos.Changes, logger.Named("waitlist"))
	jokers := NewJokerService(base, repos.Jokers, repos.Registrations, studioRepo, txManager, bus, calendar, logger.Named("jokers"))

	return &Registry{
		Calendar:       calendar,
		ClassSchedules: NewClassScheduleService(repos.Schedules, studioRepo, txManager, bus, logger.Named("class_schedules")),
		Availability: NewAvailabilityService(
			base, repos.Schedules, repos.Occupancy, repos.Waitlist, cfg.Booking, calendar, logger.Named("availability"),
		),
		Registrations: NewRegistrationService(
			repos, studioRepo, promoter, txManager, bus, calendar, logger.Named("registrations"),
		),
		Changes: NewScheduleChangeService(
			repos, jokers, promoter, txManager, bus, cfg.Booking, calendar, logger.Named("schedule_changes"),
		),
		Leaves: NewLeaveService(
			repos, travelFeeRepo, studioRepo, promoter, txManager, bus, cfg.Booking, calendar, logger.Named("leaves"),
		),
		TravelFees: NewTravelFeeService(travelFeeRepo, studioRepo, cfg.Booking, logger.Named("travel_fees")),
		Jokers:     jokers,
		Reports:    NewReportService(reportRepo, calendar, logger.Named("reports")),
		Sweep:      NewSweepService(repos, txManager, bus, calendar, logger.Named("sweep")),
	}
}
