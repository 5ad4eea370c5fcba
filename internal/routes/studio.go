package routes

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"studio-system/internal/authz"
	"studio-system/internal/controllers"
	"studio-system/internal/services"
	"studio-system/pkg/middleware"
)

func runClassScheduleRouter(
	secureGroup *echo.Group,
	scheduleService services.ClassScheduleServiceInterface,
	availabilityService services.AvailabilityServiceInterface,
	logger *zap.Logger,
	authMW *middleware.AuthMiddleware,
) {
	scheduleCtrl := controllers.NewClassScheduleController(scheduleService, logger.Named("class_schedules"))
	availabilityCtrl := controllers.NewAvailabilityController(availabilityService, logger.Named("availability"))

	secureGroup.GET("/class-schedules", scheduleCtrl.GetClassSchedules, authMW.AuthorizeAny(authz.ClassSchedulesView))
	secureGroup.GET("/class-schedules/:id", scheduleCtrl.FindClassSchedule, authMW.AuthorizeAny(authz.ClassSchedulesView))
	secureGroup.POST("/class-schedules", scheduleCtrl.CreateClassSchedule, authMW.AuthorizeAny(authz.ClassSchedulesCreate))
	secureGroup.PUT("/class-schedules/:id", scheduleCtrl.UpdateClassSchedule, authMW.AuthorizeAny(authz.ClassSchedulesUpdate))
	secureGroup.DELETE("/class-schedules/:id", scheduleCtrl.DeleteClassSchedule, authMW.AuthorizeAny(authz.ClassSchedulesDelete))

	secureGroup.GET("/class-schedules/:id/availability", availabilityCtrl.GetScheduleAvailability, authMW.AuthorizeAny(authz.ClassSchedulesView))
	secureGroup.GET("/class-schedules/:id/waitlist", availabilityCtrl.GetWaitlist, authMW.AuthorizeAny(authz.ScheduleChangesReview))
}

func runAvailabilityRouter(
	secureGroup *echo.Group,
	availabilityService services.AvailabilityServiceInterface,
	logger *zap.Logger,
	authMW *middleware.AuthMiddleware,
) {
	availabilityCtrl := controllers.NewAvailabilityController(availabilityService, logger.Named("availability"))

	secureGroup.GET("/availability", availabilityCtrl.GetDateAvailability, authMW.AuthorizeAny(authz.ClassSchedulesView))
}

func runRegistrationRouter(
	secureGroup *echo.Group,
	registrationService services.RegistrationServiceInterface,
	logger *zap.Logger,
	authMW *middleware.AuthMiddleware,
) {
	registrationCtrl := controllers.NewRegistrationController(registrationService, logger.Named("registrations"))

	secureGroup.GET("/registrations", registrationCtrl.GetRegistrations, authMW.AuthorizeAny(authz.RegistrationsView))
	secureGroup.GET("/registrations/:id", registrationCtrl.FindRegistration, authMW.AuthorizeAny(authz.RegistrationsView))
	secureGroup.POST("/registrations", registrationCtrl.CreateRegistration, authMW.AuthorizeAny(authz.RegistrationsCreate))
	secureGroup.DELETE("/registrations/:id", registrationCtrl.CancelRegistration, authMW.AuthorizeAny(authz.RegistrationsDelete))
}

func runScheduleChangeRouter(
	secureGroup *echo.Group,
	changeService services.ScheduleChangeServiceInterface,
	logger *zap.Logger,
	authMW *middleware.AuthMiddleware,
) {
	changeCtrl := controllers.NewScheduleChangeController(changeService, logger.Named("schedule_changes"))

	secureGroup.GET("/schedule-changes", changeCtrl.GetScheduleChanges, authMW.AuthorizeAny(authz.ScheduleChangesView))
	secureGroup.GET("/schedule-changes/:id", changeCtrl.FindScheduleChange, authMW.AuthorizeAny(authz.ScheduleChangesView))
	secureGroup.POST("/schedule-changes", changeCtrl.CreateScheduleChange, authMW.AuthorizeAny(authz.ScheduleChangesCreate))
	secureGroup.PUT("/schedule-changes/:id/approve", changeCtrl.ApproveScheduleChange, authMW.AuthorizeAny(authz.ScheduleChangesReview))
	secureGroup.PUT("/schedule-changes/:id/reject", changeCtrl.RejectScheduleChange, authMW.AuthorizeAny(authz.ScheduleChangesReview))
}

func runLeaveRouter(
	secureGroup *echo.Group,
	leaveService services.LeaveServiceInterface,
	logger *zap.Logger,
	authMW *middleware.AuthMiddleware,
) {
	leaveCtrl := controllers.NewLeaveController(leaveService, logger.Named("leaves"))

	secureGroup.GET("/temporary-leaves", leaveCtrl.GetLeaves, authMW.AuthorizeAny(authz.LeavesView))
	secureGroup.GET("/temporary-leaves/:id", leaveCtrl.FindLeave, authMW.AuthorizeAny(authz.LeavesView))
	secureGroup.POST("/temporary-leaves", leaveCtrl.CreateLeave, authMW.AuthorizeAny(authz.LeavesCreate))
	secureGroup.DELETE("/temporary-leaves/:id", leaveCtrl.CancelLeave, authMW.AuthorizeAny(authz.LeavesDelete))
}

func runTravelFeeRouter(
	secureGroup *echo.Group,
	travelFeeService services.TravelFeeServiceInterface,
	logger *zap.Logger,
	authMW *middleware.AuthMiddleware,
) {
	travelFeeCtrl := controllers.NewTravelFeeController(travelFeeService, logger.Named("travel_fees"))

	secureGroup.GET("/travel-fee-balance/:studentId", travelFeeCtrl.GetBalance, authMW.AuthorizeAny(authz.TravelFeesView))
	secureGroup.POST("/travel-fee-balance/:studentId/payments", travelFeeCtrl.CreatePayment, authMW.AuthorizeAny(authz.TravelFeesPayment))
}

func runJokerRouter(
	secureGroup *echo.Group,
	jokerService services.JokerServiceInterface,
	calendar services.Calendar,
	logger *zap.Logger,
	authMW *middleware.AuthMiddleware,
) {
	jokerCtrl := controllers.NewJokerController(jokerService, calendar, logger.Named("jokers"))

	// Static segment first so "allocate" is never read as a student id.
	secureGroup.POST("/jokers/allocate", jokerCtrl.AllocateMonth, authMW.AuthorizeAny(authz.Superuser))
	secureGroup.GET("/jokers/:studentId", jokerCtrl.GetSummary, authMW.AuthorizeAny(authz.JokersView))
}

func runSweepRouter(
	secureGroup *echo.Group,
	sweepService services.SweepServiceInterface,
	logger *zap.Logger,
	authMW *middleware.AuthMiddleware,
) {
	sweepCtrl := controllers.NewSweepController(sweepService, logger.Named("sweep"))

	secureGroup.POST("/maintenance/sweep", sweepCtrl.RunSweep, authMW.AuthorizeAny(authz.Superuser))
}
