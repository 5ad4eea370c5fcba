package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"studio-system/internal/services"
	"studio-system/pkg/middleware"
	"studio-system/pkg/service"
	"studio-system/pkg/utils"
)

func InitRouter(e *echo.Echo, registry *services.Registry, jwtSvc service.JWTService, logger *zap.Logger) {
	logger.Info("InitRouter: registering routes")

	e.GET("/health", func(c echo.Context) error {
		return utils.SuccessResponse(c, map[string]string{"status": "ok"}, "ok", http.StatusOK)
	})

	api := e.Group("/api")
	authMW := middleware.NewAuthMiddleware(jwtSvc, logger.Named("auth"))
	secureGroup := api.Group("", authMW.Auth)

	runClassScheduleRouter(secureGroup, registry.ClassSchedules, registry.Availability, logger, authMW)
	runAvailabilityRouter(secureGroup, registry.Availability, logger, authMW)
	runRegistrationRouter(secureGroup, registry.Registrations, logger, authMW)
	runScheduleChangeRouter(secureGroup, registry.Changes, logger, authMW)
	runLeaveRouter(secureGroup, registry.Leaves, logger, authMW)
	runTravelFeeRouter(secureGroup, registry.TravelFees, logger, authMW)
	runJokerRouter(secureGroup, registry.Jokers, registry.Calendar, logger, authMW)
	runReportRouter(secureGroup, registry.Reports, logger, authMW)
	runSweepRouter(secureGroup, registry.Sweep, logger, authMW)

	logger.Info("InitRouter: routes registered", zap.Int("count", len(e.Routes())))
}
