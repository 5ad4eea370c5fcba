package routes

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"studio-system/internal/authz"
	"studio-system/internal/controllers"
	"studio-system/internal/services"
	"studio-system/pkg/middleware"
)

func runReportRouter(
	secureGroup *echo.Group,
	reportService services.ReportServiceInterface,
	logger *zap.Logger,
	authMW *middleware.AuthMiddleware,
) {
	reportController := controllers.NewReportController(reportService, logger.Named("reports"))

	reports := secureGroup.Group("/reports", authMW.AuthorizeAny(authz.ReportsView))
	reports.GET("/schedule-changes", reportController.GetScheduleChangeReport)
	reports.GET("/schedule-changes/export", reportController.ExportScheduleChanges)
}
