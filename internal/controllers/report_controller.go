package controllers

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"studio-system/internal/entities"
	"studio-system/internal/services"
	"studio-system/pkg/middleware"
	"studio-system/pkg/utils"
)

type ReportController struct {
	reportService services.ReportServiceInterface
	logger        *zap.Logger
}

func NewReportController(reportService services.ReportServiceInterface, logger *zap.Logger) *ReportController {
	return &ReportController{reportService: reportService, logger: logger}
}

func (c *ReportController) GetScheduleChangeReport(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()

	res, err := c.reportService.ScheduleChangeSummary(reqCtx, ctx.QueryParam("month"))
	if err != nil {
		return utils.ErrorResponse(ctx, err, middleware.FromContext(ctx, c.logger))
	}
	return utils.SuccessResponse(ctx, res, "Report generated", http.StatusOK)
}

func (c *ReportController) ExportScheduleChanges(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()

	items, period, err := c.reportService.ScheduleChangeItems(reqCtx, ctx.QueryParam("month"))
	if err != nil {
		return utils.ErrorResponse(ctx, err, middleware.FromContext(ctx, c.logger))
	}
	c.logger.Debug("exporting schedule changes", zap.Int("rows", len(items)), zap.Time("month", period))

	f, err := buildScheduleChangeWorkbook(items)
	if err != nil {
		return utils.ErrorResponse(ctx, err, middleware.FromContext(ctx, c.logger))
	}
	defer f.Close()

	fileName := fmt.Sprintf("schedule_changes_%s.xlsx", period.Format(utils.MonthLayout))
	ctx.Response().Header().Set(echo.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	ctx.Response().Header().Set(echo.HeaderContentDisposition, "attachment; filename="+fileName)
	ctx.Response().WriteHeader(http.StatusOK)
	return f.Write(ctx.Response().Writer)
}

const scheduleChangeSheet = "Schedule changes"

var scheduleChangeHeaders = []string{
	"ID", "Student", "Original date", "Original day", "Original time",
	"Target date", "Target day", "Target time", "Target studio",
	"Status", "Joker", "Waitlisted", "Reason", "Rejection reason",
	"Requested at", "Reviewed at",
}

var weekdayNames = [...]string{"", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

func weekdayName(day int) string {
	if day < 1 || day > 7 {
		return ""
	}
	return weekdayNames[day]
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func scheduleChangeRow(item entities.ScheduleChangeReportItem) []interface{} {
	const stampFmt = "2006-01-02 15:04"
	var reviewedAt string
	if item.ReviewedAt.Valid {
		reviewedAt = item.ReviewedAt.Time.Format(stampFmt)
	}
	return []interface{}{
		item.ID,
		item.StudentName,
		utils.FormatDate(item.OriginalDate),
		weekdayName(item.OriginalDayOfWeek),
		item.OriginalStartTime,
		utils.FormatDate(item.TargetDate),
		weekdayName(item.TargetDayOfWeek),
		item.TargetStartTime,
		item.TargetStudio,
		item.Status,
		yesNo(item.UsesJoker),
		yesNo(item.Waitlisted),
		item.Reason.String,
		item.RejectionReason.String,
		item.CreatedAt.Format(stampFmt),
		reviewedAt,
	}
}

var scheduleChangeColumnWidths = []struct {
	from, to string
	width    float64
}{
	{"B", "B", 28},
	{"C", "I", 14},
	{"M", "N", 40},
	{"O", "P", 18},
}

// buildScheduleChangeWorkbook renders the monthly export with a bold header row.
func buildScheduleChangeWorkbook(items []entities.ScheduleChangeReportItem) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := fillScheduleChangeSheet(f, items); err != nil {
		f.Close() //nolint:errcheck
		return nil, err
	}
	return f, nil
}

func fillScheduleChangeSheet(f *excelize.File, items []entities.ScheduleChangeReportItem) error {
	if err := f.SetSheetName("Sheet1", scheduleChangeSheet); err != nil {
		return err
	}
	if err := f.SetSheetRow(scheduleChangeSheet, "A1", &scheduleChangeHeaders); err != nil {
		return err
	}

	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	lastHeader, err := excelize.CoordinatesToCellName(len(scheduleChangeHeaders), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(scheduleChangeSheet, "A1", lastHeader, style); err != nil {
		return err
	}

	for i, item := range items {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := scheduleChangeRow(item)
		if err := f.SetSheetRow(scheduleChangeSheet, cell, &row); err != nil {
			return err
		}
	}

	for _, w := range scheduleChangeColumnWidths {
		if err := f.SetColWidth(scheduleChangeSheet, w.from, w.to, w.width); err != nil {
			return err
		}
	}
	return nil
}
