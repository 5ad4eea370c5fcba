package controllers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"studio-system/internal/dto"
	"studio-system/internal/services"
	"studio-system/pkg/middleware"
	"studio-system/pkg/utils"
)

type ScheduleChangeController struct {
	changeService services.ScheduleChangeServiceInterface
	logger        *zap.Logger
}

func NewScheduleChangeController(changeService services.ScheduleChangeServiceInterface, logger *zap.Logger) *ScheduleChangeController {
	return &ScheduleChangeController{changeService: changeService, logger: logger}
}

// GetScheduleChanges accepts the common list parameters plus month=YYYY-MM,
// which keeps the changes whose original or target date falls in that month.
func (c *ScheduleChangeController) GetScheduleChanges(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	filter := utils.ParseFilterFromQuery(ctx.Request().URL.Query())

	list, total, err := c.changeService.GetAll(reqCtx, filter, ctx.QueryParam("month"))
	if err != nil {
		return utils.ErrorResponse(ctx, err, middleware.FromContext(ctx, c.logger))
	}
	return utils.PaginatedResponse(ctx, list, total, filter, "Schedule changes retrieved")
}

func (c *ScheduleChangeController) FindScheduleChange(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	id, err := utils.ParseIDParam(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, middleware.FromContext(ctx, c.logger))
	}

	res, err := c.changeService.GetByID(reqCtx, id)
	if err != nil {
		return utils.ErrorResponse(ctx, err, middleware.FromContext(ctx, c.logger))
	}
	return utils.SuccessResponse(ctx, res, "Schedule change found", http.StatusOK)
}

func (c *ScheduleChangeController) CreateScheduleChange(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()

	var payload dto.CreateScheduleChangeDTO
	if err := bindAndValidate(ctx, &payload); err != nil {
		return utils.ErrorResponse(ctx, err, middleware.FromContext(ctx, c.logger))
	}

	res, err := c.changeService.Create(reqCtx, payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err, middleware.FromContext(ctx, c.logger))
	}

	message := "Schedule change requested"
	if res.Waitlisted {
		message = "The target class is full, the request was added to the waitlist"
	}
	return utils.SuccessResponse(ctx, res, message, http.StatusCreated)
}

func (c *ScheduleChangeController) ApproveScheduleChange(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	id, err := utils.ParseIDParam(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, middleware.FromContext(ctx, c.logger))
	}

	res, err := c.changeService.Approve(reqCtx, id)
	if err != nil {
		return utils.ErrorResponse(ctx, err, middleware.FromContext(ctx, c.logger))
	}
	return utils.SuccessResponse(ctx, res, "Schedule change approved", http.StatusOK)
}

func (c *ScheduleChangeController) RejectScheduleChange(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	id, err := utils.ParseIDParam(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, middleware.FromContext(ctx, c.logger))
	}

	var payload dto.RejectScheduleChangeDTO
	if err := bindAndValidate(ctx, &payload); err != nil {
		return utils.ErrorResponse(ctx, err, middleware.FromContext(ctx, c.logger))
	}

	res, err := c.changeService.Reject(reqCtx, id, payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err, middleware.FromContext(ctx, c.logger))
	}
	return utils.SuccessResponse(ctx, res, "Schedule change rejected", http.StatusOK)
}
