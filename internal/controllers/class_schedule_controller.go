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

type ClassScheduleController struct {
	scheduleService services.ClassScheduleServiceInterface
	logger          *zap.Logger
}

func NewClassScheduleController(scheduleService services.ClassScheduleServiceInterface, logger *zap.Logger) *ClassScheduleController {
	return &ClassScheduleController{scheduleService: scheduleService, logger: logger}
}

func (c *ClassScheduleController) GetClassSchedules(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	filter := utils.ParseFilterFromQuery(ctx.Request().URL.Query())

	list, total, err := c.scheduleService.GetAll(reqCtx, filter)
	if err != nil {
		return utils.ErrorResponse(ctx, err, middleware.FromContext(ctx, c.logger))
	}
	return utils.PaginatedResponse(ctx, list, total, filter, "Class schedules retrieved")
}

func (c *ClassScheduleController) FindClassSchedule(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	id, err := utils.ParseIDParam(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, middleware.FromContext(ctx, c.logger))
	}

	res, err := c.scheduleService.GetByID(reqCtx, id)
	if err != nil {
		return utils.ErrorResponse(ctx, err, middleware.FromContext(ctx, c.logger))
	}
	return utils.SuccessResponse(ctx, res, "Class schedule found", http.StatusOK)
}

func (c *ClassScheduleController) CreateClassSchedule(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()

	var payload dto.CreateClassScheduleDTO
	if err := bindAndValidate(ctx, &payload); err != nil {
		return utils.ErrorResponse(ctx, err, middleware.FromContext(ctx, c.logger))
	}

	res, err := c.scheduleService.Create(reqCtx, payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err, middleware.FromContext(ctx, c.logger))
	}
	c.logger.Info("class schedule created", zap.Uint64("id", res.ID))
	return utils.SuccessResponse(ctx, res, "Class schedule created", http.StatusCreated)
}

func (c *ClassScheduleController) UpdateClassSchedule(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	id, err := utils.ParseIDParam(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, middleware.FromContext(ctx, c.logger))
	}

	var payload dto.UpdateClassScheduleDTO
	if err := bindAndValidate(ctx, &payload); err != nil {
		return utils.ErrorResponse(ctx, err, middleware.FromContext(ctx, c.logger))
	}

	res, err := c.scheduleService.Update(reqCtx, id, payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err, middleware.FromContext(ctx, c.logger))
	}
	return utils.SuccessResponse(ctx, res, "Class schedule updated", http.StatusOK)
}

func (c *ClassScheduleController) DeleteClassSchedule(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	id, err := utils.ParseIDParam(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, middleware.FromContext(ctx, c.logger))
	}

	if err := c.scheduleService.Delete(reqCtx, id); err != nil {
		return utils.ErrorResponse(ctx, err, middleware.FromContext(ctx, c.logger))
	}
	return utils.SuccessResponse(ctx, struct{}{}, "Class schedule deleted", http.StatusOK)
}
