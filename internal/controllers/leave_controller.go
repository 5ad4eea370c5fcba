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

type LeaveController struct {
	leaveService services.LeaveServiceInterface
	logger       *zap.Logger
}

func NewLeaveController(leaveService services.LeaveServiceInterface, logger *zap.Logger) *LeaveController {
	return &LeaveController{leaveService: leaveService, logger: logger}
}

func (c *LeaveController) GetLeaves(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	filter := utils.ParseFilterFromQuery(ctx.Request().URL.Query())

	list, total, err := c.leaveService.GetAll(reqCtx, filter)
	if err != nil {
		return utils.ErrorResponse(ctx, err, middleware.FromContext(ctx, c.logger))
	}
	return utils.PaginatedResponse(ctx, list, total, filter, "Temporary leaves retrieved")
}

func (c *LeaveController) FindLeave(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	id, err := utils.ParseIDParam(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, middleware.FromContext(ctx, c.logger))
	}

	res, err := c.leaveService.GetByID(reqCtx, id)
	if err != nil {
		return utils.ErrorResponse(ctx, err, middleware.FromContext(ctx, c.logger))
	}
	return utils.SuccessResponse(ctx, res, "Temporary leave found", http.StatusOK)
}

func (c *LeaveController) CreateLeave(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()

	var payload dto.CreateLeaveDTO
	if err := bindAndValidate(ctx, &payload); err != nil {
		return utils.ErrorResponse(ctx, err, middleware.FromContext(ctx, c.logger))
	}

	res, err := c.leaveService.Create(reqCtx, payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err, middleware.FromContext(ctx, c.logger))
	}
	c.logger.Info("temporary leave created",
		zap.Uint64("id", res.ID),
		zap.Uint64("student_id", res.StudentID),
		zap.Int("weeks", res.Weeks),
	)
	return utils.SuccessResponse(ctx, res, "Temporary leave created", http.StatusCreated)
}

func (c *LeaveController) CancelLeave(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	id, err := utils.ParseIDParam(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, middleware.FromContext(ctx, c.logger))
	}

	res, err := c.leaveService.Cancel(reqCtx, id)
	if err != nil {
		return utils.ErrorResponse(ctx, err, middleware.FromContext(ctx, c.logger))
	}
	return utils.SuccessResponse(ctx, res, "Temporary leave cancelled", http.StatusOK)
}
