package controllers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"studio-system/internal/services"
	apperrors "studio-system/pkg/errors"
	"studio-system/pkg/middleware"
	"studio-system/pkg/utils"
)

type AvailabilityController struct {
	availabilityService services.AvailabilityServiceInterface
	logger              *zap.Logger
}

func NewAvailabilityController(availabilityService services.AvailabilityServiceInterface, logger *zap.Logger) *AvailabilityController {
	return &AvailabilityController{availabilityService: availabilityService, logger: logger}
}

// GetScheduleAvailability lists the occurrences of one slot between from and to.
func (c *AvailabilityController) GetScheduleAvailability(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	id, err := utils.ParseIDParam(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, middleware.FromContext(ctx, c.logger))
	}

	res, err := c.availabilityService.ForSchedule(reqCtx, id, ctx.QueryParam("from"), ctx.QueryParam("to"))
	if err != nil {
		return utils.ErrorResponse(ctx, err, middleware.FromContext(ctx, c.logger))
	}
	return utils.SuccessResponse(ctx, res, "Availability retrieved", http.StatusOK)
}

func (c *AvailabilityController) GetDateAvailability(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	date := ctx.QueryParam("date")
	if date == "" {
		return utils.ErrorResponse(ctx,
			apperrors.NewHttpError(http.StatusBadRequest, "Query parameter 'date' is required", nil, nil),
			c.logger,
		)
	}

	res, err := c.availabilityService.ForDate(reqCtx, date)
	if err != nil {
		return utils.ErrorResponse(ctx, err, middleware.FromContext(ctx, c.logger))
	}
	return utils.SuccessResponse(ctx, res, "Availability retrieved", http.StatusOK)
}

func (c *AvailabilityController) GetWaitlist(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	id, err := utils.ParseIDParam(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, middleware.FromContext(ctx, c.logger))
	}
	date := ctx.QueryParam("date")
	if date == "" {
		return utils.ErrorResponse(ctx,
			apperrors.NewHttpError(http.StatusBadRequest, "Query parameter 'date' is required", nil, nil),
			c.logger,
		)
	}

	res, err := c.availabilityService.Waitlist(reqCtx, id, date)
	if err != nil {
		return utils.ErrorResponse(ctx, err, middleware.FromContext(ctx, c.logger))
	}
	return utils.SuccessResponse(ctx, res, "Waitlist retrieved", http.StatusOK)
}
