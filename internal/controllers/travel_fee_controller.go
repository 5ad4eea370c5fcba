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

type TravelFeeController struct {
	travelFeeService services.TravelFeeServiceInterface
	logger           *zap.Logger
}

func NewTravelFeeController(travelFeeService services.TravelFeeServiceInterface, logger *zap.Logger) *TravelFeeController {
	return &TravelFeeController{travelFeeService: travelFeeService, logger: logger}
}

func (c *TravelFeeController) GetBalance(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	studentID, err := utils.ParseIDParam(ctx, "studentId")
	if err != nil {
		return utils.ErrorResponse(ctx, err, middleware.FromContext(ctx, c.logger))
	}

	res, err := c.travelFeeService.Balance(reqCtx, studentID)
	if err != nil {
		return utils.ErrorResponse(ctx, err, middleware.FromContext(ctx, c.logger))
	}
	return utils.SuccessResponse(ctx, res, "Travel fee balance retrieved", http.StatusOK)
}

func (c *TravelFeeController) CreatePayment(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	studentID, err := utils.ParseIDParam(ctx, "studentId")
	if err != nil {
		return utils.ErrorResponse(ctx, err, middleware.FromContext(ctx, c.logger))
	}

	var payload dto.CreatePaymentDTO
	if err := bindAndValidate(ctx, &payload); err != nil {
		return utils.ErrorResponse(ctx, err, middleware.FromContext(ctx, c.logger))
	}

	res, err := c.travelFeeService.RecordPayment(reqCtx, studentID, payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err, middleware.FromContext(ctx, c.logger))
	}
	c.logger.Info("travel fee payment recorded",
		zap.Uint64("student_id", studentID),
		zap.String("amount", res.Amount.StringFixed(2)),
	)
	return utils.SuccessResponse(ctx, res, "Payment recorded", http.StatusCreated)
}
