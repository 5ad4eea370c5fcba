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

type RegistrationController struct {
	registrationService services.RegistrationServiceInterface
	logger              *zap.Logger
}

func NewRegistrationController(registrationService services.RegistrationServiceInterface, logger *zap.Logger) *RegistrationController {
	return &RegistrationController{registrationService: registrationService, logger: logger}
}

func (c *RegistrationController) GetRegistrations(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	filter := utils.ParseFilterFromQuery(ctx.Request().URL.Query())

	list, total, err := c.registrationService.GetAll(reqCtx, filter)
	if err != nil {
		return utils.ErrorResponse(ctx, err, middleware.FromContext(ctx, c.logger))
	}
	return utils.PaginatedResponse(ctx, list, total, filter, "Registrations retrieved")
}

func (c *RegistrationController) FindRegistration(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	id, err := utils.ParseIDParam(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, middleware.FromContext(ctx, c.logger))
	}

	res, err := c.registrationService.GetByID(reqCtx, id)
	if err != nil {
		return utils.ErrorResponse(ctx, err, middleware.FromContext(ctx, c.logger))
	}
	return utils.SuccessResponse(ctx, res, "Registration found", http.StatusOK)
}

func (c *RegistrationController) CreateRegistration(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()

	var payload dto.CreateRegistrationDTO
	if err := bindAndValidate(ctx, &payload); err != nil {
		return utils.ErrorResponse(ctx, err, middleware.FromContext(ctx, c.logger))
	}

	res, err := c.registrationService.Create(reqCtx, payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err, middleware.FromContext(ctx, c.logger))
	}
	c.logger.Info("registration created",
		zap.Uint64("id", res.ID),
		zap.Uint64("student_id", res.StudentID),
		zap.Uint64("class_schedule_id", res.ClassScheduleID),
	)
	return utils.SuccessResponse(ctx, res, "Registration created", http.StatusCreated)
}

func (c *RegistrationController) CancelRegistration(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	id, err := utils.ParseIDParam(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, middleware.FromContext(ctx, c.logger))
	}

	res, err := c.registrationService.Cancel(reqCtx, id)
	if err != nil {
		return utils.ErrorResponse(ctx, err, middleware.FromContext(ctx, c.logger))
	}
	return utils.SuccessResponse(ctx, res, "Registration cancelled", http.StatusOK)
}
