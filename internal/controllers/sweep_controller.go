package controllers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"studio-system/internal/services"
	"studio-system/pkg/middleware"
	"studio-system/pkg/utils"
)

type SweepController struct {
	sweepService services.SweepServiceInterface
	logger       *zap.Logger
}

func NewSweepController(sweepService services.SweepServiceInterface, logger *zap.Logger) *SweepController {
	return &SweepController{sweepService: sweepService, logger: logger}
}

// RunSweep executes the daily sweep now. A failed step still returns the
// counts of the steps that ran, together with the error.
func (c *SweepController) RunSweep(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()

	res, err := c.sweepService.Run(reqCtx)
	if err != nil {
		c.logger.Error("manual sweep finished with errors", zap.Error(err), zap.Any("result", res))
		return utils.ErrorResponse(ctx, err, middleware.FromContext(ctx, c.logger))
	}
	return utils.SuccessResponse(ctx, res, "Sweep completed", http.StatusOK)
}
