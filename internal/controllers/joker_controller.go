package controllers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"studio-system/internal/services"
	apperrors "studio-system/pkg/errors"
	"studio-system/pkg/middleware"
	"studio-system/pkg/utils"
)

type JokerController struct {
	jokerService services.JokerServiceInterface
	calendar     services.Calendar
	logger       *zap.Logger
}

func NewJokerController(jokerService services.JokerServiceInterface, calendar services.Calendar, logger *zap.Logger) *JokerController {
	return &JokerController{jokerService: jokerService, calendar: calendar, logger: logger}
}

func (c *JokerController) GetSummary(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	studentID, err := utils.ParseIDParam(ctx, "studentId")
	if err != nil {
		return utils.ErrorResponse(ctx, err, middleware.FromContext(ctx, c.logger))
	}

	res, err := c.jokerService.Summary(reqCtx, studentID, ctx.QueryParam("month"))
	if err != nil {
		return utils.ErrorResponse(ctx, err, middleware.FromContext(ctx, c.logger))
	}
	return utils.SuccessResponse(ctx, res, "Joker balance retrieved", http.StatusOK)
}

// AllocateMonth runs the monthly allocation on demand. Without month it
// allocates the current one.
func (c *JokerController) AllocateMonth(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()

	period := utils.MonthStart(c.calendar.Today())
	if month := ctx.QueryParam("month"); month != "" {
		var err error
		if period, err = utils.ParseMonth(month); err != nil {
			return utils.ErrorResponse(ctx,
				apperrors.NewHttpError(http.StatusBadRequest, "Invalid month, expected YYYY-MM", err, nil),
				c.logger,
			)
		}
	}

	started := time.Now()
	res, err := c.jokerService.AllocateMonth(reqCtx, period)
	if err != nil {
		return utils.ErrorResponse(ctx, err, middleware.FromContext(ctx, c.logger))
	}
	c.logger.Info("joker allocation triggered over HTTP",
		zap.String("month", res.Month),
		zap.Int("created", res.Created),
		zap.Duration("took", time.Since(started)),
	)
	return utils.SuccessResponse(ctx, res, "Jokers allocated", http.StatusOK)
}
