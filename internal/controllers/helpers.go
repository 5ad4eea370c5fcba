package controllers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	apperrors "studio-system/pkg/errors"
)

// bindAndValidate decodes the JSON body into dst and runs the DTO rules.
func bindAndValidate(ctx echo.Context, dst interface{}) error {
	if err := ctx.Bind(dst); err != nil {
		return apperrors.NewHttpError(http.StatusBadRequest, "Invalid request body", err, nil)
	}
	return ctx.Validate(dst)
}
