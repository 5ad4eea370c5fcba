package validation

import (
	"github.com/go-playground/validator/v10"
)

// CustomValidator adapts go-playground/validator to echo.Validator.
type CustomValidator struct {
	validator *validator.Validate
}

func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

// New builds the validator with null-type support and the studio rules.
// It panics if a rule cannot be registered: the server must not start with
// half of its DTO checks missing.
func New() *CustomValidator {
	v := validator.New()

	registerNullTypes(v)

	if err := registerRules(v); err != nil {
		panic("validator rules registration failed: " + err.Error())
	}

	return &CustomValidator{validator: v}
}
