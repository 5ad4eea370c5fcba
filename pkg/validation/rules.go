package validation

import (
	"time"

	"github.com/go-playground/validator/v10"
)

func registerRules(v *validator.Validate) error {
	if err := v.RegisterValidation("date_only", layoutRule("2006-01-02")); err != nil {
		return err
	}
	if err := v.RegisterValidation("month", layoutRule("2006-01")); err != nil {
		return err
	}
	if err := v.RegisterValidation("clock", layoutRule("15:04")); err != nil {
		return err
	}
	if err := v.RegisterValidation("weekday", isISOWeekday); err != nil {
		return err
	}
	return nil
}

// layoutRule accepts strings that time.Parse understands with layout and
// that round-trip unchanged, so "7:5" does not pass as a clock.
func layoutRule(layout string) validator.Func {
	return func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		t, err := time.Parse(layout, s)
		return err == nil && t.Format(layout) == s
	}
}

// isISOWeekday: 1 = Monday ... 7 = Sunday
func isISOWeekday(fl validator.FieldLevel) bool {
	n := fl.Field().Int()
	return n >= 1 && n <= 7
}
