package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// JWT and tokens
	ErrInvalidSigningMethod = fmt.Errorf("invalid token signing method")
	ErrInvalidToken         = fmt.Errorf("invalid token")
	ErrTokenExpired         = fmt.Errorf("token has expired")
	ErrTokenNotYetValid     = fmt.Errorf("token is not valid yet")
	ErrTokenIsNotAccess     = fmt.Errorf("token is not an access token")

	// Authorization
	ErrEmptyAuthHeader   = fmt.Errorf("authorization header is missing")
	ErrInvalidAuthHeader = fmt.Errorf("invalid authorization header format")
	ErrUnauthorized      = fmt.Errorf("unauthorized")
	ErrForbidden         = fmt.Errorf("access denied")

	// Context
	ErrUserIDNotFoundInContext = fmt.Errorf("user id not found in request context")
	ErrStudentNotInContext     = fmt.Errorf("the current user is not linked to a student")

	// Common
	ErrNotFound       = fmt.Errorf("record not found")
	ErrBadRequest     = fmt.Errorf("bad request")
	ErrConflict       = fmt.Errorf("record already exists")
	ErrInternalServer = fmt.Errorf("internal server error")
	ErrResourceBusy   = fmt.Errorf("the record is being updated by another request, try again")

	// Scheduling
	ErrClassFull           = fmt.Errorf("the class has no free seats")
	ErrClassInactive       = fmt.Errorf("the class is not active")
	ErrWeekdayMismatch     = fmt.Errorf("the date does not fall on the class weekday")
	ErrDateInPast          = fmt.Errorf("the date is in the past")
	ErrInsufficientNotice  = fmt.Errorf("the class starts too soon to be rescheduled")
	ErrNoJokersLeft        = fmt.Errorf("no jokers left for this month")
	ErrInvalidTransition   = fmt.Errorf("the request cannot move to the requested status")
	ErrStillWaitlisted     = fmt.Errorf("the request is still waiting for a free seat")
	ErrDuplicateChange     = fmt.Errorf("a reschedule for this class already exists")
	ErrSameOccurrence      = fmt.Errorf("the target class is the same as the original one")
	ErrRegistrationNotLive = fmt.Errorf("the registration is not active")
	ErrStudentOnLeave      = fmt.Errorf("the student is on temporary leave on that date")
	ErrLeaveOverlap        = fmt.Errorf("the leave overlaps another leave")
	ErrLeaveHasChanges     = fmt.Errorf("the student has reschedule requests inside the leave dates")
	ErrInvalidRange        = fmt.Errorf("invalid date range")
	ErrInvalidAmount       = fmt.Errorf("the amount must be greater than zero")
)

// HttpError carries the status code and client message for an error that
// must reach the client as-is. Err is the cause and is only logged.
type HttpError struct {
	Code    int
	Message string
	Err     error
	Details interface{}
}

func (e *HttpError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *HttpError) Unwrap() error { return e.Err }

func NewHttpError(code int, message string, err error, details interface{}) *HttpError {
	return &HttpError{Code: code, Message: message, Err: err, Details: details}
}

// InvalidInputError is returned by services for business validation failures.
type InvalidInputError struct {
	Message string
}

func (e *InvalidInputError) Error() string { return e.Message }

func NewInvalidInputError(format string, args ...interface{}) error {
	return &InvalidInputError{Message: fmt.Sprintf(format, args...)}
}

var statusBySentinel = []struct {
	err  error
	code int
}{
	{ErrNotFound, http.StatusNotFound},
	{ErrBadRequest, http.StatusBadRequest},
	{ErrConflict, http.StatusConflict},
	{ErrResourceBusy, http.StatusConflict},
	{ErrForbidden, http.StatusForbidden},
	{ErrStudentNotInContext, http.StatusForbidden},
	{ErrUnauthorized, http.StatusUnauthorized},
	{ErrUserIDNotFoundInContext, http.StatusUnauthorized},
	{ErrEmptyAuthHeader, http.StatusUnauthorized},
	{ErrInvalidAuthHeader, http.StatusUnauthorized},
	{ErrInvalidToken, http.StatusUnauthorized},
	{ErrInvalidSigningMethod, http.StatusUnauthorized},
	{ErrTokenExpired, http.StatusUnauthorized},
	{ErrTokenNotYetValid, http.StatusUnauthorized},
	{ErrTokenIsNotAccess, http.StatusUnauthorized},
	{ErrClassFull, http.StatusConflict},
	{ErrDuplicateChange, http.StatusConflict},
	{ErrInvalidTransition, http.StatusConflict},
	{ErrStillWaitlisted, http.StatusConflict},
	{ErrLeaveOverlap, http.StatusConflict},
	{ErrLeaveHasChanges, http.StatusConflict},
	{ErrNoJokersLeft, http.StatusUnprocessableEntity},
	{ErrInsufficientNotice, http.StatusUnprocessableEntity},
	{ErrClassInactive, http.StatusUnprocessableEntity},
	{ErrWeekdayMismatch, http.StatusUnprocessableEntity},
	{ErrDateInPast, http.StatusUnprocessableEntity},
	{ErrSameOccurrence, http.StatusUnprocessableEntity},
	{ErrRegistrationNotLive, http.StatusUnprocessableEntity},
	{ErrStudentOnLeave, http.StatusUnprocessableEntity},
	{ErrInvalidRange, http.StatusBadRequest},
	{ErrInvalidAmount, http.StatusBadRequest},
}

// StatusCode resolves the HTTP status for err. The second result is false
// when err is not a known application error.
func StatusCode(err error) (int, bool) {
	var httpErr *HttpError
	if errors.As(err, &httpErr) {
		return httpErr.Code, true
	}
	var inputErr *InvalidInputError
	if errors.As(err, &inputErr) {
		return http.StatusBadRequest, true
	}
	for _, s := range statusBySentinel {
		if errors.Is(err, s.err) {
			return s.code, true
		}
	}
	return http.StatusInternalServerError, false
}
