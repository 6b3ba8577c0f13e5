package errs

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"campusportal/internal/pkg/logx"
)

// CustomError is the custom error structure used throughout the application.
// It carries a business code, a user-facing message and the HTTP status to answer with.
type CustomError struct {
	// Code is the business error code (see constants definition).
	Code int

	// Message is the user-friendly error description.
	Message string

	// Status is the standard HTTP status code corresponding to this error.
	Status int
}

// Error implements the standard Go error interface.
func (e CustomError) Error() string {
	return fmt.Sprintf("Error Code %d (HTTP %d): %s", e.Code, e.Status, e.Message)
}

// NewError constructs a *CustomError from a predefined error code.
// Optional details are printf arguments for the message template. For ErrUnknown the first
// detail, when it is an error, is logged instead. Unknown codes fall back to ErrUnknown.
func NewError(code int, details ...any) *CustomError {
	templateErr, ok := errorMap[code]

	if !ok {
		logx.Error(
			fmt.Errorf("attempted to create an error with an unknown code in errorMap"),
			"Unknown error code requested",
			"requested_code", code,
		)

		unknownErr := errorMap[ErrUnknown]
		return &CustomError{
			Code:    unknownErr.Code,
			Message: unknownErr.Message,
			Status:  unknownErr.Status,
		}
	}

	customErr := templateErr

	if customErr.Status == 0 {
		customErr.Status = http.StatusOK
	}

	if code == ErrUnknown && len(details) > 0 {
		if originalErr, ok := details[0].(error); ok {
			logx.Error(
				originalErr,
				"Handling ErrUnknown with underlying error",
			)
		}
	} else if len(details) > 0 {
		if strings.Contains(customErr.Message, "%") {
			customErr.Message = fmt.Sprintf(customErr.Message, details...)
		} else {
			logx.Warn(
				"Details provided for error, but message template has no formatting placeholders. Details ignored.",
				"code", code,
			)
		}
	}

	return &customErr
}

// WithMessage builds the error for code but shows message to the user instead of the
// template text. An empty message keeps the template.
func WithMessage(code int, message string) *CustomError {
	customErr := NewError(code)
	if message != "" {
		customErr.Message = message
	}
	return customErr
}

// From converts any error into a *CustomError, mapping foreign errors to ErrUnknown.
func From(err error) *CustomError {
	if err == nil {
		return nil
	}

	var customErr *CustomError
	if errors.As(err, &customErr) {
		return customErr
	}

	return NewError(ErrUnknown, err)
}

// HasCode reports whether err is a *CustomError carrying code.
func HasCode(err error, code int) bool {
	var customErr *CustomError
	return errors.As(err, &customErr) && customErr.Code == code
}
