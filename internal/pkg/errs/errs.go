/*
Package errs provides custom error types and application-level error code constants.

This file defines the CustomError struct, which implements the standard Go error interface
and includes a business code and a client-facing message for unified denial reporting.
*/
package errs

import (
	"fmt"
	"strings"

	"krelay/internal/pkg/logx"
)

// CustomError is the custom error structure used throughout the application.
// It wraps the Go error interface, adding a business code. Domain denials carry
// the human-readable reason delivered back to the requesting client.
type CustomError struct {
	// Code is the business error code (see constants definition).
	Code int

	// Message is the client-facing denial or error description.
	Message string
}

// Error implements the standard Go error interface. It returns a formatted
// error string containing the error code and message.
func (e CustomError) Error() string {
	return fmt.Sprintf("Error Code %d: %s", e.Code, e.Message)
}

// NewError constructs and returns a new *CustomError instance based on a predefined error code.
// The optional details parameter allows for formatting arguments (printf-style) to be supplied
// for the error message. If an unknown code is provided, it defaults to returning ErrUnknown.
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
		}
	}

	customErr := templateErr

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
			)
		}
	}

	return &customErr
}

// IsCode reports whether err is a *CustomError carrying the given code.
func IsCode(err error, code int) bool {
	customErr, ok := err.(*CustomError)
	return ok && customErr.Code == code
}
