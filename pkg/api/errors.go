package api

import (
	"errors"
	"fmt"
	"net/http"

	echo "github.com/labstack/echo/v5"
)

// ValidationError rejects a simulate or onboard request before the pipeline
// runs. Status is the HTTP status to answer with, 400 or 413.
type ValidationError struct {
	Status  int
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func errMissingField(name string) *ValidationError {
	return &ValidationError{
		Status:  http.StatusBadRequest,
		Message: fmt.Sprintf("%s field is required", name),
	}
}

func errFieldTooLarge(name string) *ValidationError {
	return &ValidationError{
		Status: http.StatusRequestEntityTooLarge,
		Message: fmt.Sprintf("%s exceeds maximum size of %d bytes",
			name, maxFieldBytes),
	}
}

// mapPipelineError translates bind and request-validation failures to HTTP
// errors. Oversized bodies and fields map to 413, malformed bodies and
// missing keys to 400.
func mapPipelineError(err error) *echo.HTTPError {
	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return echo.NewHTTPError(validationErr.Status, validationErr.Message)
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge,
			fmt.Sprintf("request body exceeds maximum size of %d bytes", tooLarge.Limit))
	}

	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr
	}
	return echo.NewHTTPError(http.StatusBadRequest, err.Error())
}
