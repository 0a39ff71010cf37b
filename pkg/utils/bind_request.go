package utils

import (
	"errors"

	"github.com/labstack/echo/v4"

	apperrors "github.com/tom2tomtomtom/traffic-manager/pkg/errors"
)

// BindRequest binds the body, path and query of c into T and validates the result.
// Both failures are reported as InvalidInput.
func BindRequest[T any](c echo.Context) (T, error) {
	var v T

	if err := c.Bind(&v); err != nil {
		var httpErr *echo.HTTPError
		if errors.As(err, &httpErr) {
			return v, apperrors.InvalidInput("malformed request: %v", httpErr.Message)
		}
		return v, apperrors.InvalidInput("malformed request: %v", err)
	}

	if _, err := Validate(v); err != nil {
		return v, apperrors.InvalidInput("%s", err.Error())
	}

	return v, nil
}
