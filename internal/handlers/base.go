package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/tom2tomtomtom/traffic-manager/pkg/capacity"
)

// ParseUUID parses a UUID from a path parameter
func ParseUUID(c echo.Context, param string) (uuid.UUID, error) {
	idStr := c.Param(param)
	if idStr == "" {
		return uuid.Nil, httperror.NewHTTPError(http.StatusBadRequest, "missing "+param)
	}

	id, err := uuid.Parse(idStr)
	if err != nil {
		return uuid.Nil, httperror.NewHTTPErrorf(http.StatusBadRequest, "invalid %s: must be a valid UUID", param)
	}

	return id, nil
}

// QueryUUID parses an optional UUID query parameter. It returns nil when the parameter is absent.
func QueryUUID(c echo.Context, param string) (*uuid.UUID, error) {
	value := c.QueryParam(param)
	if value == "" {
		return nil, nil
	}

	id, err := uuid.Parse(value)
	if err != nil {
		return nil, httperror.NewHTTPErrorf(http.StatusBadRequest, "invalid %s: must be a valid UUID", param)
	}
	return &id, nil
}

// QueryWeek parses an optional YYYY-MM-DD query parameter into the start of its week.
func QueryWeek(c echo.Context, param string) (*time.Time, error) {
	value := c.QueryParam(param)
	if value == "" {
		return nil, nil
	}

	week, err := capacity.ParseWeek(value)
	if err != nil {
		return nil, httperror.NewHTTPErrorf(http.StatusBadRequest, "invalid %s: must be a date formatted YYYY-MM-DD", param)
	}
	return &week, nil
}

// QueryInt parses an integer query parameter, falling back to def when it is absent.
func QueryInt(c echo.Context, param string, def int) (int, error) {
	value := c.QueryParam(param)
	if value == "" {
		return def, nil
	}

	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, httperror.NewHTTPErrorf(http.StatusBadRequest, "invalid %s: must be an integer", param)
	}
	return n, nil
}

// SuccessResponse returns a 200 OK with data
func SuccessResponse(c echo.Context, data any) error {
	return c.JSON(http.StatusOK, data)
}

// CreatedResponse returns a 201 Created with data
func CreatedResponse(c echo.Context, data any) error {
	return c.JSON(http.StatusCreated, data)
}

// BadRequest returns a 400 Bad Request error
func BadRequest(message string) error {
	return httperror.NewHTTPError(http.StatusBadRequest, message)
}
