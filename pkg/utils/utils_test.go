package utils

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type createProjectRequest struct {
	Name     string `json:"name" validate:"required"`
	Priority string `json:"priority" validate:"omitempty,oneof=low normal high urgent"`
}

func newContext(body string) echo.Context {
	req := httptest.NewRequest(http.MethodPost, "/api/projects", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return echo.New().NewContext(req, httptest.NewRecorder())
}

func TestBindRequest(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		req, err := BindRequest[createProjectRequest](newContext(`{"name":"Apollo","priority":"urgent"}`))
		require.NoError(t, err)
		assert.Equal(t, "Apollo", req.Name)
		assert.Equal(t, "urgent", req.Priority)
	})

	t.Run("validation failure", func(t *testing.T) {
		_, err := BindRequest[createProjectRequest](newContext(`{"priority":"someday"}`))
		require.Error(t, err)
		assert.Equal(t, http.StatusBadRequest, httperror.GetStatusCode(err))
	})

	t.Run("malformed body", func(t *testing.T) {
		_, err := BindRequest[createProjectRequest](newContext(`{"name":`))
		require.Error(t, err)
		assert.Equal(t, http.StatusBadRequest, httperror.GetStatusCode(err))
	})
}

func TestValidate(t *testing.T) {
	_, err := Validate(createProjectRequest{Priority: "someday"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "createProjectRequest.Name")
	assert.Contains(t, err.Error(), "oneof")
}

func TestValidateValue(t *testing.T) {
	assert.NoError(t, ValidateValue("2025-03-10", "datetime=2006-01-02"))
	assert.Error(t, ValidateValue("10/03/2025", "datetime=2006-01-02"))
}
