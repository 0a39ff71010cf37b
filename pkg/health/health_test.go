package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func healthy(context.Context) error { return nil }

func failing(context.Context) error { return errors.New("connection refused") }

func get(t *testing.T, c *Checker, path string) (int, Response) {
	t.Helper()
	e := echo.New()
	c.RegisterRoutes(e)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

	var body Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec.Code, body
}

func TestLiveness(t *testing.T) {
	c := NewChecker("1.2.3")
	c.AddCheck("database", PingFunc(failing), true)

	code, body := get(t, c, "/api/v1/health/live")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, StatusHealthy, body.Status)
	assert.Equal(t, "1.2.3", body.Version)
}

func TestReadiness_NotReady(t *testing.T) {
	c := NewChecker("dev")

	code, body := get(t, c, "/api/v1/health/ready")
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Contains(t, body.Checks, "startup")
}

func TestHealth(t *testing.T) {
	tests := []struct {
		name     string
		database PingFunc
		redis    PingFunc
		code     int
		status   Status
	}{
		{"all healthy", healthy, healthy, http.StatusOK, StatusHealthy},
		{"optional dependency down", healthy, failing, http.StatusOK, StatusDegraded},
		{"critical dependency down", failing, healthy, http.StatusServiceUnavailable, StatusUnhealthy},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewChecker("dev")
			c.AddCheck("database", tt.database, true)
			c.AddCheck("redis", tt.redis, false)
			c.SetReady(true)

			code, body := get(t, c, "/api/v1/health/ready")
			assert.Equal(t, tt.code, code)
			assert.Equal(t, tt.status, body.Status)
			assert.Len(t, body.Checks, 2)
		})
	}
}

func TestAddCheck_IgnoresNil(t *testing.T) {
	c := NewChecker("dev")
	c.AddCheck("redis", nil, false)
	assert.Empty(t, c.checks)
}
