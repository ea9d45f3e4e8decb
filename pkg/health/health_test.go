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

func serve(t *testing.T, c *Checker, path string) (int, Response) {
	t.Helper()

	e := echo.New()
	c.RegisterRoutes(e)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

	var resp Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return rec.Code, resp
}

func TestReadiness_WaitsForStartup(t *testing.T) {
	c := NewChecker("test")

	code, resp := serve(t, c, "/ready")
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, StatusUnhealthy, resp.Checks["startup"].Status)

	c.SetReady(true)
	code, resp = serve(t, c, "/ready")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, StatusHealthy, resp.Status)
}

func TestHealth_Statuses(t *testing.T) {
	failing := func(context.Context) error { return errors.New("connection refused") }
	passing := func(context.Context) error { return nil }

	tests := []struct {
		name     string
		setup    func(c *Checker)
		wantCode int
		want     Status
	}{
		{"all healthy", func(c *Checker) { c.Register("database", passing) }, http.StatusOK, StatusHealthy},
		{"optional failure degrades", func(c *Checker) {
			c.Register("database", passing)
			c.RegisterOptional("redis", failing)
		}, http.StatusOK, StatusDegraded},
		{"required failure", func(c *Checker) {
			c.Register("database", failing)
			c.RegisterOptional("redis", passing)
		}, http.StatusServiceUnavailable, StatusUnhealthy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewChecker("test")
			tt.setup(c)

			code, resp := serve(t, c, "/health")
			assert.Equal(t, tt.wantCode, code)
			assert.Equal(t, tt.want, resp.Status)
		})
	}
}

func TestLiveness(t *testing.T) {
	code, resp := serve(t, NewChecker("1.2.3"), "/live")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "1.2.3", resp.Version)
}

