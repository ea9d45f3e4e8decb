package middleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/squidly/pkg/appctx"
	menuerrors "github.com/Ramsey-B/squidly/pkg/errors"
)

func newServer(handler echo.HandlerFunc) *echo.Echo {
	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})

	e := echo.New()
	e.HTTPErrorHandler = Error(logger)
	e.Use(Context())
	e.Use(Logger(logger))
	e.GET("/", handler)
	return e
}

func TestContext_CarriesRequestValues(t *testing.T) {
	var requestID, actor string
	e := newServer(func(c echo.Context) error {
		requestID = appctx.GetRequestID(c.Request().Context())
		actor = appctx.GetActor(c.Request().Context())
		return c.NoContent(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(echo.HeaderXRequestID, "req-1")
	req.Header.Set(HeaderActor, "ops")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "req-1", requestID)
	assert.Equal(t, "ops", actor)
	assert.Equal(t, "req-1", rec.Header().Get(echo.HeaderXRequestID))
}

func TestError_Responses(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantCode    int
		wantMessage string
		wantMeta    string
	}{
		{
			name:        "resource in use",
			err:         fmt.Errorf("delete: %w", menuerrors.NewResourceInUseError("Cheese", []string{"Toppings", "Pizza"})),
			wantCode:    http.StatusConflict,
			wantMessage: "cannot delete Cheese: in use by: Toppings, Pizza",
			wantMeta:    "dependants",
		},
		{
			name:        "validation",
			err:         menuerrors.NewValidationError("name", "is required"),
			wantCode:    http.StatusBadRequest,
			wantMessage: "field 'name': is required",
			wantMeta:    "field",
		},
		{
			name:        "echo error",
			err:         echo.NewHTTPError(http.StatusTeapot, "short and stout"),
			wantCode:    http.StatusTeapot,
			wantMessage: "short and stout",
		},
		{
			name:        "unknown",
			err:         errors.New("connection reset"),
			wantCode:    http.StatusInternalServerError,
			wantMessage: "Internal Server Error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newServer(func(echo.Context) error { return tt.err })

			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

			assert.Equal(t, tt.wantCode, rec.Code)

			var body ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.wantMessage, body.Message)
			assert.NotEmpty(t, body.RequestID)
			if tt.wantMeta != "" {
				assert.Contains(t, body.Meta, tt.wantMeta)
			}
		})
	}
}
