package logger

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestRequests(t *testing.T) {
	tests := []struct {
		name       string
		handler    echo.HandlerFunc
		wantStatus int
		wantLevel  string
	}{
		{
			name:       "success",
			handler:    func(c echo.Context) error { return c.NoContent(http.StatusNoContent) },
			wantStatus: http.StatusNoContent,
			wantLevel:  "info",
		},
		{
			name:       "client error",
			handler:    func(c echo.Context) error { return echo.NewHTTPError(http.StatusNotFound, "nope") },
			wantStatus: http.StatusNotFound,
			wantLevel:  "warn",
		},
		{
			name:       "server error",
			handler:    func(c echo.Context) error { return echo.NewHTTPError(http.StatusBadGateway) },
			wantStatus: http.StatusBadGateway,
			wantLevel:  "error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			e := echo.New()
			e.Use(middleware.RequestID())
			e.Use(Requests(zerolog.New(&buf)))

			var ctxLogged bool
			e.GET("/things/:id", func(c echo.Context) error {
				zerolog.Ctx(c.Request().Context()).Info().Msg("inside")
				ctxLogged = true
				return tt.handler(c)
			})

			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/things/1", nil))
			require.Equal(t, tt.wantStatus, rec.Code)
			require.True(t, ctxLogged)

			lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
			require.Len(t, lines, 2)

			var inside, entry map[string]any
			require.NoError(t, json.Unmarshal(lines[0], &inside))
			require.NoError(t, json.Unmarshal(lines[1], &entry))

			require.NotEmpty(t, inside["request_id"])
			require.Equal(t, inside["request_id"], entry["request_id"])
			require.Equal(t, tt.wantLevel, entry["level"])
			require.Equal(t, "/things/:id", entry["path"])
			require.EqualValues(t, tt.wantStatus, entry["status"])
		})
	}
}
