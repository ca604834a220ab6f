package logger

import (
	"os"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	httpmiddleware "github.com/wolfeidau/tracker/internal/http"
)

// Setup builds the process logger and installs it as the global logger and
// the fallback for contexts that carry none.
func Setup(dev bool) zerolog.Logger {
	var logger zerolog.Logger
	level := zerolog.InfoLevel
	if dev {
		level = zerolog.DebugLevel
	}

	logger = zerolog.New(os.Stderr).Level(level).With().Timestamp().Caller().Logger()

	if dev {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stderr, FormatTimestamp: func(i any) string {
			return time.Now().Format(time.RFC3339)
		}}).Level(level).With().Stack().Logger()
	}

	log.Logger = logger
	zerolog.DefaultContextLogger = &log.Logger

	return logger
}

// Requests returns echo middleware that attaches a request scoped logger to
// the request context and logs every completed request.
func Requests(logger zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			started := time.Now()
			req := c.Request()

			requestID := c.Response().Header().Get(echo.HeaderXRequestID)

			ctx := logger.With().
				Str("request_id", requestID).
				Str("client_ip", httpmiddleware.ClientIPFromContext(req.Context())).
				Logger().WithContext(req.Context())
			c.SetRequest(req.WithContext(ctx))

			err := next(c)
			if err != nil {
				// let the error handler write the response so the status is known
				c.Error(err)
			}

			ev := zerolog.Ctx(c.Request().Context()).Info()
			if status := c.Response().Status; status >= 500 {
				ev = zerolog.Ctx(c.Request().Context()).Error().Err(err)
			} else if err != nil {
				ev = zerolog.Ctx(c.Request().Context()).Warn().Err(err)
			}

			ev.Str("method", req.Method).
				Str("path", c.Path()).
				Int("status", c.Response().Status).
				Dur("duration", time.Since(started)).
				Msg("http request")

			return nil
		}
	}
}
