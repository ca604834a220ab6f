package server

import (
	"net/http"
	"sync"

	"github.com/labstack/echo/v4"
	httpmiddleware "github.com/wolfeidau/tracker/internal/http"
	"golang.org/x/time/rate"
)

// loginLimiter is a token bucket per client IP guarding the login endpoint.
type loginLimiter struct {
	limiters sync.Map // client ip -> *rate.Limiter
	rate     rate.Limit
	burst    int
}

func newLoginLimiter(r rate.Limit, burst int) *loginLimiter {
	return &loginLimiter{rate: r, burst: burst}
}

func (l *loginLimiter) limiter(key string) *rate.Limiter {
	if existing, ok := l.limiters.Load(key); ok {
		return existing.(*rate.Limiter)
	}
	actual, _ := l.limiters.LoadOrStore(key, rate.NewLimiter(l.rate, l.burst))
	return actual.(*rate.Limiter)
}

func (l *loginLimiter) allow(key string) bool {
	return l.limiter(key).Allow()
}

func (l *loginLimiter) middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := httpmiddleware.ClientIPFromContext(c.Request().Context())
			if key == "" {
				key = c.RealIP()
			}
			if !l.allow(key) {
				c.Response().Header().Set("Retry-After", "1")
				return echo.NewHTTPError(http.StatusTooManyRequests, "too many login attempts")
			}
			return next(c)
		}
	}
}
