package echoapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	metricsvc "github.com/kelna-terese/EvalX/services/metrics"
)

// roleMiddleware only lets through users of one of roles.
func roleMiddleware(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			if _, err := getContextClaims(ctx); err != nil {
				return errors.Wrap(err, "getting context claims")
			}
			if contextHasAnyRole(ctx, roles) {
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}

// metricsMiddleware counts and times requests by route. Errors are handled here so that the
// recorded status code is the one sent.
func metricsMiddleware(m *metricsvc.Metrics) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			start := time.Now()
			if err := next(ctx); err != nil {
				ctx.Error(err)
			}

			path := ctx.Path()
			if path == "" {
				path = "unmatched"
			}
			code := ctx.Response().Status
			if code == 0 {
				code = http.StatusOK
			}
			method := ctx.Request().Method
			m.HTTPRequests.WithLabelValues(method, path, strconv.Itoa(code)).Inc()
			m.HTTPDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
			return nil
		}
	}
}
