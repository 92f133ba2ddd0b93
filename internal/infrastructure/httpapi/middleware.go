package httpapi

import (
	"time"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"

	"github.com/duragraph/mediagraph/internal/infrastructure/monitoring"
)

// Logger returns a JSON-line request logger.
func Logger() echo.MiddlewareFunc {
	return echomiddleware.LoggerWithConfig(echomiddleware.LoggerConfig{
		Format: `{"time":"${time_rfc3339}","method":"${method}","uri":"${uri}",` +
			`"status":${status},"latency":"${latency_human}","error":"${error}"}` + "\n",
		CustomTimeFormat: time.RFC3339,
	})
}

// Metrics records Prometheus HTTP metrics for every request.
func Metrics(m *monitoring.Metrics) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if m != nil {
				m.RecordHTTPRequest(c.Request().Method, c.Path(), c.Response().Status, time.Since(start))
			}
			return err
		}
	}
}
