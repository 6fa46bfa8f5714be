package mockapi

import (
	"time"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"
)

const (
	errorStageKey = "todos.error_stage"
	errorKey      = "todos.error"
)

// requestLogger emits one structured line per request, at Warn level for
// failures and Debug otherwise.
func requestLogger(logger *log.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			res := c.Response()
			fields := log.Fields{
				"method":     c.Request().Method,
				"route":      c.Path(),
				"status":     res.Status,
				"request_id": res.Header().Get(echo.HeaderXRequestID),
				"total_ms":   float64(time.Since(start)) / float64(time.Millisecond),
			}
			if stage, ok := c.Get(errorStageKey).(string); ok && stage != "" {
				fields["error_stage"] = stage
			}
			if e, ok := c.Get(errorKey).(error); ok && e != nil {
				fields["error"] = e.Error()
			} else if err != nil {
				fields["error"] = err.Error()
			}

			entry := logger.WithFields(fields)
			if res.Status >= 500 || err != nil {
				entry.Warn("todos.mock.request")
			} else {
				entry.Debug("todos.mock.request")
			}
			return nil
		}
	}
}
