package middleware

import (
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const LoggerKey = "logger"

// InjectLogger puts a request-scoped logger (tagged with the request id)
// into the echo context and writes one access line per request.
func InjectLogger(logger *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			reqID := c.Response().Header().Get(echo.HeaderXRequestID)
			reqLogger := logger.With(zap.String("request_id", reqID))
			c.Set(LoggerKey, reqLogger)

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			reqLogger.Info("request",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Int("status", c.Response().Status),
				zap.Duration("took", time.Since(start)),
			)
			return nil
		}
	}
}

// FromContext returns the logger stored by InjectLogger or fallback.
func FromContext(c echo.Context, fallback *zap.Logger) *zap.Logger {
	if l, ok := c.Get(LoggerKey).(*zap.Logger); ok {
		return l
	}
	return fallback
}
