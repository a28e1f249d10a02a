package echoutil

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
	"go.uber.org/zap"
)

const (
	// RequestIDHeader carries the request id in the response. A request id
	// sent by the client in the same header is kept.
	RequestIDHeader = echo.HeaderXRequestID

	loggerKey = "groupselector.logger"
)

// LogHandler logs each request and its response, and attaches a logger
// carrying the request id to the echo.Context (see Logger).
func LogHandler(base *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			reqid := req.Header.Get(RequestIDHeader)
			if reqid == "" {
				reqid = uuid.NewString()
			}
			c.Response().Header().Set(RequestIDHeader, reqid)

			logger := base.With(zap.String("request_id", reqid))
			c.Set(loggerKey, logger)

			begin := time.Now()
			logger.Info(
				"< request",
				zap.String("method", req.Method),
				zap.String("uri", req.RequestURI),
			)

			err := next(c)

			fields := []zap.Field{
				zap.Int("status", c.Response().Status),
				zap.Duration("elapsed", time.Since(begin)),
			}
			if err != nil {
				fields = append(fields, zap.Error(err))
				logger.Warn("> response", fields...)
			} else {
				logger.Info("> response", fields...)
			}
			return err
		}
	}
}

// Logger returns the request scoped logger set by LogHandler, or a no-op logger.
func Logger(c echo.Context) *zap.Logger {
	if l, ok := c.Get(loggerKey).(*zap.Logger); ok {
		return l
	}
	return zap.NewNop()
}

// SetLevel sets the level of echo's own logger.
//
// loglevel is one of debug, info, warn, error or off. Others fall back to warn.
func SetLevel(e *echo.Echo, loglevel string) {
	switch strings.ToLower(loglevel) {
	case "debug":
		e.Logger.SetLevel(log.DEBUG)
	case "info":
		e.Logger.SetLevel(log.INFO)
	case "warn", "":
		e.Logger.SetLevel(log.WARN)
	case "error":
		e.Logger.SetLevel(log.ERROR)
	case "off":
		e.Logger.SetLevel(log.OFF)
	default:
		e.Logger.SetLevel(log.WARN)
		e.Logger.Warnf("unknown loglevel: %s . fall-backed to warn", loglevel)
	}
}
