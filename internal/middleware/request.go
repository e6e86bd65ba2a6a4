package middleware

import (
	"time"

	"plastics-backend/internal/apierror"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	HeaderRequestID   = "X-Request-ID"
	CtxRequestIDKey   = "request_id"
	maxRequestIDChars = 64
)

// RequestID reuses a sane incoming X-Request-ID or issues a new uuid.
func RequestID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Get(HeaderRequestID)
		if id == "" || len(id) > maxRequestIDChars {
			id = uuid.NewString()
		}
		c.Locals(CtxRequestIDKey, id)
		c.Set(HeaderRequestID, id)
		return c.Next()
	}
}

// RequestLogger logs one line per request after the handler chain ran.
func RequestLogger(logger *logrus.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			status = apierror.From(err).Status
		}
		entry := logger.WithFields(logrus.Fields{
			"method":     c.Method(),
			"path":       c.Path(),
			"status":     status,
			"latency_ms": time.Since(start).Milliseconds(),
			"request_id": c.Locals(CtxRequestIDKey),
		})
		switch {
		case status >= fiber.StatusInternalServerError:
			entry.Error("request failed")
		case status >= fiber.StatusBadRequest:
			entry.Warn("request rejected")
		default:
			entry.Info("request")
		}
		return err
	}
}
