package middleware

import (
	"context"
	"strconv"
	"strings"
	"time"

	"schooladmin/models"

	"github.com/gofiber/fiber/v2"
	fiberutils "github.com/gofiber/fiber/v2/utils"
	"github.com/sirupsen/logrus"
)

// ActivityRecorder persists audit entries.
type ActivityRecorder interface {
	Record(ctx context.Context, entry models.ActivityEntry) error
}

// LoggerMiddleware logs HTTP requests
func LoggerMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		// Process request
		err := c.Next()

		fields := logrus.Fields{
			"method":     c.Method(),
			"path":       c.Path(),
			"status":     c.Response().StatusCode(),
			"duration":   time.Since(start).String(),
			"ip":         c.IP(),
			"user_agent": c.Get("User-Agent"),
			"request_id": RequestID(c),
		}
		if id, ok := CurrentIdentity(c); ok {
			fields["user_id"] = id.UserID
		}
		logrus.WithFields(fields).Info("HTTP Request")

		return err
	}
}

// RequestID returns the id assigned by the requestid middleware, if any.
func RequestID(c *fiber.Ctx) string {
	if v, ok := c.Locals("requestid").(string); ok && v != "" {
		return v
	}
	return c.Get(fiber.HeaderXRequestID)
}

// NewActivityEntry describes the current request for the audit trail.
// Strings are copied out of the request buffers so the entry outlives the request.
func NewActivityEntry(c *fiber.Ctx, action, resource string, resourceID uint, details interface{}) models.ActivityEntry {
	entry := models.ActivityEntry{
		Action:     fiberutils.CopyString(action),
		Resource:   fiberutils.CopyString(resource),
		ResourceID: resourceID,
		Details:    details,
		IPAddress:  fiberutils.CopyString(c.IP()),
		UserAgent:  fiberutils.CopyString(c.Get(fiber.HeaderUserAgent)),
		RequestID:  fiberutils.CopyString(RequestID(c)),
		Method:     fiberutils.CopyString(c.Method()),
		Path:       fiberutils.CopyString(c.Path()),
		StatusCode: c.Response().StatusCode(),
	}
	if id, ok := CurrentIdentity(c); ok {
		uid := id.UserID
		entry.UserID = &uid
	}
	return entry
}

// RecordAsync hands entry to recorder off the request goroutine.
func RecordAsync(recorder ActivityRecorder, entry models.ActivityEntry) {
	if recorder == nil {
		return
	}
	go func() {
		defer func() {
			if r := recover(); r != nil {
				logrus.WithField("panic", r).Error("panic recovered while recording activity")
			}
		}()
		if err := recorder.Record(context.Background(), entry); err != nil {
			logrus.WithError(err).Error("Failed to record activity log")
		}
	}()
}

// LogActivityMiddleware records successful mutating requests.
func LogActivityMiddleware(recorder ActivityRecorder) fiber.Handler {
	return func(c *fiber.Ctx) error {
		// auth endpoints record their own events
		if c.Method() == fiber.MethodGet || strings.Contains(c.Path(), "/auth/") {
			return c.Next()
		}

		err := c.Next()

		action := ActionForMethod(c.Method())
		if action == "" || err != nil || c.Response().StatusCode() >= 400 {
			return err
		}

		resource := ResourceFromPath(c.Path())
		var resourceID uint
		if id := c.Params("id"); id != "" {
			if n, parseErr := strconv.ParseUint(id, 10, 64); parseErr == nil {
				resourceID = uint(n)
			}
		}

		RecordAsync(recorder, NewActivityEntry(c, action, resource, resourceID, nil))
		return nil
	}
}

func ActionForMethod(method string) string {
	switch method {
	case fiber.MethodPost:
		return "CREATE"
	case fiber.MethodPut, fiber.MethodPatch:
		return "UPDATE"
	case fiber.MethodDelete:
		return "DELETE"
	}
	return ""
}

// ResourceFromPath takes the segment after /api.
func ResourceFromPath(path string) string {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) >= 2 && parts[0] == "api" {
		return parts[1]
	}
	if len(parts) > 0 {
		return parts[0]
	}
	return ""
}
