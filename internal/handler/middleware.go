package handler

import (
	"crypto/subtle"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"
)

// requestLogger logs each request with method, path, status, size and
// duration.
func requestLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			status = fiber.StatusInternalServerError
			var fe *fiber.Error
			if errors.As(err, &fe) {
				status = fe.Code
			}
		}

		bytes := c.Response().Header.ContentLength()
		if !c.Response().IsBodyStream() {
			bytes = len(c.Response().Body())
		}

		entry := log.WithFields(log.Fields{
			"method":   c.Method(),
			"path":     c.OriginalURL(),
			"status":   status,
			"bytes":    bytes,
			"duration": time.Since(start),
			"remote":   c.IP(),
		})
		switch {
		case status >= fiber.StatusInternalServerError:
			entry.Warn("request completed with server error")
		case c.Path() == "/health" || c.Path() == "/metrics":
			entry.Debug("request completed")
		default:
			entry.Info("request completed")
		}
		return err
	}
}

// apiKeyAuth requires the configured key in either an "Authorization: Bearer"
// or an "X-API-Key" header. An empty key disables the check.
func apiKeyAuth(apiKey string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if apiKey == "" {
			return c.Next()
		}

		bearer, _ := strings.CutPrefix(c.Get(fiber.HeaderAuthorization), "Bearer ")
		if keyMatches(bearer, apiKey) || keyMatches(c.Get(headerAPIKey), apiKey) {
			return c.Next()
		}

		log.WithFields(log.Fields{
			"path":   c.Path(),
			"remote": c.IP(),
		}).Warn("rejected request with invalid api key")
		return writeJSONError(c, fiber.StatusUnauthorized, msgUnauthorized)
	}
}

func keyMatches(got, want string) bool {
	return got != "" && subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}
