package middleware

import (
	"time"

	"tour-booking/logger"
	"tour-booking/types"

	"github.com/gofiber/fiber/v2"
)

const maxLoggedBodyBytes = 4096

// RequestLogger captures each request/response pair and hands a deep-copied,
// size-capped entry to the async logger. Copies matter: fiber reuses its
// buffers after the handler returns.
func RequestLogger(asyncLogger *logger.AsyncLogger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()

		requestHeaders := make([]byte, len(c.Request().Header.Header()))
		copy(requestHeaders, c.Request().Header.Header())
		responseHeaders := make([]byte, len(c.Response().Header.Header()))
		copy(responseHeaders, c.Response().Header.Header())

		asyncLogger.Log(types.LogEntry{
			Method:          string([]byte(c.Method())),
			URL:             string([]byte(c.OriginalURL())),
			RequestBody:     truncatedCopy(c.Body()),
			ResponseBody:    truncatedCopy(c.Response().Body()),
			RequestHeaders:  string(requestHeaders),
			ResponseHeaders: string(responseHeaders),
			StatusCode:      c.Response().StatusCode(),
			CreatedAt:       time.Now(),
		})

		return err
	}
}

func truncatedCopy(body []byte) string {
	if len(body) > maxLoggedBodyBytes {
		body = body[:maxLoggedBodyBytes]
	}
	return string(append([]byte(nil), body...))
}
