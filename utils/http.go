// utils/http.go
package utils

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
)

// QueryLimit reads ?limit= as a positive int, falling back to def.
func QueryLimit(c *fiber.Ctx, def int) int {
	n, err := strconv.Atoi(c.Query("limit"))
	if err != nil || n <= 0 {
		return def
	}
	return n
}

// ErrorResponse writes the service's standard error body.
func ErrorResponse(c *fiber.Ctx, status int, msg string, cause error) error {
	body := fiber.Map{"error": msg}
	if cause != nil {
		body["cause"] = cause.Error()
	}
	return c.Status(status).JSON(body)
}
