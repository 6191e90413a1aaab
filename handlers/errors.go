// handlers/errors.go
package handlers

import (
	"errors"
	"log"

	"micro-missions/services"
	"micro-missions/utils"

	"github.com/gofiber/fiber/v2"
)

// engineError maps the engine's error taxonomy onto HTTP statuses.
func engineError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrMissionNotFound):
		return utils.ErrorResponse(c, fiber.StatusNotFound, "mission not found", err)
	case errors.Is(err, services.ErrMissionExpired):
		return utils.ErrorResponse(c, fiber.StatusGone, "mission has expired", err)
	case errors.Is(err, services.ErrAlreadyAttempted):
		return utils.ErrorResponse(c, fiber.StatusConflict, "mission already attempted today", err)
	case errors.Is(err, services.ErrMissionLocked):
		return utils.ErrorResponse(c, fiber.StatusForbidden, "mission is locked", err)
	case errors.Is(err, services.ErrAlreadyResolved):
		return utils.ErrorResponse(c, fiber.StatusConflict, "attempt already resolved", err)
	case errors.Is(err, services.ErrTransactionFailed):
		c.Set(fiber.HeaderRetryAfter, "1")
		return utils.ErrorResponse(c, fiber.StatusServiceUnavailable, "reward could not be credited, please retry", err)
	default:
		log.Printf("[Handlers] unexpected error on %s %s: %v", c.Method(), c.Path(), err)
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "internal error", err)
	}
}
