// handlers/admin_routes.go
package handlers

import (
	"time"

	"micro-missions/middleware"
	"micro-missions/models"
	"micro-missions/services"
	"micro-missions/utils"

	"github.com/gofiber/fiber/v2"
)

// SetupAdminRoutes exposes the housekeeping jobs for manual runs.
func SetupAdminRoutes(app *fiber.App, gateway *services.MissionGateway) {
	admin := app.Group("/s/admin", middleware.UserContextMiddleware(), middleware.RequireRole("admin"))

	admin.Post("/missions/seed", func(c *fiber.Ctx) error {
		var req struct {
			Date string `json:"date"` // YYYY-MM-DD, defaults to today (UTC)
		}
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&req); err != nil {
				return utils.ErrorResponse(c, fiber.StatusBadRequest, "invalid request body", err)
			}
		}

		day := gateway.Catalog.Now()
		if req.Date != "" {
			parsed, err := time.Parse(models.DayLayout, req.Date)
			if err != nil {
				return utils.ErrorResponse(c, fiber.StatusBadRequest, "date must be YYYY-MM-DD", err)
			}
			day = parsed
		}

		missions, err := gateway.Catalog.SeedDailyMissions(c.UserContext(), day)
		if err != nil {
			return engineError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"day":      services.DayKey(day),
			"missions": missions,
			"count":    len(missions),
		})
	})

	admin.Post("/missions/expire", func(c *fiber.Ctx) error {
		n, err := gateway.Catalog.ExpireMissions(c.UserContext())
		if err != nil {
			return engineError(c, err)
		}
		return c.JSON(fiber.Map{"expired": n})
	})

	admin.Post("/streaks/sweep", func(c *fiber.Ctx) error {
		n, err := gateway.Streaks.BreakStaleStreaks(c.UserContext())
		if err != nil {
			return engineError(c, err)
		}
		return c.JSON(fiber.Map{"streaks_reset": n})
	})
}
