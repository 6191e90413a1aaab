// handlers/streak_routes.go
package handlers

import (
	"micro-missions/middleware"
	"micro-missions/services"
	"micro-missions/utils"

	"github.com/gofiber/fiber/v2"
)

func SetupStreakRoutes(app *fiber.App, streaks *services.StreakTracker, badges *services.BadgeService) {
	group := app.Group("/streaks", middleware.UserContextMiddleware())

	group.Get("/current", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		streak, err := streaks.GetStreak(c.UserContext(), userID)
		if err != nil {
			return engineError(c, err)
		}
		return c.JSON(streak)
	})

	group.Get("/leaderboard", func(c *fiber.Ctx) error {
		entries, err := streaks.Leaderboard(c.UserContext(), utils.QueryLimit(c, 10))
		if err != nil {
			return engineError(c, err)
		}
		return c.JSON(fiber.Map{
			"leaderboard": entries,
			"count":       len(entries),
		})
	})

	group.Get("/badges", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		list, err := badges.ListUserBadges(c.UserContext(), userID)
		if err != nil {
			return engineError(c, err)
		}
		return c.JSON(fiber.Map{
			"badges": list,
			"count":  len(list),
		})
	})
}
