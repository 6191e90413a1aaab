// handlers/reward_routes.go
package handlers

import (
	"micro-missions/middleware"
	"micro-missions/services"
	"micro-missions/utils"

	"github.com/gofiber/fiber/v2"
)

func SetupRewardRoutes(app *fiber.App, wallets *services.WalletLedger) {
	rewards := app.Group("/rewards", middleware.UserContextMiddleware())

	rewards.Get("/wallet", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		wallet, err := wallets.GetWallet(c.UserContext(), userID)
		if err != nil {
			return engineError(c, err)
		}
		return c.JSON(fiber.Map{
			"wallet_id":     wallet.ID,
			"user_id":       wallet.UserID,
			"total_balance": wallet.TotalBalance,
			"currency":      wallet.Currency,
			"updated_at":    wallet.UpdatedAt,
		})
	})

	rewards.Get("/history", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		history, err := wallets.RewardHistory(c.UserContext(), userID, utils.QueryLimit(c, 50))
		if err != nil {
			return engineError(c, err)
		}
		return c.JSON(fiber.Map{
			"rewards": history,
			"count":   len(history),
		})
	})
}
