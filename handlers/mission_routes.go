// handlers/mission_routes.go
package handlers

import (
	"context"
	"errors"
	"log"

	"micro-missions/middleware"
	"micro-missions/models"
	"micro-missions/services"
	"micro-missions/utils"

	"github.com/gofiber/fiber/v2"
)

// ProofUploader stores a base64 screenshot and returns its URL.
type ProofUploader interface {
	UploadProofImage(ctx context.Context, userID, missionID, encoded string) (string, error)
}

// SetupMissionRoutes mounts the user-facing mission endpoints. uploader may be
// nil when screenshot storage is not configured.
func SetupMissionRoutes(app *fiber.App, gateway *services.MissionGateway, uploader ProofUploader) {
	missions := app.Group("/missions", middleware.UserContextMiddleware())

	missions.Get("/daily", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		items, err := gateway.ListDailyMissions(c.UserContext(), userID)
		if err != nil {
			return engineError(c, err)
		}
		return c.JSON(fiber.Map{
			"missions": items,
			"count":    len(items),
		})
	})

	missions.Get("/:id", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		detail, err := gateway.GetMissionDetail(c.UserContext(), userID, c.Params("id"))
		if err != nil {
			return engineError(c, err)
		}
		return c.JSON(detail)
	})

	missions.Post("/:id/complete", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		missionID := c.Params("id")

		var req struct {
			Proof *models.Proof `json:"proof"`
		}
		if err := c.BodyParser(&req); err != nil {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, "invalid request body", err)
		}
		if req.Proof == nil || req.Proof.Type == "" {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, "proof with a type is required", nil)
		}

		if req.Proof.Base64 != "" {
			if uploader == nil {
				return utils.ErrorResponse(c, fiber.StatusBadRequest, "screenshot uploads are not enabled", nil)
			}
			url, err := uploader.UploadProofImage(c.UserContext(), userID, missionID, req.Proof.Base64)
			if err != nil {
				if errors.Is(err, utils.ErrInvalidProofImage) {
					return utils.ErrorResponse(c, fiber.StatusBadRequest, "invalid screenshot", err)
				}
				log.Printf("[MissionRoutes] screenshot upload failed for %s: %v", userID, err)
				return utils.ErrorResponse(c, fiber.StatusBadGateway, "failed to store screenshot", err)
			}
			req.Proof.URL = url
			req.Proof.Base64 = ""
		}

		result, err := gateway.SubmitCompletion(c.UserContext(), userID, missionID, req.Proof)
		if err != nil {
			return engineError(c, err)
		}
		if result.State == services.StateRejected {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
				"error":        "verification failed",
				"state":        result.State,
				"attempt_id":   result.AttemptID,
				"verification": result.Verification,
			})
		}
		return c.JSON(result)
	})
}
