package handlers

import (
	"campaign-quest-system/middleware"
	"campaign-quest-system/services"

	"github.com/gofiber/fiber/v2"
)

// SetupBotRoutes wires the bot-facing API: the Telegram bot's two
// deep-link actions. Both resolve the external identity first, so a
// user's very first contact can be a scanned QR code.
func SetupBotRoutes(app *fiber.App, userService *services.UserService, campaignService *services.CampaignService, missionService *services.MissionService) {
	bot := app.Group("/bot", middleware.ServiceAuthMiddleware())

	bot.Post("/campaigns/join", func(c *fiber.Ctx) error {
		var req struct {
			services.TelegramIdentity
			ActivationCode string `json:"activation_code"`
		}
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "invalid request body")
		}
		if req.TelegramID == 0 {
			return badRequest(c, "telegram_id is required")
		}

		user, err := userService.ResolveTelegramUser(req.TelegramIdentity)
		if err != nil {
			return fail(c, err)
		}

		campaign, err := campaignService.JoinByCode(user.ID, req.ActivationCode)
		if err != nil {
			return fail(c, err)
		}

		return c.JSON(fiber.Map{
			"campaign_id": campaign.ID,
			"title":       campaign.Title,
			"cover_url":   campaign.CoverURL,
			"tma_url":     campaignService.TMAURL(campaign),
		})
	})

	bot.Post("/missions/qr-complete", func(c *fiber.Ctx) error {
		var req struct {
			services.TelegramIdentity
			CompletionCode string `json:"completion_code"`
		}
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "invalid request body")
		}
		if req.TelegramID == 0 {
			return badRequest(c, "telegram_id is required")
		}

		user, err := userService.ResolveTelegramUser(req.TelegramIdentity)
		if err != nil {
			return fail(c, err)
		}

		if _, err := missionService.CompleteQRByCode(user.ID, req.CompletionCode); err != nil {
			return fail(c, err)
		}

		return c.JSON(fiber.Map{})
	})
}
