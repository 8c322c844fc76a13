package handlers

import (
	"fmt"
	"path/filepath"

	"campaign-quest-system/middleware"
	"campaign-quest-system/models"
	"campaign-quest-system/services"
	"campaign-quest-system/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

func SetupCampaignRoutes(app *fiber.App, campaignService *services.CampaignService, achievementService *services.AchievementService) {
	secured := app.Group("/campaigns", middleware.UserContextMiddleware())

	// Campaigns the authenticated user participates in.
	secured.Get("/", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		campaigns, err := campaignService.ListJoined(userID)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(fiber.Map{"campaigns": campaigns})
	})

	// Authenticated join for the Mini-App client; returns the full
	// campaign record unlike the bot variant.
	secured.Post("/join", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		var req struct {
			ActivationCode string `json:"activation_code"`
		}
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "invalid request body")
		}
		campaign, err := campaignService.JoinByCode(userID, req.ActivationCode)
		if err != nil {
			return fail(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(campaign)
	})

	secured.Get("/:id", func(c *fiber.Ctx) error {
		campaign, err := campaignService.GetCampaign(c.Params("id"))
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(campaign)
	})

	secured.Get("/:id/achievements", func(c *fiber.Ctx) error {
		achievements, err := achievementService.ListByCampaign(c.Params("id"))
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(fiber.Map{"achievements": achievements})
	})

	admin := app.Group("/admin/campaigns", middleware.UserContextMiddleware(), middleware.AdminOnlyMiddleware())

	admin.Get("/", func(c *fiber.Ctx) error {
		status := models.CampaignStatus(c.Query("status"))
		campaigns, err := campaignService.ListCampaigns(status)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(fiber.Map{"campaigns": campaigns})
	})

	admin.Post("/", func(c *fiber.Ctx) error {
		var in services.CreateCampaignInput
		if err := c.BodyParser(&in); err != nil {
			return badRequest(c, "invalid request body")
		}
		campaign, err := campaignService.CreateCampaign(in)
		if err != nil {
			return fail(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(campaign)
	})

	admin.Patch("/:id/status", func(c *fiber.Ctx) error {
		var req struct {
			Status models.CampaignStatus `json:"status"`
		}
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "invalid request body")
		}
		campaign, err := campaignService.SetStatus(c.Params("id"), req.Status)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(campaign)
	})

	admin.Delete("/:id", func(c *fiber.Ctx) error {
		if err := campaignService.DeleteCampaign(c.Params("id")); err != nil {
			return fail(c, err)
		}
		return c.JSON(fiber.Map{"message": "campaign deleted"})
	})

	// Cover image upload: stored in R2, URL written back on the row.
	admin.Post("/:id/cover", func(c *fiber.Ctx) error {
		campaign, err := campaignService.GetCampaign(c.Params("id"))
		if err != nil {
			return fail(c, err)
		}

		fileHeader, err := c.FormFile("cover")
		if err != nil {
			return badRequest(c, "cover file is required")
		}

		key := fmt.Sprintf("covers/%s-%s%s", campaign.Slug, uuid.NewString(), filepath.Ext(fileHeader.Filename))
		url, err := utils.UploadFileToR2(fileHeader, key)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to upload cover",
			})
		}

		if err := campaignService.SetCoverURL(campaign.ID, url); err != nil {
			return fail(c, err)
		}
		return c.JSON(fiber.Map{"cover_url": url})
	})
}
