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

func SetupMissionRoutes(app *fiber.App, missionService *services.MissionService, settlementService *services.SettlementService, achievementService *services.AchievementService) {
	secured := middleware.UserContextMiddleware()

	// Missions of one campaign with per-user lock state. Quiz answer
	// keys and QR completion codes never serialize.
	app.Get("/campaigns/:id/missions", secured, func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		missions, err := missionService.ListForUser(c.Params("id"), userID)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(fiber.Map{"missions": missions})
	})

	app.Post("/missions/:id/submit", secured, func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		var submission services.MissionSubmission
		if err := c.BodyParser(&submission); err != nil {
			return badRequest(c, "invalid request body")
		}
		completion, err := missionService.SubmitMission(userID, c.Params("id"), submission)
		if err != nil {
			return fail(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(completion)
	})

	admin := app.Group("/admin", middleware.UserContextMiddleware(), middleware.AdminOnlyMiddleware())

	admin.Post("/missions", func(c *fiber.Ctx) error {
		var in services.CreateMissionInput
		if err := c.BodyParser(&in); err != nil {
			return badRequest(c, "invalid request body")
		}
		mission, err := missionService.CreateMission(in)
		if err != nil {
			return fail(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(mission)
	})

	admin.Delete("/missions/:id", func(c *fiber.Ctx) error {
		if err := missionService.DeleteMission(c.Params("id")); err != nil {
			return fail(c, err)
		}
		return c.JSON(fiber.Map{"message": "mission deleted"})
	})

	// QR poster upload (the scannable image distributed offline).
	admin.Post("/missions/:id/qr-image", func(c *fiber.Ctx) error {
		fileHeader, err := c.FormFile("image")
		if err != nil {
			return badRequest(c, "image file is required")
		}
		key := fmt.Sprintf("qr/%s-%s%s", c.Params("id"), uuid.NewString(), filepath.Ext(fileHeader.Filename))
		url, err := utils.UploadFileToR2(fileHeader, key)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to upload image",
			})
		}
		if err := missionService.SetQRImageURL(c.Params("id"), url); err != nil {
			return fail(c, err)
		}
		return c.JSON(fiber.Map{"qr_image_url": url})
	})

	admin.Get("/missions/:id/completions", func(c *fiber.Ctx) error {
		completions, err := settlementService.ListPendingReview(c.Params("id"))
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(fiber.Map{"completions": completions})
	})

	// Moderator verdict. REJECTED requires a comment; re-approving an
	// approved completion is a no-op.
	admin.Patch("/missions/:id/completions/:cid", func(c *fiber.Ctx) error {
		moderatorID := c.Locals("user_id").(string)
		var req struct {
			Verdict models.CompletionStatus `json:"verdict"`
			Comment string                  `json:"comment"`
		}
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "invalid request body")
		}
		completion, err := settlementService.ModerateCompletion(
			c.Params("id"), c.Params("cid"), moderatorID, req.Verdict, req.Comment)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(completion)
	})

	admin.Post("/achievements", func(c *fiber.Ctx) error {
		var in services.CreateAchievementInput
		if err := c.BodyParser(&in); err != nil {
			return badRequest(c, "invalid request body")
		}
		achievement, err := achievementService.CreateAchievement(in)
		if err != nil {
			return fail(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(achievement)
	})

	admin.Delete("/achievements/:id", func(c *fiber.Ctx) error {
		if err := achievementService.DeleteAchievement(c.Params("id")); err != nil {
			return fail(c, err)
		}
		return c.JSON(fiber.Map{"message": "achievement deleted"})
	})
}
