package handlers

import (
	"log"
	"os"

	"campaign-quest-system/middleware"
	"campaign-quest-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupAuthRoutes(app *fiber.App, userService *services.UserService) {
	botToken := os.Getenv("TELEGRAM_BOT_TOKEN")
	if botToken == "" {
		log.Fatal("TELEGRAM_BOT_TOKEN environment variable not set")
	}

	// Mini-App login: validate signed initData, resolve (or create) the
	// user, hand back a session token.
	app.Post("/auth/telegram", func(c *fiber.Ctx) error {
		var req struct {
			InitData string `json:"init_data"`
		}
		if err := c.BodyParser(&req); err != nil || req.InitData == "" {
			return badRequest(c, "init_data is required")
		}

		identity, ok := services.ValidateTelegramInitData(req.InitData, botToken)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "invalid init data signature",
			})
		}

		user, err := userService.ResolveTelegramUser(*identity)
		if err != nil {
			return fail(c, err)
		}

		token, err := services.GenerateSessionToken(user.ID, user.IsAdmin)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to issue session token",
			})
		}

		return c.JSON(fiber.Map{
			"token": token,
			"user":  user,
		})
	})

	me := app.Group("/me", middleware.UserContextMiddleware())

	me.Get("/", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		user, err := userService.GetByID(userID)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(user)
	})

	me.Get("/competencies", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		comps, err := userService.GetCompetencies(userID)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(fiber.Map{"competencies": comps})
	})

	me.Get("/achievements", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		grants, err := userService.GetAchievements(userID)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(fiber.Map{"achievements": grants})
	})
}
