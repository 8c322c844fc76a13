package handlers

import (
	"campaign-quest-system/middleware"
	"campaign-quest-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupStoreRoutes(app *fiber.App, storeService *services.StoreService) {
	secured := middleware.UserContextMiddleware()

	app.Get("/campaigns/:id/store", secured, func(c *fiber.Ctx) error {
		items, err := storeService.ListItems(c.Params("id"))
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(fiber.Map{"items": items})
	})

	app.Post("/store/items/:id/purchase", secured, func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		purchase, err := storeService.Purchase(userID, c.Params("id"))
		if err != nil {
			return fail(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(purchase)
	})

	app.Get("/me/purchases", secured, func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		purchases, err := storeService.ListPurchases(userID)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(fiber.Map{"purchases": purchases})
	})

	admin := app.Group("/admin/store", middleware.UserContextMiddleware(), middleware.AdminOnlyMiddleware())

	admin.Post("/items", func(c *fiber.Ctx) error {
		var in services.CreateStoreItemInput
		if err := c.BodyParser(&in); err != nil {
			return badRequest(c, "invalid request body")
		}
		item, err := storeService.CreateItem(in)
		if err != nil {
			return fail(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(item)
	})
}
