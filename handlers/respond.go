package handlers

import (
	"errors"
	"log"

	"campaign-quest-system/models"

	"github.com/gofiber/fiber/v2"
)

// fail maps a domain error onto the wire shape every endpoint shares:
// a human-readable message plus the stable machine-readable kind.
func fail(c *fiber.Ctx, err error) error {
	status := models.HTTPStatus(err)
	if status >= 500 {
		log.Printf("💥 %s %s: %v", c.Method(), c.Path(), err)
	}

	message := err.Error()
	var de *models.DomainError
	if errors.As(err, &de) {
		message = de.Message
	}
	return c.Status(status).JSON(fiber.Map{
		"error": message,
		"kind":  models.KindOf(err),
	})
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error": message,
		"kind":  models.KindValidation,
	})
}
