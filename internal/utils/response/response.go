// Package response provides JSON response helpers shared by the handlers.
package response

import (
	"github.com/gofiber/fiber/v2"
)

func Created(c *fiber.Ctx, data interface{}) error {
	return c.Status(fiber.StatusCreated).JSON(data)
}

func Error(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"error": message,
	})
}

func ValidationError(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusUnprocessableEntity, message)
}

func ServerError(c *fiber.Ctx) error {
	return Error(c, fiber.StatusInternalServerError, "internal server error")
}
