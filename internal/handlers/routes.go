// Package handlers wires HTTP requests to the domain services.
package handlers

import (
	"github.com/gofiber/fiber/v2"
)

// SetupRoutes registers all application routes. The idempotency middleware
// guards only the transfer endpoint.
func SetupRoutes(app *fiber.App, transferHandler *TransferHandler, idempotency fiber.Handler) {
	app.Get("/health", Health)
	app.Post("/transfer", idempotency, transferHandler.Transfer)
}
