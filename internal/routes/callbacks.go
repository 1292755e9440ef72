package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/marketpay/marketpay/internal/callback"
)

// RegisterCallbackRoutes mounts the gateway callback endpoint at the root so
// the paths registered with each gateway never change with API versions.
func RegisterCallbackRoutes(app *fiber.App, h *callback.Handler) {
	app.Post("/callbacks/:channel", h.Receive)
}
