package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/marketpay/marketpay/internal/withdrawal"
)

// RegisterWithdrawalRoutes mounts the withdrawal request lifecycle.
func RegisterWithdrawalRoutes(router fiber.Router, h *withdrawal.Handler) {
	group := router.Group("/withdrawals")
	group.Post("", h.Create)
	group.Get("/:id", h.Get)
	group.Post("/:id/review", h.Review)
}
