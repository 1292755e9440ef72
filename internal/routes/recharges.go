package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/marketpay/marketpay/internal/recharge"
)

// RegisterRechargeRoutes mounts top-up orders and the admin adjustment endpoint.
func RegisterRechargeRoutes(router fiber.Router, h *recharge.Handler) {
	group := router.Group("/recharges")
	group.Post("", h.CreateOrder)
	group.Get("/:orderNo", h.GetOrder)

	router.Post("/admin/adjustments", h.AdminAdjust)
}
