package routes

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/marketpay/marketpay/internal/account"
	"github.com/marketpay/marketpay/internal/ledger"
	"github.com/marketpay/marketpay/internal/recharge"
	"github.com/marketpay/marketpay/internal/withdrawal"
)

// RegisterOwnerRoutes mounts the owner-scoped read surface: balances, the
// finance statement, and per-owner withdrawal and recharge history.
func RegisterOwnerRoutes(router fiber.Router, accounts account.Store, entries ledger.Reader, withdrawals *withdrawal.Handler, recharges *recharge.Handler) {
	group := router.Group("/owners/:kind/:id")

	group.Get("/balance", func(c *fiber.Ctx) error {
		kind := account.OwnerKind(c.Params("kind"))
		if !kind.Valid() {
			return fiber.NewError(http.StatusBadRequest, "unknown owner kind")
		}
		acct, err := accounts.Get(c.UserContext(), c.Params("id"), kind)
		if err != nil {
			return fiber.NewError(http.StatusInternalServerError, err.Error())
		}
		return c.JSON(fiber.Map{
			"owner_id":         acct.OwnerID,
			"owner_kind":       acct.OwnerKind,
			"spendable":        acct.Spendable,
			"frozen":           acct.Frozen,
			"silver_spendable": acct.SilverSpendable,
			"silver_frozen":    acct.SilverFrozen,
		})
	})

	group.Get("/statement", func(c *fiber.Ctx) error {
		kind := account.OwnerKind(c.Params("kind"))
		if !kind.Valid() {
			return fiber.NewError(http.StatusBadRequest, "unknown owner kind")
		}
		list, err := entries.ListByOwner(c.UserContext(), c.Params("id"), kind, c.QueryInt("limit", 50))
		if err != nil {
			return fiber.NewError(http.StatusInternalServerError, err.Error())
		}
		return c.JSON(list)
	})

	group.Get("/withdrawals", withdrawals.ListByOwner)
	group.Get("/recharges", recharges.ListByOwner)
}
