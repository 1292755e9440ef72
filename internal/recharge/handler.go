package recharge

import (
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/marketpay/marketpay/internal/account"
)

// Handler exposes recharge HTTP endpoints.
type Handler struct {
	service *Service
}

// NewHandler constructs a recharge handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type orderRequest struct {
	OwnerID   string `json:"owner_id"`
	OwnerKind string `json:"owner_kind"`
	Amount    int64  `json:"amount"`
	Channel   string `json:"channel"`
}

type orderResponse struct {
	ID        string     `json:"id"`
	OrderNo   string     `json:"order_no"`
	OwnerID   string     `json:"owner_id"`
	OwnerKind string     `json:"owner_kind"`
	Amount    int64      `json:"amount"`
	Channel   string     `json:"channel"`
	Status    string     `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
	ExpiresAt time.Time  `json:"expires_at"`
	PaidAt    *time.Time `json:"paid_at,omitempty"`
}

type adjustRequest struct {
	OwnerID   string `json:"owner_id"`
	OwnerKind string `json:"owner_kind"`
	Field     string `json:"field"`
	Amount    int64  `json:"amount"`
	Memo      string `json:"memo"`
	RelatedID string `json:"related_id"`
}

// CreateOrder opens a pending top-up order.
func (h *Handler) CreateOrder(c *fiber.Ctx) error {
	var req orderRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	order, err := h.service.CreateOrder(c.UserContext(), OrderInput{
		OwnerID:   req.OwnerID,
		OwnerKind: account.OwnerKind(req.OwnerKind),
		Amount:    req.Amount,
		Channel:   req.Channel,
	})
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	return c.Status(http.StatusCreated).JSON(toOrderResponse(order))
}

// GetOrder fetches one top-up order by reference.
func (h *Handler) GetOrder(c *fiber.Ctx) error {
	order, err := h.service.GetByOrderNo(c.UserContext(), c.Params("orderNo"))
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			return fiber.NewError(http.StatusNotFound, err.Error())
		}
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.Status(http.StatusOK).JSON(toOrderResponse(order))
}

// AdminAdjust credits or debits an account directly.
func (h *Handler) AdminAdjust(c *fiber.Ctx) error {
	var req adjustRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	after, err := h.service.AdminAdjust(c.UserContext(), Adjustment{
		OwnerID:   req.OwnerID,
		OwnerKind: account.OwnerKind(req.OwnerKind),
		Field:     account.Field(req.Field),
		Amount:    req.Amount,
		Memo:      req.Memo,
		RelatedID: req.RelatedID,
	})
	if err != nil {
		if errors.Is(err, account.ErrInsufficientFunds) {
			return fiber.NewError(http.StatusUnprocessableEntity, err.Error())
		}
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"balance_after": after})
}

// ListByOwner returns an owner's top-up orders.
func (h *Handler) ListByOwner(c *fiber.Ctx) error {
	kind := account.OwnerKind(c.Params("kind"))
	if !kind.Valid() {
		return fiber.NewError(http.StatusBadRequest, "unknown owner kind")
	}
	orders, err := h.service.ListByOwner(c.UserContext(), c.Params("id"), kind, c.QueryInt("limit", 50))
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	out := make([]orderResponse, 0, len(orders))
	for _, order := range orders {
		out = append(out, toOrderResponse(order))
	}
	return c.Status(http.StatusOK).JSON(out)
}

func toOrderResponse(o Order) orderResponse {
	return orderResponse{
		ID:        o.ID,
		OrderNo:   o.OrderNo,
		OwnerID:   o.OwnerID,
		OwnerKind: string(o.OwnerKind),
		Amount:    o.Amount,
		Channel:   o.Channel,
		Status:    string(o.Status),
		CreatedAt: o.CreatedAt,
		ExpiresAt: o.ExpiresAt,
		PaidAt:    o.PaidAt,
	}
}
