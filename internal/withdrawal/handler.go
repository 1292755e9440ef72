package withdrawal

import (
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/marketpay/marketpay/internal/account"
)

// Handler exposes withdrawal HTTP endpoints.
type Handler struct {
	service *Service
}

// NewHandler constructs a withdrawal handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type requestBody struct {
	OwnerID      string `json:"owner_id"`
	OwnerKind    string `json:"owner_kind"`
	Currency     string `json:"currency"`
	Amount       int64  `json:"amount"`
	InstrumentID string `json:"instrument_id"`
	Remark       string `json:"remark"`
}

type reviewBody struct {
	Decision string `json:"decision"`
	ActorID  string `json:"actor_id"`
	Remark   string `json:"remark"`
}

type requestResponse struct {
	ID           string     `json:"id"`
	OwnerID      string     `json:"owner_id"`
	OwnerKind    string     `json:"owner_kind"`
	Currency     string     `json:"currency"`
	Amount       int64      `json:"amount"`
	Fee          int64      `json:"fee"`
	NetPayout    int64      `json:"net_payout"`
	InstrumentID string     `json:"instrument_id"`
	Status       string     `json:"status"`
	Remark       string     `json:"remark,omitempty"`
	DecidedBy    string     `json:"decided_by,omitempty"`
	DecidedAt    *time.Time `json:"decided_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// Create opens a withdrawal request, reserving the amount in escrow.
func (h *Handler) Create(c *fiber.Ctx) error {
	var body requestBody
	if err := c.BodyParser(&body); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	req, err := h.service.Request(c.UserContext(), RequestInput{
		OwnerID:      body.OwnerID,
		OwnerKind:    account.OwnerKind(body.OwnerKind),
		Currency:     account.Currency(body.Currency),
		Amount:       body.Amount,
		InstrumentID: body.InstrumentID,
		Remark:       body.Remark,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrBelowMinimum):
			return fiber.NewError(http.StatusBadRequest, err.Error())
		case errors.Is(err, account.ErrInsufficientFunds):
			return fiber.NewError(http.StatusUnprocessableEntity, err.Error())
		default:
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}
	}
	return c.Status(http.StatusCreated).JSON(toResponse(req))
}

// Review applies an admin decision. A second review of the same request
// returns the stored state with 200 rather than re-executing the transition.
func (h *Handler) Review(c *fiber.Ctx) error {
	var body reviewBody
	if err := c.BodyParser(&body); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	req, err := h.service.Review(c.UserContext(), ReviewInput{
		RequestID: c.Params("id"),
		Decision:  Decision(body.Decision),
		ActorID:   body.ActorID,
		Remark:    body.Remark,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrAlreadyDecided):
			return c.Status(http.StatusOK).JSON(toResponse(req))
		case errors.Is(err, ErrNotFound):
			return fiber.NewError(http.StatusNotFound, err.Error())
		default:
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}
	}
	return c.Status(http.StatusOK).JSON(toResponse(req))
}

// Get returns one withdrawal request.
func (h *Handler) Get(c *fiber.Ctx) error {
	req, err := h.service.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return fiber.NewError(http.StatusNotFound, err.Error())
		}
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.Status(http.StatusOK).JSON(toResponse(req))
}

// ListByOwner returns an owner's withdrawal history.
func (h *Handler) ListByOwner(c *fiber.Ctx) error {
	kind := account.OwnerKind(c.Params("kind"))
	if !kind.Valid() {
		return fiber.NewError(http.StatusBadRequest, "unknown owner kind")
	}
	reqs, err := h.service.ListByOwner(c.UserContext(), c.Params("id"), kind, c.QueryInt("limit", 50))
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	out := make([]requestResponse, 0, len(reqs))
	for _, req := range reqs {
		out = append(out, toResponse(req))
	}
	return c.Status(http.StatusOK).JSON(out)
}

func toResponse(req Request) requestResponse {
	return requestResponse{
		ID:           req.ID,
		OwnerID:      req.OwnerID,
		OwnerKind:    string(req.OwnerKind),
		Currency:     string(req.Currency),
		Amount:       req.Amount,
		Fee:          req.Fee,
		NetPayout:    req.NetPayout,
		InstrumentID: req.InstrumentID,
		Status:       string(req.Status),
		Remark:       req.Remark,
		DecidedBy:    req.DecidedBy,
		DecidedAt:    req.DecidedAt,
		CreatedAt:    req.CreatedAt,
	}
}
