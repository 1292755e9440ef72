package callback

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"
)

// Handler terminates gateway callback HTTP requests. The response body is the
// channel's plain ack token, not JSON; that is what the gateways parse.
type Handler struct {
	processor *Processor
}

// NewHandler constructs a callback handler.
func NewHandler(processor *Processor) *Handler {
	return &Handler{processor: processor}
}

// Receive processes one callback for the channel in the path. Durably recorded
// callbacks are acknowledged with 200 and the channel token even when the
// business effect was a no-op; only storage faults surface as 5xx so the
// gateway retries later.
func (h *Handler) Receive(c *fiber.Ctx) error {
	result, err := h.processor.Handle(c.UserContext(), c.Params("channel"), c.Body())
	if err != nil {
		if errors.Is(err, ErrUnknownChannel) {
			return fiber.NewError(http.StatusNotFound, err.Error())
		}
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.Status(http.StatusOK).SendString(result.Ack)
}
