package recharge

import (
	"errors"
	"time"

	"github.com/marketpay/marketpay/internal/account"
)

var (
	// ErrOrderNotFound indicates no recharge order exists for the reference.
	ErrOrderNotFound = errors.New("recharge order not found")

	// ErrOrderNotPending indicates the order already settled or expired, so a
	// settlement attempt must not credit again.
	ErrOrderNotPending = errors.New("recharge order not pending")
)

// Status is the lifecycle state of a top-up order.
type Status string

const (
	StatusPending Status = "pending"
	StatusPaid    Status = "paid"
	StatusExpired Status = "expired"
)

// Order is a self-service top-up awaiting confirmation from the payment
// gateway. OrderNo is the reference the gateway echoes back in its callback.
type Order struct {
	ID        string
	OrderNo   string
	OwnerID   string
	OwnerKind account.OwnerKind
	Amount    int64
	Channel   string
	Status    Status
	CreatedAt time.Time
	ExpiresAt time.Time
	PaidAt    *time.Time
}
