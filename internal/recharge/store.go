package recharge

import (
	"context"
	"time"

	"github.com/marketpay/marketpay/internal/account"
)

// Store persists top-up orders and runs admin balance adjustments atomically
// with their finance entries.
type Store interface {
	CreateOrder(ctx context.Context, o Order) (Order, error)
	GetByOrderNo(ctx context.Context, orderNo string) (Order, error)
	ListByOwner(ctx context.Context, ownerID string, kind account.OwnerKind, limit int) ([]Order, error)

	// Adjust applies an admin credit (positive amount) or guarded debit
	// (negative amount) to one balance field and records the admin_adjust
	// finance entry in the same transaction. Returns the post-mutation value.
	Adjust(ctx context.Context, in Adjustment) (int64, error)

	// ExpireStale transitions pending orders whose expiry passed. It only ever
	// touches orders already past their deadline, so it is safe to run
	// concurrently with settlement: a callback and the sweep race on the same
	// conditional status transition and exactly one wins.
	ExpireStale(ctx context.Context, now time.Time) (int64, error)
}

// Adjustment is an admin-initiated balance change.
type Adjustment struct {
	OwnerID   string
	OwnerKind account.OwnerKind
	Field     account.Field
	// Amount is signed: positive credits, negative debits guarded by the
	// debited magnitude.
	Amount    int64
	Memo      string
	RelatedID string
}
