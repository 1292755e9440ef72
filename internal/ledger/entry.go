package ledger

import (
	"context"
	"time"

	"github.com/marketpay/marketpay/internal/account"
)

// Direction marks whether an entry credits or debits the balance field it
// primarily touched.
type Direction string

const (
	DirectionCredit Direction = "credit"
	DirectionDebit  Direction = "debit"
)

// Movement classifies why money moved.
type Movement string

const (
	MovementWithdrawReserve Movement = "withdraw_reserve"
	MovementWithdrawRelease Movement = "withdraw_release"
	MovementWithdrawRefund  Movement = "withdraw_refund"
	MovementPaymentSettle   Movement = "payment_settle"
	MovementAdminAdjust     Movement = "admin_adjust"
)

// Entry is one append-only finance record. Entries are inserted at the moment
// a balance mutation commits, inside the same transaction, and are never
// updated or deleted afterwards.
type Entry struct {
	ID        string
	OwnerID   string
	OwnerKind account.OwnerKind
	Currency  account.Currency
	Direction Direction
	Movement  Movement
	// Amount is always positive; Direction carries the sign.
	Amount int64
	// BalanceAfter snapshots the primarily-affected balance field immediately
	// after the paired mutation committed.
	BalanceAfter int64
	// RelatedID points at the withdrawal request, recharge order or callback
	// that caused the movement.
	RelatedID string
	Memo      string
	CreatedAt time.Time
}

// TotalDelta is the entry's signed effect on the owner's combined balance
// (spendable plus frozen) for its currency. Escrow reserve and refund move
// money between the two fields and are neutral; a release is the point at
// which funds leave the platform.
func (e Entry) TotalDelta() int64 {
	switch e.Movement {
	case MovementWithdrawReserve, MovementWithdrawRefund:
		return 0
	case MovementWithdrawRelease:
		return -e.Amount
	default:
		if e.Direction == DirectionDebit {
			return -e.Amount
		}
		return e.Amount
	}
}

// Writer appends finance entries. There is intentionally no update or delete.
type Writer interface {
	Record(ctx context.Context, e Entry) (Entry, error)
}

// Reader serves statement and reconciliation queries.
type Reader interface {
	ListByOwner(ctx context.Context, ownerID string, kind account.OwnerKind, limit int) ([]Entry, error)
	// SumByOwner totals TotalDelta over all entries for the owner and currency.
	// Comparing it against the live combined balance detects drift between the
	// ledger and the account store.
	SumByOwner(ctx context.Context, ownerID string, kind account.OwnerKind, currency account.Currency) (int64, error)
}
