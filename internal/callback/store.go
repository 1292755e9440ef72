package callback

import (
	"context"

	"github.com/marketpay/marketpay/internal/recharge"
)

// Settlement is the outcome of a successful one-time credit.
type Settlement struct {
	Record       Record
	Order        recharge.Order
	BalanceAfter int64
}

// Store persists callback records and runs settlement atomically.
type Store interface {
	// FindSettled reports whether a callback for the pair (orderNo, txnID)
	// already reached success. Used as the fast duplicate check before any
	// verification work.
	FindSettled(ctx context.Context, orderNo, txnID string) (bool, error)

	// SaveRecord inserts a terminal record for callbacks that do not settle
	// (failed, duplicate). Pure insert; records are never updated.
	SaveRecord(ctx context.Context, rec Record) (Record, error)

	// Settle runs the one-time credit in a single transaction: conditionally
	// transition the recharge order from pending to paid, credit the owner's
	// spendable balance, append the payment_settle finance entry and insert
	// the success record. A replay loses the conditional transition and gets
	// recharge.ErrOrderNotPending with nothing written.
	Settle(ctx context.Context, rec Record) (Settlement, error)
}
