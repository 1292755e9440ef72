package withdrawal

import (
	"errors"
	"time"

	"github.com/marketpay/marketpay/internal/account"
)

var (
	// ErrBelowMinimum occurs when the requested amount is under the configured
	// floor for the owner kind and currency.
	ErrBelowMinimum = errors.New("amount below withdrawal minimum")

	// ErrAlreadyDecided indicates the request already reached a terminal state.
	// Callers treat it as a benign idempotent outcome, not a fault.
	ErrAlreadyDecided = errors.New("withdrawal already decided")

	// ErrNotFound indicates no withdrawal request exists for the identifier.
	ErrNotFound = errors.New("withdrawal not found")
)

// Status is the escrow state of a withdrawal request. Both terminal states are
// reached only from StatusPending and are never left.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusRejected  Status = "rejected"
)

// Decision is the reviewer's verdict on a pending request.
type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionReject  Decision = "reject"
)

// Request is a payout request whose funds sit in escrow until reviewed.
type Request struct {
	ID        string
	OwnerID   string
	OwnerKind account.OwnerKind
	Currency  account.Currency
	// Amount is what leaves the spendable balance; NetPayout = Amount - Fee is
	// what the owner receives on approval.
	Amount    int64
	Fee       int64
	NetPayout int64
	// InstrumentID references the destination payout instrument (bank card).
	InstrumentID string
	Status       Status
	Remark       string
	DecidedBy    string
	DecidedAt    *time.Time
	CreatedAt    time.Time
}

// Terminal reports whether the request reached a final state.
func (r Request) Terminal() bool {
	return r.Status == StatusCompleted || r.Status == StatusRejected
}
