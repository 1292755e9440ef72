package withdrawal

import (
	"context"
	"time"

	"github.com/marketpay/marketpay/internal/account"
)

// Store persists withdrawal requests and runs both escrow transitions
// atomically: each operation is one transaction covering the guarded balance
// moves, the request row and the paired finance entry.
type Store interface {
	// CreateWithHold moves req.Amount from spendable to frozen, guarded by the
	// amount itself, and persists the request as pending. On a failed guard it
	// returns account.ErrInsufficientFunds and nothing is written.
	CreateWithHold(ctx context.Context, req Request) (Request, error)

	// Decide applies the reviewer's verdict to a pending request. The status
	// transition is conditional on the request still being pending; a request
	// already decided returns the stored state with ErrAlreadyDecided.
	Decide(ctx context.Context, id string, decision Decision, actorID, remark string, at time.Time) (Request, error)

	Get(ctx context.Context, id string) (Request, error)
	ListByOwner(ctx context.Context, ownerID string, kind account.OwnerKind, limit int) ([]Request, error)
}
