package account

import "context"

// Store exposes the conditional balance mutation primitive. Adjust applies a
// delta to one balance field only if the current value is at least guardMin,
// evaluated atomically by the backing store. It returns the post-mutation value
// of the field or ErrInsufficientFunds when the guard does not hold.
//
// Adjust is the only way balances change. Callers moving money must pair every
// adjustment with a finance ledger entry in the same transaction; the Postgres
// engine stores compose AdjustTx with ledger.InsertTx for that reason.
type Store interface {
	// Ensure creates the account row with zero balances if it does not exist.
	Ensure(ctx context.Context, ownerID string, kind OwnerKind) error
	// Get returns the account, or a zero-balance account when none exists yet.
	Get(ctx context.Context, ownerID string, kind OwnerKind) (Account, error)
	// Adjust applies delta to field guarded by guardMin on the pre-mutation value.
	Adjust(ctx context.Context, ownerID string, kind OwnerKind, field Field, delta, guardMin int64) (int64, error)
}
