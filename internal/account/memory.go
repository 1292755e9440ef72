package account

import (
	"context"
	"sync"
	"time"
)

type ownerKey struct {
	id   string
	kind OwnerKind
}

// MemoryStore is a concurrency-safe in-memory account store for tests. The
// mutex plays the role the single-statement UPDATE plays in Postgres: guard
// evaluation and mutation are indivisible.
type MemoryStore struct {
	mu       sync.Mutex
	accounts map[ownerKey]*Account
}

// NewMemoryStore constructs an empty in-memory account store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{accounts: make(map[ownerKey]*Account)}
}

// Ensure creates a zero-balance account if one does not exist.
func (s *MemoryStore) Ensure(_ context.Context, ownerID string, kind OwnerKind) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.get(ownerID, kind)
	return nil
}

// Get returns a copy of the account, zero-valued when absent.
func (s *MemoryStore) Get(_ context.Context, ownerID string, kind OwnerKind) (Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if acct, ok := s.accounts[ownerKey{ownerID, kind}]; ok {
		return *acct, nil
	}
	return Account{OwnerID: ownerID, OwnerKind: kind}, nil
}

// Adjust applies delta to field if its current value is at least guardMin.
func (s *MemoryStore) Adjust(_ context.Context, ownerID string, kind OwnerKind, field Field, delta, guardMin int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.adjustLocked(ownerID, kind, field, delta, guardMin)
}

// AdjustLocked runs the guarded mutation while the caller holds the store via
// Locked. Engine memory stores use it to group several adjustments with their
// ledger writes into one atomic step.
func (s *MemoryStore) AdjustLocked(ownerID string, kind OwnerKind, field Field, delta, guardMin int64) (int64, error) {
	return s.adjustLocked(ownerID, kind, field, delta, guardMin)
}

// Locked invokes fn with the store's mutex held.
func (s *MemoryStore) Locked(fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn()
}

func (s *MemoryStore) adjustLocked(ownerID string, kind OwnerKind, field Field, delta, guardMin int64) (int64, error) {
	acct := s.get(ownerID, kind)
	current := acct.Balance(field)
	if current < guardMin || current+delta < 0 {
		return 0, ErrInsufficientFunds
	}
	after := current + delta
	switch field {
	case FieldFrozen:
		acct.Frozen = after
	case FieldSilverSpendable:
		acct.SilverSpendable = after
	case FieldSilverFrozen:
		acct.SilverFrozen = after
	default:
		acct.Spendable = after
	}
	acct.UpdatedAt = time.Now().UTC()
	return after, nil
}

func (s *MemoryStore) get(ownerID string, kind OwnerKind) *Account {
	key := ownerKey{ownerID, kind}
	acct, ok := s.accounts[key]
	if !ok {
		acct = &Account{OwnerID: ownerID, OwnerKind: kind}
		s.accounts[key] = acct
	}
	return acct
}

// SeedBalance is a test helper that sets a balance field directly.
func SeedBalance(s *MemoryStore, ownerID string, kind OwnerKind, field Field, amount int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acct := s.get(ownerID, kind)
	switch field {
	case FieldFrozen:
		acct.Frozen = amount
	case FieldSilverSpendable:
		acct.SilverSpendable = amount
	case FieldSilverFrozen:
		acct.SilverFrozen = amount
	default:
		acct.Spendable = amount
	}
}
