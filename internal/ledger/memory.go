package ledger

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/marketpay/marketpay/internal/account"
)

// Memory is an in-memory append-only ledger for tests.
type Memory struct {
	mu      sync.RWMutex
	entries []Entry
}

// NewMemory constructs an empty in-memory ledger.
func NewMemory() *Memory {
	return &Memory{}
}

// Record appends an entry.
func (m *Memory) Record(_ context.Context, e Entry) (Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.appendLocked(e), nil
}

// Append appends without a context. Engine memory stores call it from inside
// their own critical sections to keep mutation and entry in one step.
func (m *Memory) Append(e Entry) Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.appendLocked(e)
}

func (m *Memory) appendLocked(e Entry) Entry {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	if e.Currency == "" {
		e.Currency = account.CurrencyPrimary
	}
	m.entries = append(m.entries, e)
	return e
}

// ListByOwner returns the owner's entries, most recent first.
func (m *Memory) ListByOwner(_ context.Context, ownerID string, kind account.OwnerKind, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Entry
	for i := len(m.entries) - 1; i >= 0 && len(out) < limit; i-- {
		e := m.entries[i]
		if e.OwnerID == ownerID && e.OwnerKind == kind {
			out = append(out, e)
		}
	}
	return out, nil
}

// SumByOwner totals the signed combined-balance deltas for the owner.
func (m *Memory) SumByOwner(_ context.Context, ownerID string, kind account.OwnerKind, currency account.Currency) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var sum int64
	for _, e := range m.entries {
		if e.OwnerID == ownerID && e.OwnerKind == kind && e.Currency == currency {
			sum += e.TotalDelta()
		}
	}
	return sum, nil
}

// Entries returns a snapshot of every recorded entry, oldest first.
func (m *Memory) Entries() []Entry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Entry, len(m.entries))
	copy(out, m.entries)
	return out
}
