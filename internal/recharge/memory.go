package recharge

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/marketpay/marketpay/internal/account"
	"github.com/marketpay/marketpay/internal/ledger"
)

// MemoryStore is an in-memory recharge store for tests.
type MemoryStore struct {
	mu       sync.Mutex
	orders   map[string]*Order // keyed by order number
	accounts *account.MemoryStore
	entries  *ledger.Memory
}

// NewMemoryStore wires an in-memory store around shared account and ledger fakes.
func NewMemoryStore(accounts *account.MemoryStore, entries *ledger.Memory) *MemoryStore {
	return &MemoryStore{
		orders:   make(map[string]*Order),
		accounts: accounts,
		entries:  entries,
	}
}

// CreateOrder stores a pending top-up order.
func (s *MemoryStore) CreateOrder(_ context.Context, o Order) (Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o.Status = StatusPending
	stored := o
	s.orders[o.OrderNo] = &stored
	return o, nil
}

// GetByOrderNo fetches one order by reference.
func (s *MemoryStore) GetByOrderNo(_ context.Context, orderNo string) (Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.orders[orderNo]
	if !ok {
		return Order{}, ErrOrderNotFound
	}
	return *stored, nil
}

// ListByOwner returns the owner's orders, most recent first.
func (s *MemoryStore) ListByOwner(_ context.Context, ownerID string, kind account.OwnerKind, limit int) ([]Order, error) {
	if limit <= 0 {
		limit = 50
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Order
	for _, o := range s.orders {
		if o.OwnerID == ownerID && o.OwnerKind == kind {
			out = append(out, *o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Adjust applies the admin adjustment and finance entry as one step.
func (s *MemoryStore) Adjust(ctx context.Context, in Adjustment) (int64, error) {
	guard := int64(0)
	direction := ledger.DirectionCredit
	amount := in.Amount
	if in.Amount < 0 {
		guard = -in.Amount
		direction = ledger.DirectionDebit
		amount = -in.Amount
	}

	after, err := s.accounts.Adjust(ctx, in.OwnerID, in.OwnerKind, in.Field, in.Amount, guard)
	if err != nil {
		return 0, err
	}
	s.entries.Append(ledger.Entry{
		OwnerID:      in.OwnerID,
		OwnerKind:    in.OwnerKind,
		Currency:     currencyOf(in.Field),
		Direction:    direction,
		Movement:     ledger.MovementAdminAdjust,
		Amount:       amount,
		BalanceAfter: after,
		RelatedID:    in.RelatedID,
		Memo:         in.Memo,
	})
	return after, nil
}

// ExpireStale transitions pending orders past their deadline.
func (s *MemoryStore) ExpireStale(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, o := range s.orders {
		if o.Status == StatusPending && !o.ExpiresAt.After(now) {
			o.Status = StatusExpired
			n++
		}
	}
	return n, nil
}

// Unsettle reverts a paid order to pending. Test-only counterpart of the
// rollback a real settlement transaction gets for free.
func (s *MemoryStore) Unsettle(orderNo string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if stored, ok := s.orders[orderNo]; ok {
		stored.Status = StatusPending
		stored.PaidAt = nil
	}
}

// MarkPaid conditionally settles an order; used by the in-memory callback store.
func (s *MemoryStore) MarkPaid(orderNo string, at time.Time) (Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.orders[orderNo]
	if !ok {
		return Order{}, ErrOrderNotFound
	}
	if stored.Status != StatusPending {
		return Order{}, ErrOrderNotPending
	}
	stored.Status = StatusPaid
	paidAt := at
	stored.PaidAt = &paidAt
	return *stored, nil
}
