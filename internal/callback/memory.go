package callback

import (
	"context"
	"sync"
	"time"

	"github.com/marketpay/marketpay/internal/account"
	"github.com/marketpay/marketpay/internal/ledger"
	"github.com/marketpay/marketpay/internal/recharge"
)

// MemoryStore is an in-memory callback store for tests. The mutex serializes
// whole settlements the way the database transaction does in production.
type MemoryStore struct {
	mu       sync.Mutex
	records  []Record
	orders   *recharge.MemoryStore
	accounts *account.MemoryStore
	entries  *ledger.Memory
}

// NewMemoryStore wires an in-memory store around shared fakes.
func NewMemoryStore(orders *recharge.MemoryStore, accounts *account.MemoryStore, entries *ledger.Memory) *MemoryStore {
	return &MemoryStore{orders: orders, accounts: accounts, entries: entries}
}

// FindSettled reports whether the (orderNo, txnID) pair already settled.
func (s *MemoryStore) FindSettled(_ context.Context, orderNo, txnID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range s.records {
		if rec.OrderNo == orderNo && rec.TxnID == txnID && rec.Status == StatusSuccess {
			return true, nil
		}
	}
	return false, nil
}

// SaveRecord appends a terminal record.
func (s *MemoryStore) SaveRecord(_ context.Context, rec Record) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec = withDefaults(rec)
	s.records = append(s.records, rec)
	return rec, nil
}

// Settle runs the one-time credit as one locked step.
func (s *MemoryStore) Settle(ctx context.Context, rec Record) (Settlement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	order, err := s.orders.MarkPaid(rec.OrderNo, now)
	if err != nil {
		return Settlement{}, err
	}
	if order.Amount != rec.Amount {
		// Settlement aborts; put the order back so a correct callback can land.
		s.orders.Unsettle(rec.OrderNo)
		return Settlement{}, ErrAmountMismatch
	}

	after, err := s.accounts.Adjust(ctx, order.OwnerID, order.OwnerKind, account.FieldSpendable, order.Amount, 0)
	if err != nil {
		s.orders.Unsettle(rec.OrderNo)
		return Settlement{}, err
	}

	s.entries.Append(ledger.Entry{
		OwnerID:      order.OwnerID,
		OwnerKind:    order.OwnerKind,
		Direction:    ledger.DirectionCredit,
		Movement:     ledger.MovementPaymentSettle,
		Amount:       order.Amount,
		BalanceAfter: after,
		RelatedID:    order.ID,
	})

	rec = withDefaults(rec)
	rec.Status = StatusSuccess
	rec.BusinessID = order.ID
	rec.ProcessedAt = &now
	s.records = append(s.records, rec)

	return Settlement{Record: rec, Order: order, BalanceAfter: after}, nil
}

// Records returns a snapshot of every stored record.
func (s *MemoryStore) Records() []Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Record, len(s.records))
	copy(out, s.records)
	return out
}
