package withdrawal

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/marketpay/marketpay/internal/account"
	"github.com/marketpay/marketpay/internal/ledger"
)

// MemoryStore is an in-memory withdrawal store for tests. Its mutex serializes
// whole escrow transitions the way a database transaction does.
type MemoryStore struct {
	mu       sync.Mutex
	requests map[string]*Request
	accounts *account.MemoryStore
	entries  *ledger.Memory
}

// NewMemoryStore wires an in-memory store around shared account and ledger
// fakes so service tests observe balances and entries directly.
func NewMemoryStore(accounts *account.MemoryStore, entries *ledger.Memory) *MemoryStore {
	return &MemoryStore{
		requests: make(map[string]*Request),
		accounts: accounts,
		entries:  entries,
	}
}

// CreateWithHold reserves escrow and persists the pending request.
func (s *MemoryStore) CreateWithHold(_ context.Context, req Request) (Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var spendAfter int64
	err := s.accounts.Locked(func() error {
		var err error
		spendAfter, err = s.accounts.AdjustLocked(req.OwnerID, req.OwnerKind,
			account.SpendableField(req.Currency), -req.Amount, req.Amount)
		if err != nil {
			return err
		}
		_, err = s.accounts.AdjustLocked(req.OwnerID, req.OwnerKind,
			account.FrozenField(req.Currency), req.Amount, 0)
		return err
	})
	if err != nil {
		return Request{}, err
	}

	req.Status = StatusPending
	stored := req
	s.requests[req.ID] = &stored

	s.entries.Append(ledger.Entry{
		OwnerID:      req.OwnerID,
		OwnerKind:    req.OwnerKind,
		Currency:     req.Currency,
		Direction:    ledger.DirectionDebit,
		Movement:     ledger.MovementWithdrawReserve,
		Amount:       req.Amount,
		BalanceAfter: spendAfter,
		RelatedID:    req.ID,
		Memo:         "withdrawal requested, funds held in escrow",
	})
	return req, nil
}

// Decide applies the reviewer's verdict; only the first decision wins.
func (s *MemoryStore) Decide(_ context.Context, id string, decision Decision, actorID, remark string, at time.Time) (Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.requests[id]
	if !ok {
		return Request{}, ErrNotFound
	}
	if stored.Terminal() {
		return *stored, ErrAlreadyDecided
	}

	frozen := account.FrozenField(stored.Currency)
	if decision == DecisionApprove {
		frozenAfter, err := s.accounts.Adjust(context.Background(), stored.OwnerID, stored.OwnerKind, frozen, -stored.Amount, stored.Amount)
		if err != nil {
			return Request{}, err
		}
		stored.Status = StatusCompleted
		s.entries.Append(ledger.Entry{
			OwnerID:      stored.OwnerID,
			OwnerKind:    stored.OwnerKind,
			Currency:     stored.Currency,
			Direction:    ledger.DirectionDebit,
			Movement:     ledger.MovementWithdrawRelease,
			Amount:       stored.Amount,
			BalanceAfter: frozenAfter,
			RelatedID:    stored.ID,
		})
	} else {
		var spendAfter int64
		err := s.accounts.Locked(func() error {
			if _, err := s.accounts.AdjustLocked(stored.OwnerID, stored.OwnerKind, frozen, -stored.Amount, stored.Amount); err != nil {
				return err
			}
			var err error
			spendAfter, err = s.accounts.AdjustLocked(stored.OwnerID, stored.OwnerKind,
				account.SpendableField(stored.Currency), stored.Amount, 0)
			return err
		})
		if err != nil {
			return Request{}, err
		}
		stored.Status = StatusRejected
		s.entries.Append(ledger.Entry{
			OwnerID:      stored.OwnerID,
			OwnerKind:    stored.OwnerKind,
			Currency:     stored.Currency,
			Direction:    ledger.DirectionCredit,
			Movement:     ledger.MovementWithdrawRefund,
			Amount:       stored.Amount,
			BalanceAfter: spendAfter,
			RelatedID:    stored.ID,
		})
	}

	stored.Remark = remark
	stored.DecidedBy = actorID
	decidedAt := at
	stored.DecidedAt = &decidedAt
	return *stored, nil
}

// Get fetches one request.
func (s *MemoryStore) Get(_ context.Context, id string) (Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.requests[id]
	if !ok {
		return Request{}, ErrNotFound
	}
	return *stored, nil
}

// ListByOwner returns the owner's requests, most recent first.
func (s *MemoryStore) ListByOwner(_ context.Context, ownerID string, kind account.OwnerKind, limit int) ([]Request, error) {
	if limit <= 0 {
		limit = 50
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Request
	for _, req := range s.requests {
		if req.OwnerID == ownerID && req.OwnerKind == kind {
			out = append(out, *req)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
