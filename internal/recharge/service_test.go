package recharge

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/marketpay/marketpay/internal/account"
	"github.com/marketpay/marketpay/internal/ledger"
)

func newTestService(t *testing.T) (*Service, *MemoryStore, *account.MemoryStore, *ledger.Memory) {
	t.Helper()
	accounts := account.NewMemoryStore()
	entries := ledger.NewMemory()
	store := NewMemoryStore(accounts, entries)
	return NewService(store, 30*time.Minute), store, accounts, entries
}

func TestCreateOrderStaysPendingWithoutCredit(t *testing.T) {
	svc, _, accounts, entries := newTestService(t)
	ctx := context.Background()

	order, err := svc.CreateOrder(ctx, OrderInput{
		OwnerID: "buyer-1", OwnerKind: account.KindBuyer, Amount: 500, Channel: "momo",
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	if order.Status != StatusPending {
		t.Fatalf("expected pending, got %s", order.Status)
	}
	if order.OrderNo == "" {
		t.Fatal("expected an order number for the gateway")
	}
	if !order.ExpiresAt.After(order.CreatedAt) {
		t.Fatalf("expected expiry after creation: %+v", order)
	}

	// Creating the order must not move money; only settlement does.
	acct, _ := accounts.Get(ctx, "buyer-1", account.KindBuyer)
	if acct.Spendable != 0 {
		t.Fatalf("expected no credit before settlement, got %d", acct.Spendable)
	}
	if len(entries.Entries()) != 0 {
		t.Fatalf("expected no ledger entries, got %d", len(entries.Entries()))
	}
}

func TestAdminAdjustCreditAndGuardedDebit(t *testing.T) {
	svc, _, accounts, entries := newTestService(t)
	ctx := context.Background()

	after, err := svc.AdminAdjust(ctx, Adjustment{
		OwnerID: "merchant-1", OwnerKind: account.KindMerchant, Amount: 1_000, Memo: "goodwill credit",
	})
	if err != nil {
		t.Fatalf("credit: %v", err)
	}
	if after != 1_000 {
		t.Fatalf("expected balance 1000, got %d", after)
	}

	after, err = svc.AdminAdjust(ctx, Adjustment{
		OwnerID: "merchant-1", OwnerKind: account.KindMerchant, Amount: -400, Memo: "chargeback",
	})
	if err != nil {
		t.Fatalf("debit: %v", err)
	}
	if after != 600 {
		t.Fatalf("expected balance 600, got %d", after)
	}

	// Debit beyond the balance is refused by the guard.
	if _, err := svc.AdminAdjust(ctx, Adjustment{
		OwnerID: "merchant-1", OwnerKind: account.KindMerchant, Amount: -5_000,
	}); !errors.Is(err, account.ErrInsufficientFunds) {
		t.Fatalf("expected insufficient funds, got %v", err)
	}

	acct, _ := accounts.Get(ctx, "merchant-1", account.KindMerchant)
	if acct.Spendable != 600 {
		t.Fatalf("expected balance 600, got %d", acct.Spendable)
	}

	recorded := entries.Entries()
	if len(recorded) != 2 {
		t.Fatalf("expected 2 ledger entries, got %d", len(recorded))
	}
	for _, e := range recorded {
		if e.Movement != ledger.MovementAdminAdjust {
			t.Fatalf("expected admin_adjust movement, got %s", e.Movement)
		}
	}
	sum, _ := entries.SumByOwner(ctx, "merchant-1", account.KindMerchant, account.CurrencyPrimary)
	if sum != 600 {
		t.Fatalf("ledger delta must match balance, got %d", sum)
	}
}

func TestExpireStaleOnlyPastDeadline(t *testing.T) {
	svc, store, _, _ := newTestService(t)
	ctx := context.Background()
	now := time.Now().UTC()

	fresh := Order{ID: "o1", OrderNo: "R1", OwnerID: "b", OwnerKind: account.KindBuyer,
		Amount: 100, Channel: "momo", CreatedAt: now, ExpiresAt: now.Add(time.Hour)}
	stale := Order{ID: "o2", OrderNo: "R2", OwnerID: "b", OwnerKind: account.KindBuyer,
		Amount: 100, Channel: "momo", CreatedAt: now.Add(-2 * time.Hour), ExpiresAt: now.Add(-time.Hour)}
	for _, o := range []Order{fresh, stale} {
		if _, err := store.CreateOrder(ctx, o); err != nil {
			t.Fatalf("seed order: %v", err)
		}
	}

	n, err := svc.ExpireStale(ctx, now)
	if err != nil {
		t.Fatalf("expire: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 expired order, got %d", n)
	}

	got, _ := store.GetByOrderNo(ctx, "R2")
	if got.Status != StatusExpired {
		t.Fatalf("expected expired, got %s", got.Status)
	}
	got, _ = store.GetByOrderNo(ctx, "R1")
	if got.Status != StatusPending {
		t.Fatalf("fresh order must stay pending, got %s", got.Status)
	}

	// An expired order can no longer be settled.
	if _, err := store.MarkPaid("R2", now); !errors.Is(err, ErrOrderNotPending) {
		t.Fatalf("expected not pending, got %v", err)
	}
}
