package ledger

import (
	"context"
	"testing"

	"github.com/marketpay/marketpay/internal/account"
)

func TestMemoryRecordAndList(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	first, err := m.Record(ctx, Entry{
		OwnerID:      "owner-1",
		OwnerKind:    account.KindBuyer,
		Direction:    DirectionCredit,
		Movement:     MovementPaymentSettle,
		Amount:       500,
		BalanceAfter: 500,
		RelatedID:    "order-1",
	})
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if first.ID == "" || first.CreatedAt.IsZero() {
		t.Fatalf("expected id and timestamp to be assigned: %+v", first)
	}
	if first.Currency != account.CurrencyPrimary {
		t.Fatalf("expected primary currency default, got %s", first.Currency)
	}

	if _, err := m.Record(ctx, Entry{
		OwnerID:      "owner-1",
		OwnerKind:    account.KindBuyer,
		Direction:    DirectionDebit,
		Movement:     MovementWithdrawReserve,
		Amount:       200,
		BalanceAfter: 300,
		RelatedID:    "wd-1",
	}); err != nil {
		t.Fatalf("record reserve: %v", err)
	}

	entries, err := m.ListByOwner(ctx, "owner-1", account.KindBuyer, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Movement != MovementWithdrawReserve {
		t.Fatalf("expected most recent entry first, got %s", entries[0].Movement)
	}
}

func TestTotalDeltaPerMovement(t *testing.T) {
	cases := []struct {
		entry Entry
		want  int64
	}{
		{Entry{Direction: DirectionCredit, Movement: MovementPaymentSettle, Amount: 100}, 100},
		{Entry{Direction: DirectionCredit, Movement: MovementPaymentSettle, Amount: 50}, 50},
		{Entry{Direction: DirectionCredit, Movement: MovementAdminAdjust, Amount: 30}, 30},
		{Entry{Direction: DirectionDebit, Movement: MovementAdminAdjust, Amount: 30}, -30},
		{Entry{Direction: DirectionDebit, Movement: MovementWithdrawReserve, Amount: 80}, 0},
		{Entry{Direction: DirectionCredit, Movement: MovementWithdrawRefund, Amount: 80}, 0},
		{Entry{Direction: DirectionDebit, Movement: MovementWithdrawRelease, Amount: 80}, -80},
	}
	for _, c := range cases {
		if got := c.entry.TotalDelta(); got != c.want {
			t.Errorf("%s/%s: expected delta %d, got %d", c.entry.Movement, c.entry.Direction, c.want, got)
		}
	}
}

func TestSumByOwnerMatchesEscrowRoundTrip(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	// Recharge 200, reserve 100 for withdrawal, refund it on rejection.
	seed := []Entry{
		{OwnerID: "owner-2", OwnerKind: account.KindMerchant, Direction: DirectionCredit, Movement: MovementPaymentSettle, Amount: 200, BalanceAfter: 200},
		{OwnerID: "owner-2", OwnerKind: account.KindMerchant, Direction: DirectionDebit, Movement: MovementWithdrawReserve, Amount: 100, BalanceAfter: 100},
		{OwnerID: "owner-2", OwnerKind: account.KindMerchant, Direction: DirectionCredit, Movement: MovementWithdrawRefund, Amount: 100, BalanceAfter: 200},
	}
	for _, e := range seed {
		if _, err := m.Record(ctx, e); err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	sum, err := m.SumByOwner(ctx, "owner-2", account.KindMerchant, account.CurrencyPrimary)
	if err != nil {
		t.Fatalf("sum: %v", err)
	}
	if sum != 200 {
		t.Fatalf("expected combined delta 200 after round trip, got %d", sum)
	}

	// Approving a second withdrawal releases funds out of the platform.
	if _, err := m.Record(ctx, Entry{OwnerID: "owner-2", OwnerKind: account.KindMerchant, Direction: DirectionDebit, Movement: MovementWithdrawReserve, Amount: 150, BalanceAfter: 50}); err != nil {
		t.Fatalf("record: %v", err)
	}
	if _, err := m.Record(ctx, Entry{OwnerID: "owner-2", OwnerKind: account.KindMerchant, Direction: DirectionDebit, Movement: MovementWithdrawRelease, Amount: 150, BalanceAfter: 0}); err != nil {
		t.Fatalf("record: %v", err)
	}

	sum, err = m.SumByOwner(ctx, "owner-2", account.KindMerchant, account.CurrencyPrimary)
	if err != nil {
		t.Fatalf("sum: %v", err)
	}
	if sum != 50 {
		t.Fatalf("expected combined delta 50 after release, got %d", sum)
	}
}
