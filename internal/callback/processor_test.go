package callback

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/marketpay/marketpay/internal/account"
	"github.com/marketpay/marketpay/internal/ledger"
	"github.com/marketpay/marketpay/internal/logging"
	"github.com/marketpay/marketpay/internal/recharge"
)

const testMomoSecret = "momo-test-secret"

type fixture struct {
	processor *Processor
	store     *MemoryStore
	orders    *recharge.MemoryStore
	accounts  *account.MemoryStore
	entries   *ledger.Memory
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	accounts := account.NewMemoryStore()
	entries := ledger.NewMemory()
	orders := recharge.NewMemoryStore(accounts, entries)
	store := NewMemoryStore(orders, accounts, entries)
	processor := NewProcessor(store, map[string]string{
		ChannelMomo: testMomoSecret,
		ChannelCard: "card-test-secret",
	}, nil, logging.Discard())
	return &fixture{processor: processor, store: store, orders: orders, accounts: accounts, entries: entries}
}

func (f *fixture) seedOrder(t *testing.T, orderNo string, amount int64) recharge.Order {
	t.Helper()
	now := time.Now().UTC()
	order := recharge.Order{
		ID: "order-" + orderNo, OrderNo: orderNo, OwnerID: "buyer-1", OwnerKind: account.KindBuyer,
		Amount: amount, Channel: ChannelMomo, CreatedAt: now, ExpiresAt: now.Add(time.Hour),
	}
	if _, err := f.orders.CreateOrder(context.Background(), order); err != nil {
		t.Fatalf("seed order: %v", err)
	}
	return order
}

func momoBody(t *testing.T, orderNo, txnID string, amount int64) []byte {
	t.Helper()
	sign := Sign(testMomoSecret, Notice{Channel: ChannelMomo, OrderNo: orderNo, TxnID: txnID, Amount: amount})
	body, err := json.Marshal(map[string]any{
		"reference":   orderNo,
		"momo_txn_id": txnID,
		"amount":      amount,
		"sign":        sign,
	})
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	return body
}

func TestHandleSettlesOnceAndSuppressesReplay(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedOrder(t, "RX1", 50)
	body := momoBody(t, "RX1", "txn-1", 50)

	first, err := f.processor.Handle(ctx, ChannelMomo, body)
	if err != nil {
		t.Fatalf("first delivery: %v", err)
	}
	if first.Status != StatusSuccess || first.Ack != "OK" {
		t.Fatalf("expected success/OK, got %s/%s", first.Status, first.Ack)
	}

	acct, _ := f.accounts.Get(ctx, "buyer-1", account.KindBuyer)
	if acct.Spendable != 50 {
		t.Fatalf("expected credit of 50, got %d", acct.Spendable)
	}

	second, err := f.processor.Handle(ctx, ChannelMomo, body)
	if err != nil {
		t.Fatalf("second delivery: %v", err)
	}
	if second.Status != StatusDuplicate {
		t.Fatalf("expected duplicate, got %s", second.Status)
	}
	if second.Ack != "OK" {
		t.Fatalf("duplicates must still be acknowledged, got %s", second.Ack)
	}

	acct, _ = f.accounts.Get(ctx, "buyer-1", account.KindBuyer)
	if acct.Spendable != 50 {
		t.Fatalf("replay must not credit again, got %d", acct.Spendable)
	}
}

func TestHandleManyDeliveriesCreditExactlyOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedOrder(t, "RX2", 75)
	body := momoBody(t, "RX2", "txn-2", 75)

	const deliveries = 8
	var wg sync.WaitGroup
	results := make([]Result, deliveries)
	for i := 0; i < deliveries; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := f.processor.Handle(ctx, ChannelMomo, body)
			if err != nil {
				t.Errorf("delivery %d: %v", i, err)
				return
			}
			results[i] = res
		}(i)
	}
	wg.Wait()

	var success, duplicate int
	for _, res := range results {
		switch res.Status {
		case StatusSuccess:
			success++
		case StatusDuplicate:
			duplicate++
		default:
			t.Fatalf("unexpected status %s", res.Status)
		}
		if res.Ack != "OK" {
			t.Fatalf("every durably recorded delivery must be acknowledged, got %s", res.Ack)
		}
	}
	if success != 1 || duplicate != deliveries-1 {
		t.Fatalf("expected 1 success / %d duplicates, got %d / %d", deliveries-1, success, duplicate)
	}

	acct, _ := f.accounts.Get(ctx, "buyer-1", account.KindBuyer)
	if acct.Spendable != 75 {
		t.Fatalf("expected exactly one credit of 75, got %d", acct.Spendable)
	}

	var settleEntries int
	for _, e := range f.entries.Entries() {
		if e.Movement == ledger.MovementPaymentSettle {
			settleEntries++
		}
	}
	if settleEntries != 1 {
		t.Fatalf("expected exactly one settle entry, got %d", settleEntries)
	}
	if got := len(f.store.Records()); got != deliveries {
		t.Fatalf("every delivery must leave a record, got %d", got)
	}
}

func TestHandleRejectsBadSignature(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedOrder(t, "RX3", 100)

	body, _ := json.Marshal(map[string]any{
		"reference":   "RX3",
		"momo_txn_id": "txn-3",
		"amount":      100,
		"sign":        "deadbeef",
	})

	res, err := f.processor.Handle(ctx, ChannelMomo, body)
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if res.Status != StatusFailed || res.Ack != "FAIL" {
		t.Fatalf("expected failed/FAIL, got %s/%s", res.Status, res.Ack)
	}
	if res.Record.SignatureOK {
		t.Fatal("signature flag must be cleared")
	}

	acct, _ := f.accounts.Get(ctx, "buyer-1", account.KindBuyer)
	if acct.Spendable != 0 {
		t.Fatalf("unverified callback must not credit, got %d", acct.Spendable)
	}
	order, _ := f.orders.GetByOrderNo(ctx, "RX3")
	if order.Status != recharge.StatusPending {
		t.Fatalf("order must stay pending, got %s", order.Status)
	}
}

func TestHandleRejectsChannelWithoutSecret(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedOrder(t, "RX5", 50)

	// No secret configured for any channel; the forger signs with the empty key.
	f.processor = NewProcessor(f.store, map[string]string{}, nil, logging.Discard())
	forged := Sign("", Notice{Channel: ChannelMomo, OrderNo: "RX5", TxnID: "txn-f", Amount: 50})
	body, _ := json.Marshal(map[string]any{
		"reference":   "RX5",
		"momo_txn_id": "txn-f",
		"amount":      50,
		"sign":        forged,
	})

	res, err := f.processor.Handle(ctx, ChannelMomo, body)
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if res.Status != StatusFailed || res.Ack != "FAIL" {
		t.Fatalf("expected failed/FAIL, got %s/%s", res.Status, res.Ack)
	}

	acct, _ := f.accounts.Get(ctx, "buyer-1", account.KindBuyer)
	if acct.Spendable != 0 {
		t.Fatalf("forged callback must not credit, got %d", acct.Spendable)
	}
	order, _ := f.orders.GetByOrderNo(ctx, "RX5")
	if order.Status != recharge.StatusPending {
		t.Fatalf("order must stay pending, got %s", order.Status)
	}
}

func TestHandleTamperedAmountFailsVerification(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedOrder(t, "RX4", 100)

	// Signature computed over amount 100, payload declares 900.
	sign := Sign(testMomoSecret, Notice{Channel: ChannelMomo, OrderNo: "RX4", TxnID: "txn-4", Amount: 100})
	body, _ := json.Marshal(map[string]any{
		"reference":   "RX4",
		"momo_txn_id": "txn-4",
		"amount":      900,
		"sign":        sign,
	})

	res, err := f.processor.Handle(ctx, ChannelMomo, body)
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if res.Status != StatusFailed {
		t.Fatalf("expected failed, got %s", res.Status)
	}
}

func TestHandleUnknownOrder(t *testing.T) {
	f := newFixture(t)
	res, err := f.processor.Handle(context.Background(), ChannelMomo, momoBody(t, "MISSING", "txn-5", 10))
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if res.Status != StatusFailed || res.Ack != "FAIL" {
		t.Fatalf("expected failed/FAIL, got %s/%s", res.Status, res.Ack)
	}
}

func TestHandleMalformedPayloadStillRecorded(t *testing.T) {
	f := newFixture(t)
	res, err := f.processor.Handle(context.Background(), ChannelMomo, []byte("not json"))
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if res.Status != StatusFailed {
		t.Fatalf("expected failed, got %s", res.Status)
	}
	if got := len(f.store.Records()); got != 1 {
		t.Fatalf("malformed callbacks are audit evidence too, got %d records", got)
	}
}

func TestHandleUnknownChannel(t *testing.T) {
	f := newFixture(t)
	if _, err := f.processor.Handle(context.Background(), "paypal", []byte("{}")); err == nil {
		t.Fatal("expected unknown channel error")
	}
}

func TestCardChannelFieldNamesAndToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	now := time.Now().UTC()
	order := recharge.Order{
		ID: "order-c1", OrderNo: "C1", OwnerID: "merchant-1", OwnerKind: account.KindMerchant,
		Amount: 30, Channel: ChannelCard, CreatedAt: now, ExpiresAt: now.Add(time.Hour),
	}
	if _, err := f.orders.CreateOrder(ctx, order); err != nil {
		t.Fatalf("seed order: %v", err)
	}

	sign := Sign("card-test-secret", Notice{Channel: ChannelCard, OrderNo: "C1", TxnID: "ref-1", Amount: 30})
	body := []byte(fmt.Sprintf(`{"order_no":"C1","txn_ref":"ref-1","amount_minor":30,"signature":"%s"}`, sign))

	res, err := f.processor.Handle(ctx, ChannelCard, body)
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if res.Status != StatusSuccess || res.Ack != "SUCCESS" {
		t.Fatalf("expected success/SUCCESS, got %s/%s", res.Status, res.Ack)
	}

	acct, _ := f.accounts.Get(ctx, "merchant-1", account.KindMerchant)
	if acct.Spendable != 30 {
		t.Fatalf("expected credit of 30, got %d", acct.Spendable)
	}
}
