package withdrawal

import (
	"testing"

	"github.com/marketpay/marketpay/internal/account"
)

func TestBasisPointsFee(t *testing.T) {
	rule := BasisPointsFee(100, 250) // buyers 1%, merchants 2.5%

	cases := []struct {
		kind     account.OwnerKind
		currency account.Currency
		amount   int64
		want     int64
	}{
		{account.KindBuyer, account.CurrencyPrimary, 10_000, 100},
		{account.KindMerchant, account.CurrencyPrimary, 10_000, 250},
		{account.KindBuyer, account.CurrencyPrimary, 99, 0},      // rounds down
		{account.KindMerchant, account.CurrencyPrimary, 401, 10}, // 401*250/10000 = 10.025
		{account.KindBuyer, account.CurrencySilver, 10_000, 0},   // silver is fee-free
		{account.KindMerchant, account.CurrencySilver, 10_000, 0},
	}
	for _, c := range cases {
		if got := rule(c.kind, c.currency, c.amount); got != c.want {
			t.Errorf("%s/%s amount %d: expected fee %d, got %d", c.kind, c.currency, c.amount, c.want, got)
		}
	}
}

func TestMinimumsFor(t *testing.T) {
	m := Minimums{Buyer: 1_000, Merchant: 5_000, BuyerSilver: 10, MerchantSilver: 50}

	if got := m.For(account.KindBuyer, account.CurrencyPrimary); got != 1_000 {
		t.Fatalf("buyer primary: got %d", got)
	}
	if got := m.For(account.KindMerchant, account.CurrencyPrimary); got != 5_000 {
		t.Fatalf("merchant primary: got %d", got)
	}
	if got := m.For(account.KindBuyer, account.CurrencySilver); got != 10 {
		t.Fatalf("buyer silver: got %d", got)
	}
	if got := m.For(account.KindMerchant, account.CurrencySilver); got != 50 {
		t.Fatalf("merchant silver: got %d", got)
	}
}
