package withdrawal

import "github.com/marketpay/marketpay/internal/account"

// FeeRule computes the fee withheld from a withdrawal. It is supplied by
// configuration and tested independently of the escrow state machine, so the
// fee arithmetic can change without touching the money movement.
type FeeRule func(kind account.OwnerKind, currency account.Currency, amount int64) int64

// BasisPointsFee builds a FeeRule charging a per-owner-kind rate expressed in
// basis points of the requested amount, rounded down. Silver withdrawals are
// fee-free.
func BasisPointsFee(buyerBps, merchantBps int64) FeeRule {
	return func(kind account.OwnerKind, currency account.Currency, amount int64) int64 {
		if currency == account.CurrencySilver {
			return 0
		}
		bps := buyerBps
		if kind == account.KindMerchant {
			bps = merchantBps
		}
		return amount * bps / 10_000
	}
}

// Minimums holds the smallest withdrawable amount per owner kind and currency.
type Minimums struct {
	Buyer          int64
	Merchant       int64
	BuyerSilver    int64
	MerchantSilver int64
}

// For returns the floor that applies to the owner kind and currency.
func (m Minimums) For(kind account.OwnerKind, currency account.Currency) int64 {
	if currency == account.CurrencySilver {
		if kind == account.KindMerchant {
			return m.MerchantSilver
		}
		return m.BuyerSilver
	}
	if kind == account.KindMerchant {
		return m.Merchant
	}
	return m.Buyer
}
