package account

import (
	"errors"
	"time"
)

// ErrInsufficientFunds occurs when a guarded balance adjustment finds less than
// the required minimum in the targeted balance field.
var ErrInsufficientFunds = errors.New("insufficient funds")

// OwnerKind distinguishes the two principal types that hold accounts.
type OwnerKind string

const (
	KindBuyer    OwnerKind = "buyer"
	KindMerchant OwnerKind = "merchant"
)

// Valid reports whether the owner kind is one of the known principals.
func (k OwnerKind) Valid() bool {
	return k == KindBuyer || k == KindMerchant
}

// Currency identifies which of the two balances a money operation targets.
type Currency string

const (
	// CurrencyPrimary is the main settlement currency, held in minor units.
	CurrencyPrimary Currency = "primary"
	// CurrencySilver is the secondary in-platform currency.
	CurrencySilver Currency = "silver"
)

// Valid reports whether the currency kind is known.
func (c Currency) Valid() bool {
	return c == CurrencyPrimary || c == CurrencySilver
}

// Field names one of the four balance columns on an account.
type Field string

const (
	FieldSpendable       Field = "spendable"
	FieldFrozen          Field = "frozen"
	FieldSilverSpendable Field = "silver_spendable"
	FieldSilverFrozen    Field = "silver_frozen"
)

// SpendableField returns the spendable balance field for the currency.
func SpendableField(c Currency) Field {
	if c == CurrencySilver {
		return FieldSilverSpendable
	}
	return FieldSpendable
}

// FrozenField returns the escrow balance field for the currency.
func FrozenField(c Currency) Field {
	if c == CurrencySilver {
		return FieldSilverFrozen
	}
	return FieldFrozen
}

// Account holds the four balance fields for a buyer or merchant. Amounts are
// minor units and never negative.
type Account struct {
	OwnerID         string
	OwnerKind       OwnerKind
	Spendable       int64
	Frozen          int64
	SilverSpendable int64
	SilverFrozen    int64
	UpdatedAt       time.Time
}

// Balance returns the value of the named field.
func (a Account) Balance(f Field) int64 {
	switch f {
	case FieldFrozen:
		return a.Frozen
	case FieldSilverSpendable:
		return a.SilverSpendable
	case FieldSilverFrozen:
		return a.SilverFrozen
	default:
		return a.Spendable
	}
}
