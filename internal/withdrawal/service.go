package withdrawal

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/marketpay/marketpay/internal/account"
	"github.com/marketpay/marketpay/internal/notification"
)

// Service orchestrates the withdrawal escrow state machine on top of the store.
type Service struct {
	store    Store
	minimums Minimums
	feeRule  FeeRule
	notifier notification.Notifier
}

// NewService builds a withdrawal service instance.
func NewService(store Store, minimums Minimums, feeRule FeeRule, notifier notification.Notifier) *Service {
	if feeRule == nil {
		feeRule = func(account.OwnerKind, account.Currency, int64) int64 { return 0 }
	}
	return &Service{store: store, minimums: minimums, feeRule: feeRule, notifier: notifier}
}

// RequestInput captures data required to open a withdrawal.
type RequestInput struct {
	OwnerID      string
	OwnerKind    account.OwnerKind
	Currency     account.Currency
	Amount       int64
	InstrumentID string
	Remark       string
}

// Request validates the input, computes the fee and reserves the amount in
// escrow. The instrument is resolved before the store transaction opens so no
// external lookup happens while money is moving.
func (s *Service) Request(ctx context.Context, input RequestInput) (Request, error) {
	if !input.OwnerKind.Valid() {
		return Request{}, fmt.Errorf("unknown owner kind %q", input.OwnerKind)
	}
	if input.Currency == "" {
		input.Currency = account.CurrencyPrimary
	}
	if !input.Currency.Valid() {
		return Request{}, fmt.Errorf("unknown currency %q", input.Currency)
	}
	if input.Amount <= 0 {
		return Request{}, fmt.Errorf("amount must be positive")
	}
	if input.Amount < s.minimums.For(input.OwnerKind, input.Currency) {
		return Request{}, ErrBelowMinimum
	}
	if input.InstrumentID == "" {
		return Request{}, fmt.Errorf("payout instrument is required")
	}

	fee := s.feeRule(input.OwnerKind, input.Currency, input.Amount)
	if fee < 0 || fee >= input.Amount {
		return Request{}, fmt.Errorf("fee %d out of range for amount %d", fee, input.Amount)
	}

	req := Request{
		ID:           uuid.NewString(),
		OwnerID:      input.OwnerID,
		OwnerKind:    input.OwnerKind,
		Currency:     input.Currency,
		Amount:       input.Amount,
		Fee:          fee,
		NetPayout:    input.Amount - fee,
		InstrumentID: input.InstrumentID,
		Remark:       input.Remark,
		CreatedAt:    time.Now().UTC(),
	}
	return s.store.CreateWithHold(ctx, req)
}

// ReviewInput captures an admin decision on a pending request.
type ReviewInput struct {
	RequestID string
	Decision  Decision
	ActorID   string
	Remark    string
}

// Review applies the decision exactly once. A request already decided comes
// back with ErrAlreadyDecided and its current state, which callers surface as
// a no-op rather than an error page.
func (s *Service) Review(ctx context.Context, input ReviewInput) (Request, error) {
	if input.Decision != DecisionApprove && input.Decision != DecisionReject {
		return Request{}, fmt.Errorf("unknown decision %q", input.Decision)
	}

	req, err := s.store.Decide(ctx, input.RequestID, input.Decision, input.ActorID, input.Remark, time.Now().UTC())
	if err != nil {
		return req, err
	}

	if s.notifier != nil {
		_ = s.notifier.Send(ctx, notification.Message{
			Kind:        notification.KindWithdrawalDecided,
			Destination: req.OwnerID,
			Body:        fmt.Sprintf("Your withdrawal of %d is %s", req.Amount, req.Status),
		})
	}
	return req, nil
}

// Get fetches a withdrawal request.
func (s *Service) Get(ctx context.Context, id string) (Request, error) {
	return s.store.Get(ctx, id)
}

// ListByOwner returns an owner's withdrawal history.
func (s *Service) ListByOwner(ctx context.Context, ownerID string, kind account.OwnerKind, limit int) ([]Request, error) {
	return s.store.ListByOwner(ctx, ownerID, kind, limit)
}
