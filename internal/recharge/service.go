package recharge

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/marketpay/marketpay/internal/account"
)

// Service creates top-up orders and applies admin adjustments. Settlement of a
// pending order happens in the callback processor once the gateway confirms.
type Service struct {
	store    Store
	orderTTL time.Duration
}

// NewService builds a recharge service instance.
func NewService(store Store, orderTTL time.Duration) *Service {
	if orderTTL <= 0 {
		orderTTL = 30 * time.Minute
	}
	return &Service{store: store, orderTTL: orderTTL}
}

// OrderInput captures data for a self-service top-up.
type OrderInput struct {
	OwnerID   string
	OwnerKind account.OwnerKind
	Amount    int64
	Channel   string
}

// CreateOrder opens a pending top-up order. No balance moves until the gateway
// callback settles it.
func (s *Service) CreateOrder(ctx context.Context, input OrderInput) (Order, error) {
	if !input.OwnerKind.Valid() {
		return Order{}, fmt.Errorf("unknown owner kind %q", input.OwnerKind)
	}
	if input.Amount <= 0 {
		return Order{}, fmt.Errorf("amount must be positive")
	}
	if input.Channel == "" {
		return Order{}, fmt.Errorf("channel is required")
	}

	now := time.Now().UTC()
	order := Order{
		ID:        uuid.NewString(),
		OrderNo:   newOrderNo(),
		OwnerID:   input.OwnerID,
		OwnerKind: input.OwnerKind,
		Amount:    input.Amount,
		Channel:   input.Channel,
		CreatedAt: now,
		ExpiresAt: now.Add(s.orderTTL),
	}
	return s.store.CreateOrder(ctx, order)
}

// AdminAdjust credits or debits an account directly, outside the gateway flow.
// Debits are guarded so an account cannot be pushed negative.
func (s *Service) AdminAdjust(ctx context.Context, in Adjustment) (int64, error) {
	if !in.OwnerKind.Valid() {
		return 0, fmt.Errorf("unknown owner kind %q", in.OwnerKind)
	}
	if in.Amount == 0 {
		return 0, fmt.Errorf("amount must be non-zero")
	}
	if in.Field == "" {
		in.Field = account.FieldSpendable
	}
	return s.store.Adjust(ctx, in)
}

// GetByOrderNo fetches a top-up order.
func (s *Service) GetByOrderNo(ctx context.Context, orderNo string) (Order, error) {
	return s.store.GetByOrderNo(ctx, orderNo)
}

// ListByOwner returns an owner's top-up history.
func (s *Service) ListByOwner(ctx context.Context, ownerID string, kind account.OwnerKind, limit int) ([]Order, error) {
	return s.store.ListByOwner(ctx, ownerID, kind, limit)
}

// ExpireStale transitions pending orders past their deadline. Exposed for the
// sweeper and for tests.
func (s *Service) ExpireStale(ctx context.Context, now time.Time) (int64, error) {
	return s.store.ExpireStale(ctx, now)
}

// newOrderNo produces the gateway-facing order reference.
func newOrderNo() string {
	return "R" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
}
