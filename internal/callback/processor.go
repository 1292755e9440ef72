package callback

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/marketpay/marketpay/internal/notification"
	"github.com/marketpay/marketpay/internal/recharge"
)

// Processor ingests gateway callbacks: normalize, de-duplicate, verify, then
// settle exactly once. Gateways deliver at least once and in any order, so
// every outcome must be durable and every replay harmless.
type Processor struct {
	store       Store
	secrets     map[string]string
	normalizers map[string]Normalizer
	notifier    notification.Notifier
	logger      *slog.Logger
}

// NewProcessor builds a processor over the registered channels. secrets maps
// channel name to its shared HMAC secret.
func NewProcessor(store Store, secrets map[string]string, notifier notification.Notifier, logger *slog.Logger) *Processor {
	return &Processor{
		store:       store,
		secrets:     secrets,
		normalizers: Normalizers(),
		notifier:    notifier,
		logger:      logger,
	}
}

// Result is what the HTTP layer echoes back to the gateway.
type Result struct {
	Status Status
	// Ack is the channel-specific token; the success token is returned for
	// every durably recorded callback, duplicates included, because anything
	// else makes the gateway retry forever.
	Ack    string
	Record Record
}

// Handle processes one inbound callback body for the named channel.
func (p *Processor) Handle(ctx context.Context, channel string, body []byte) (Result, error) {
	norm, ok := p.normalizers[channel]
	if !ok {
		return Result{}, ErrUnknownChannel
	}

	notice, err := norm.Parse(body)
	if err != nil {
		// Malformed payloads are still recorded as audit evidence.
		rec, saveErr := p.store.SaveRecord(ctx, Record{
			Channel: channel,
			Payload: string(body),
			Status:  StatusFailed,
		})
		if saveErr != nil {
			return Result{}, saveErr
		}
		p.logger.Warn("malformed gateway callback", "channel", channel, "error", err)
		return Result{Status: StatusFailed, Ack: norm.AckFailure(), Record: rec}, nil
	}

	rec := Record{
		Channel:   channel,
		OrderNo:   notice.OrderNo,
		TxnID:     notice.TxnID,
		Amount:    notice.Amount,
		Payload:   string(body),
		Signature: notice.Signature,
	}

	// Duplicate suppression comes before signature work: a pair that already
	// settled is acknowledged and dropped no matter what else the payload says.
	settled, err := p.store.FindSettled(ctx, notice.OrderNo, notice.TxnID)
	if err != nil {
		return Result{}, err
	}
	if settled {
		return p.recordDuplicate(ctx, norm, rec)
	}

	// A channel with no configured secret cannot verify anything; treating it
	// as valid would let anyone forge a settlement with an empty-key HMAC.
	secret, ok := p.secrets[channel]
	if !ok || !Verify(secret, notice) {
		rec.Status = StatusFailed
		saved, err := p.store.SaveRecord(ctx, rec)
		if err != nil {
			return Result{}, err
		}
		p.logger.Warn("callback rejected", "channel", channel, "order_no", notice.OrderNo, "error", ErrSignatureInvalid)
		return Result{Status: StatusFailed, Ack: norm.AckFailure(), Record: saved}, nil
	}
	rec.SignatureOK = true

	settlement, err := p.store.Settle(ctx, rec)
	switch {
	case err == nil:
		if p.notifier != nil {
			_ = p.notifier.Send(ctx, notification.Message{
				Kind:        notification.KindRechargeSettled,
				Destination: settlement.Order.OwnerID,
				Body:        fmt.Sprintf("Your recharge of %d was confirmed", settlement.Order.Amount),
			})
		}
		p.logger.Info("callback settled", "channel", channel, "order_no", notice.OrderNo, "amount", notice.Amount)
		return Result{Status: StatusSuccess, Ack: norm.AckSuccess(), Record: settlement.Record}, nil

	case errors.Is(err, recharge.ErrOrderNotPending):
		// Lost the conditional transition to an earlier delivery or the sweep.
		return p.recordDuplicate(ctx, norm, rec)

	case errors.Is(err, recharge.ErrOrderNotFound), errors.Is(err, ErrAmountMismatch):
		rec.Status = StatusFailed
		saved, saveErr := p.store.SaveRecord(ctx, rec)
		if saveErr != nil {
			return Result{}, saveErr
		}
		p.logger.Warn("callback rejected", "channel", channel, "order_no", notice.OrderNo, "error", err)
		return Result{Status: StatusFailed, Ack: norm.AckFailure(), Record: saved}, nil

	default:
		return Result{}, err
	}
}

func (p *Processor) recordDuplicate(ctx context.Context, norm Normalizer, rec Record) (Result, error) {
	rec.Status = StatusDuplicate
	saved, err := p.store.SaveRecord(ctx, rec)
	if err != nil {
		return Result{}, err
	}
	p.logger.Info("duplicate gateway callback", "channel", rec.Channel, "order_no", rec.OrderNo, "txn_id", rec.TxnID)
	return Result{Status: StatusDuplicate, Ack: norm.AckSuccess(), Record: saved}, nil
}
