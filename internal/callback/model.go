package callback

import (
	"errors"
	"time"
)

var (
	// ErrUnknownChannel indicates the callback URL named a channel no
	// normalizer is registered for.
	ErrUnknownChannel = errors.New("unknown payment channel")

	// ErrSignatureInvalid indicates the payload failed HMAC verification.
	ErrSignatureInvalid = errors.New("callback signature invalid")

	// ErrAmountMismatch indicates the declared amount disagrees with the
	// recharge order being settled.
	ErrAmountMismatch = errors.New("callback amount mismatch")
)

// Status is the processing outcome recorded for an inbound callback.
type Status string

const (
	StatusPending   Status = "pending"
	StatusSuccess   Status = "success"
	StatusFailed    Status = "failed"
	StatusDuplicate Status = "duplicate"
)

// Record is the audit row written for every inbound callback, whatever the
// outcome. Records are never deleted; they are the replay evidence.
type Record struct {
	ID          string
	Channel     string
	OrderNo     string
	TxnID       string
	Amount      int64
	Payload     string
	Signature   string
	SignatureOK bool
	Status      Status
	// BusinessID is the settled recharge order's identity, set on success.
	BusinessID  string
	CreatedAt   time.Time
	ProcessedAt *time.Time
}
