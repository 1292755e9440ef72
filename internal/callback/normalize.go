package callback

import (
	"encoding/json"
	"fmt"
)

// Notice is the channel-independent shape every normalizer produces. The
// processor only ever works with this form.
type Notice struct {
	Channel   string
	OrderNo   string
	TxnID     string
	Amount    int64
	Signature string
}

// Normalizer parses one channel's payload into a Notice and knows the ack
// tokens that channel expects. Adding a gateway means adding a Normalizer,
// nothing in the processor changes.
type Normalizer interface {
	Channel() string
	Parse(body []byte) (Notice, error)
	// AckSuccess is the literal token that stops the gateway's retries.
	AckSuccess() string
	AckFailure() string
}

// Normalizers indexes the built-in channels by name.
func Normalizers() map[string]Normalizer {
	return map[string]Normalizer{
		ChannelMomo: momoNormalizer{},
		ChannelCard: cardNormalizer{},
	}
}

const (
	ChannelMomo = "momo"
	ChannelCard = "card"
)

// momoNormalizer handles the mobile-money gateway's field naming.
type momoNormalizer struct{}

type momoPayload struct {
	Reference string `json:"reference"`
	MomoTxnID string `json:"momo_txn_id"`
	Amount    int64  `json:"amount"`
	Sign      string `json:"sign"`
}

func (momoNormalizer) Channel() string { return ChannelMomo }

func (momoNormalizer) Parse(body []byte) (Notice, error) {
	var p momoPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return Notice{}, fmt.Errorf("parse momo callback: %w", err)
	}
	if p.Reference == "" || p.MomoTxnID == "" || p.Amount <= 0 {
		return Notice{}, fmt.Errorf("momo callback missing reference, txn id or amount")
	}
	return Notice{
		Channel:   ChannelMomo,
		OrderNo:   p.Reference,
		TxnID:     p.MomoTxnID,
		Amount:    p.Amount,
		Signature: p.Sign,
	}, nil
}

func (momoNormalizer) AckSuccess() string { return "OK" }
func (momoNormalizer) AckFailure() string { return "FAIL" }

// cardNormalizer handles the card gateway's field naming.
type cardNormalizer struct{}

type cardPayload struct {
	OrderNo     string `json:"order_no"`
	TxnRef      string `json:"txn_ref"`
	AmountMinor int64  `json:"amount_minor"`
	Signature   string `json:"signature"`
}

func (cardNormalizer) Channel() string { return ChannelCard }

func (cardNormalizer) Parse(body []byte) (Notice, error) {
	var p cardPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return Notice{}, fmt.Errorf("parse card callback: %w", err)
	}
	if p.OrderNo == "" || p.TxnRef == "" || p.AmountMinor <= 0 {
		return Notice{}, fmt.Errorf("card callback missing order no, txn ref or amount")
	}
	return Notice{
		Channel:   ChannelCard,
		OrderNo:   p.OrderNo,
		TxnID:     p.TxnRef,
		Amount:    p.AmountMinor,
		Signature: p.Signature,
	}, nil
}

func (cardNormalizer) AckSuccess() string { return "SUCCESS" }
func (cardNormalizer) AckFailure() string { return "FAILURE" }
