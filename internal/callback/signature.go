package callback

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// Sign computes the signature a gateway attaches to a notice: HMAC-SHA256 of
// the canonical field string under the channel's shared secret, hex encoded.
func Sign(secret string, n Notice) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(canonical(n)))
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify recomputes the expected signature and compares it in constant time.
// Nothing about which field differed is revealed to the caller.
func Verify(secret string, n Notice) bool {
	got, err := hex.DecodeString(strings.ToLower(n.Signature))
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(canonical(n)))
	return hmac.Equal(got, mac.Sum(nil))
}

// canonical fixes the signed field order so both sides agree.
func canonical(n Notice) string {
	return fmt.Sprintf("amount=%d&channel=%s&order_no=%s&txn_id=%s", n.Amount, n.Channel, n.OrderNo, n.TxnID)
}
