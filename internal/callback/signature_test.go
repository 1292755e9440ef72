package callback

import "testing"

func TestSignVerifyRoundTrip(t *testing.T) {
	notice := Notice{Channel: ChannelMomo, OrderNo: "R1", TxnID: "t1", Amount: 1250}
	notice.Signature = Sign("secret", notice)
	if !Verify("secret", notice) {
		t.Fatal("expected own signature to verify")
	}
}

func TestVerifyRejectsTampering(t *testing.T) {
	base := Notice{Channel: ChannelMomo, OrderNo: "R1", TxnID: "t1", Amount: 1250}
	base.Signature = Sign("secret", base)

	cases := map[string]Notice{
		"wrong secret": base,
		"amount":       {Channel: base.Channel, OrderNo: base.OrderNo, TxnID: base.TxnID, Amount: 9999, Signature: base.Signature},
		"order":        {Channel: base.Channel, OrderNo: "R2", TxnID: base.TxnID, Amount: base.Amount, Signature: base.Signature},
		"txn":          {Channel: base.Channel, OrderNo: base.OrderNo, TxnID: "t2", Amount: base.Amount, Signature: base.Signature},
		"channel":      {Channel: ChannelCard, OrderNo: base.OrderNo, TxnID: base.TxnID, Amount: base.Amount, Signature: base.Signature},
		"garbage":      {Channel: base.Channel, OrderNo: base.OrderNo, TxnID: base.TxnID, Amount: base.Amount, Signature: "zz not hex"},
		"empty":        {Channel: base.Channel, OrderNo: base.OrderNo, TxnID: base.TxnID, Amount: base.Amount},
	}
	for name, notice := range cases {
		secret := "secret"
		if name == "wrong secret" {
			secret = "other"
		}
		if Verify(secret, notice) {
			t.Errorf("%s: tampered notice verified", name)
		}
	}
}
