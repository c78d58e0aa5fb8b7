package entities

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/volatiletech/null/v8"
)

func TestRemainingRefundable(t *testing.T) {
	p := &Payment{Amount: 2000, CapturedAmount: 1500, RefundedAmount: 400}
	assert.Equal(t, int64(1100), p.RemainingRefundable())

	// Bounded by the captured amount, not the authorized amount.
	p = &Payment{Amount: 2000, CapturedAmount: 0, RefundedAmount: 0}
	assert.Equal(t, int64(0), p.RemainingRefundable())

	p = &Payment{Amount: 2000, CapturedAmount: 2000, RefundedAmount: 2000}
	assert.Equal(t, int64(0), p.RemainingRefundable())
}

func TestPaymentJSONOmitsCryptoKey(t *testing.T) {
	p := &Payment{
		CryptoAddress: null.StringFrom("0xDeposit"),
		CryptoKey:     null.StringFrom("encrypted-key-material"),
	}
	out, err := json.Marshal(p)
	assert.NoError(t, err)
	assert.Contains(t, string(out), "0xDeposit")
	assert.NotContains(t, string(out), "encrypted-key-material")
}

func TestValidPaymentMethod(t *testing.T) {
	for _, m := range []PaymentMethod{
		PaymentMethodCard, PaymentMethodBankTransfer, PaymentMethodCrypto,
		PaymentMethodApplePay, PaymentMethodGooglePay, PaymentMethodPayPal, PaymentMethodCustom,
	} {
		assert.True(t, ValidPaymentMethod(m), string(m))
	}
	assert.False(t, ValidPaymentMethod("wire"))
	assert.False(t, ValidPaymentMethod(""))
	assert.False(t, ValidPaymentMethod("CARD"))
}
