package usecases

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"defiant.backend/pkg/utils"
)

// LargePaymentThreshold is the amount (minor units) above which a payment is
// rejected unless the merchant is flagged for large payments.
const LargePaymentThreshold = 100_000_000

// MaxListLimit caps the page size of list endpoints.
const MaxListLimit = 100

// DefaultListLimit is applied when a list request carries no limit.
const DefaultListLimit = 10

// BuildClientSecret builds the opaque client-side confirmation handle for a
// payment: pi_<paymentID>_secret_<random>.
func BuildClientSecret(paymentID uuid.UUID) string {
	return fmt.Sprintf("pi_%s_secret_%s", paymentID, utils.GenerateUUIDv7())
}

// PaymentIDFromClientSecret extracts the payment ID embedded in a client
// secret. Returns uuid.Nil when the handle is malformed.
func PaymentIDFromClientSecret(secret string) uuid.UUID {
	if !strings.HasPrefix(secret, "pi_") {
		return uuid.Nil
	}
	rest := strings.TrimPrefix(secret, "pi_")
	idx := strings.Index(rest, "_secret_")
	if idx < 0 {
		return uuid.Nil
	}
	id, err := uuid.Parse(rest[:idx])
	if err != nil {
		return uuid.Nil
	}
	return id
}
