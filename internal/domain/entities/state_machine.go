package entities

// PaymentOperation is a named transition request against a payment.
type PaymentOperation string

const (
	OpAuthorize           PaymentOperation = "authorize"
	OpAuthorizeAndCapture PaymentOperation = "authorize_and_capture"
	OpStartProcessing     PaymentOperation = "start_processing"
	OpRequireAction       PaymentOperation = "require_action"
	OpConfirm             PaymentOperation = "confirm"
	OpCapture             PaymentOperation = "capture"
	OpRefund              PaymentOperation = "refund"
	OpCancel              PaymentOperation = "cancel"
	OpDispute             PaymentOperation = "dispute"
	OpFail                PaymentOperation = "fail"
)

type transitionKey struct {
	from PaymentStatus
	op   PaymentOperation
}

// transitions is the authoritative transition table. Operations whose target
// depends on runtime data (confirm, refund) map to the success target here;
// the state machine resolves the alternative (failed, partially_refunded)
// before the lookup.
var transitions = map[transitionKey]PaymentStatus{
	{PaymentStatusPending, OpAuthorize}:           PaymentStatusRequiresCapture,
	{PaymentStatusPending, OpAuthorizeAndCapture}: PaymentStatusSucceeded,
	{PaymentStatusPending, OpStartProcessing}:     PaymentStatusProcessing,
	{PaymentStatusPending, OpRequireAction}:       PaymentStatusRequiresAction,
	{PaymentStatusPending, OpConfirm}:             PaymentStatusSucceeded,
	{PaymentStatusPending, OpFail}:                PaymentStatusFailed,

	{PaymentStatusProcessing, OpAuthorize}:     PaymentStatusRequiresCapture,
	{PaymentStatusProcessing, OpRequireAction}: PaymentStatusRequiresAction,
	{PaymentStatusProcessing, OpConfirm}:       PaymentStatusSucceeded,
	{PaymentStatusProcessing, OpFail}:          PaymentStatusFailed,

	{PaymentStatusRequiresAction, OpConfirm}: PaymentStatusSucceeded,
	{PaymentStatusRequiresAction, OpFail}:    PaymentStatusFailed,

	{PaymentStatusRequiresConfirmation, OpConfirm}: PaymentStatusSucceeded,
	{PaymentStatusRequiresConfirmation, OpFail}:    PaymentStatusFailed,

	{PaymentStatusRequiresCapture, OpCapture}: PaymentStatusSucceeded,
	{PaymentStatusRequiresCapture, OpFail}:    PaymentStatusFailed,

	{PaymentStatusSucceeded, OpRefund}:  PaymentStatusPartiallyRefunded,
	{PaymentStatusSucceeded, OpDispute}: PaymentStatusDisputed,

	{PaymentStatusPartiallyRefunded, OpRefund}:  PaymentStatusPartiallyRefunded,
	{PaymentStatusPartiallyRefunded, OpDispute}: PaymentStatusDisputed,

	{PaymentStatusRefunded, OpDispute}: PaymentStatusDisputed,
}

// cancelable states: any non-terminal state before capture.
var cancelable = map[PaymentStatus]bool{
	PaymentStatusPending:              true,
	PaymentStatusProcessing:           true,
	PaymentStatusRequiresAction:       true,
	PaymentStatusRequiresConfirmation: true,
	PaymentStatusRequiresCapture:      true,
}

// NextStatus resolves the target status for applying op to a payment in state
// from. The second return is false when the transition is not permitted.
func NextStatus(from PaymentStatus, op PaymentOperation) (PaymentStatus, bool) {
	if op == OpCancel {
		if cancelable[from] {
			return PaymentStatusCanceled, true
		}
		return from, false
	}
	to, ok := transitions[transitionKey{from, op}]
	if !ok {
		return from, false
	}
	return to, true
}

// CanTransition reports whether op is permitted from the given status.
func CanTransition(from PaymentStatus, op PaymentOperation) bool {
	_, ok := NextStatus(from, op)
	return ok
}
