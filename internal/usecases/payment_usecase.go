package usecases

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
	"go.uber.org/zap"

	"defiant.backend/internal/config"
	"defiant.backend/internal/domain/entities"
	domainerrors "defiant.backend/internal/domain/errors"
	"defiant.backend/internal/domain/repositories"
	"defiant.backend/internal/infrastructure/blockchain"
	"defiant.backend/pkg/crypto"
	"defiant.backend/pkg/logger"
)

// EventNotifier schedules and publishes committed payment events. Fanout runs
// inside the payment transaction so delivery rows commit atomically with the
// event; Publish runs after commit and must never fail the caller.
type EventNotifier interface {
	Fanout(ctx context.Context, event *entities.Event) error
	Publish(ctx context.Context, event *entities.Event)
}

// CryptoVerifier abstracts the crypto network used for crypto-funded
// payments. *blockchain.EVMClient satisfies it.
type CryptoVerifier interface {
	GenerateDepositAddress() (address string, privateKeyHex string, err error)
	VerifyTransaction(ctx context.Context, txHash, expectedTo string) (*blockchain.TransactionProof, error)
}

// PaymentUsecase handles the payment lifecycle: creation, confirmation,
// capture, refunds, cancellation and disputes.
type PaymentUsecase struct {
	paymentRepo   repositories.PaymentRepository
	eventRepo     repositories.EventRepository
	balanceTxRepo repositories.BalanceTransactionRepository
	merchantRepo  repositories.MerchantRepository
	customerRepo  repositories.CustomerRepository
	uow           repositories.UnitOfWork
	notifier      EventNotifier
	verifier      CryptoVerifier
	cipher        *crypto.Cipher
	fees          config.FeeConfig

	// locks serializes concurrent mutations per payment in-process. Row
	// locks cover the cross-process case; sqlite (used in tests) has no
	// SELECT FOR UPDATE, so this keeps the serialization property there too.
	locks sync.Map
}

// NewPaymentUsecase creates a new payment usecase
func NewPaymentUsecase(
	paymentRepo repositories.PaymentRepository,
	eventRepo repositories.EventRepository,
	balanceTxRepo repositories.BalanceTransactionRepository,
	merchantRepo repositories.MerchantRepository,
	customerRepo repositories.CustomerRepository,
	uow repositories.UnitOfWork,
	notifier EventNotifier,
	verifier CryptoVerifier,
	cipher *crypto.Cipher,
	fees config.FeeConfig,
) *PaymentUsecase {
	return &PaymentUsecase{
		paymentRepo:   paymentRepo,
		eventRepo:     eventRepo,
		balanceTxRepo: balanceTxRepo,
		merchantRepo:  merchantRepo,
		customerRepo:  customerRepo,
		uow:           uow,
		notifier:      notifier,
		verifier:      verifier,
		cipher:        cipher,
		fees:          fees,
	}
}

// CalculateFee computes the processing fee for a captured amount.
func (u *PaymentUsecase) CalculateFee(amount int64) int64 {
	return amount*u.fees.PercentBps/10000 + u.fees.Fixed
}

func (u *PaymentUsecase) lockPayment(id uuid.UUID) func() {
	muIface, _ := u.locks.LoadOrStore(id, &sync.Mutex{})
	mu := muIface.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// CreatePayment creates a payment for a merchant. Card payments are
// authorized on create and held in requires_capture; capture=true captures in
// the same step and records the charge. Crypto payments get a deposit address
// and start in requires_action.
func (u *PaymentUsecase) CreatePayment(ctx context.Context, merchantID uuid.UUID, input *entities.CreatePaymentInput) (*entities.CreatePaymentResponse, error) {
	if input.Amount <= 0 {
		return nil, domainerrors.BadRequest("amount must be positive")
	}
	if len(input.Currency) != 3 {
		return nil, domainerrors.BadRequest("currency must be a 3-letter ISO code")
	}
	if !entities.ValidPaymentMethod(input.Method) {
		return nil, domainerrors.BadRequest("unknown payment method")
	}

	merchant, err := u.merchantRepo.GetByID(ctx, merchantID)
	if err != nil {
		return nil, err
	}
	if !merchant.Active {
		return nil, domainerrors.ErrMerchantNotActive
	}
	if input.Amount > LargePaymentThreshold && !merchant.AllowLargePayments {
		return nil, domainerrors.BadRequest("amount exceeds the large payment threshold for this merchant")
	}

	if input.CustomerID != nil {
		if _, err := u.customerRepo.GetByID(ctx, merchantID, *input.CustomerID); err != nil {
			return nil, err
		}
	}

	now := time.Now()
	payment := &entities.Payment{
		MerchantID:    merchantID,
		CustomerID:    input.CustomerID,
		Amount:        input.Amount,
		Currency:      strings.ToLower(input.Currency),
		Status:        entities.PaymentStatusPending,
		PaymentMethod: input.Method,
		Description:   null.NewString(input.Description, input.Description != ""),
		Metadata:      input.Metadata,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	var events []*entities.Event
	err = u.uow.Do(ctx, func(txCtx context.Context) error {
		events = events[:0]
		if err := u.paymentRepo.Create(txCtx, payment); err != nil {
			return err
		}
		if err := u.appendEvent(txCtx, payment, entities.EventPaymentCreated, &events); err != nil {
			return err
		}

		switch {
		case input.Method == entities.PaymentMethodCrypto:
			addr, keyHex, err := u.verifier.GenerateDepositAddress()
			if err != nil {
				return domainerrors.InternalError(err)
			}
			// The address key is held encrypted at rest so the deposit
			// can be swept later.
			encKey, err := u.cipher.Encrypt([]byte(keyHex))
			if err != nil {
				return domainerrors.InternalError(err)
			}
			next, ok := entities.NextStatus(payment.Status, entities.OpRequireAction)
			if !ok {
				return domainerrors.StateConflict("require_action not permitted from status " + string(payment.Status))
			}
			payment.CryptoAddress = null.StringFrom(addr)
			payment.CryptoKey = null.StringFrom(encKey)
			payment.Status = next
			if err := u.paymentRepo.Update(txCtx, payment); err != nil {
				return err
			}
			return u.appendEvent(txCtx, payment, entities.EventPaymentRequiresAction, &events)

		case input.Capture:
			// Authorize and capture in one step: the charge settles from
			// the create call itself.
			next, ok := entities.NextStatus(payment.Status, entities.OpAuthorizeAndCapture)
			if !ok {
				return domainerrors.StateConflict("capture not permitted from status " + string(payment.Status))
			}
			payment.Status = next
			payment.CapturedAmount = payment.Amount
			payment.CapturedAt = null.TimeFrom(time.Now())
			if err := u.paymentRepo.Update(txCtx, payment); err != nil {
				return err
			}
			if err := u.recordCharge(txCtx, payment, payment.Amount); err != nil {
				return err
			}
			return u.appendEvent(txCtx, payment, entities.EventPaymentSucceeded, &events)

		default:
			// Manual capture: funds are authorized up front and held
			// until an explicit capture.
			next, ok := entities.NextStatus(payment.Status, entities.OpAuthorize)
			if !ok {
				return domainerrors.StateConflict("authorize not permitted from status " + string(payment.Status))
			}
			payment.Status = next
			if err := u.paymentRepo.Update(txCtx, payment); err != nil {
				return err
			}
			return u.appendEvent(txCtx, payment, entities.EventPaymentAuthorized, &events)
		}
	})
	if err != nil {
		return nil, err
	}
	u.publishAll(ctx, events)

	logger.Info(ctx, "payment created",
		zap.String("payment_id", payment.ID.String()),
		zap.String("merchant_id", merchantID.String()),
		zap.Int64("amount", payment.Amount),
		zap.String("currency", payment.Currency),
	)
	return &entities.CreatePaymentResponse{
		Payment:      payment,
		ClientSecret: BuildClientSecret(payment.ID),
	}, nil
}

// GetPayment returns a payment scoped to the merchant
func (u *PaymentUsecase) GetPayment(ctx context.Context, merchantID, id uuid.UUID) (*entities.Payment, error) {
	return u.paymentRepo.GetByID(ctx, merchantID, id)
}

// ListPayments returns a cursor page of payments
func (u *PaymentUsecase) ListPayments(ctx context.Context, merchantID uuid.UUID, filter entities.ListPaymentsFilter) (*entities.PaymentList, error) {
	if filter.Limit <= 0 {
		filter.Limit = DefaultListLimit
	}
	if filter.Limit > MaxListLimit {
		filter.Limit = MaxListLimit
	}

	// Fetch one extra row to learn whether another page exists.
	fetch := filter
	fetch.Limit = filter.Limit + 1

	payments, total, err := u.paymentRepo.List(ctx, merchantID, fetch)
	if err != nil {
		return nil, err
	}

	list := &entities.PaymentList{Data: payments, Total: total}
	if len(payments) > filter.Limit {
		list.Data = payments[:filter.Limit]
		list.HasMore = true
		list.NextCursor = list.Data[filter.Limit-1].ID.String()
	}
	return list, nil
}

// ConfirmPayment applies the external confirmation outcome. Crypto payments
// must present a transaction hash which is verified against the network
// before the payment may succeed.
func (u *PaymentUsecase) ConfirmPayment(ctx context.Context, merchantID, id uuid.UUID, input *entities.ConfirmInput) (*entities.Payment, error) {
	unlock := u.lockPayment(id)
	defer unlock()

	var payment *entities.Payment
	var events []*entities.Event
	err := u.uow.Do(ctx, func(txCtx context.Context) error {
		events = events[:0]
		lockCtx := u.uow.WithLock(txCtx)

		p, err := u.paymentRepo.GetByID(lockCtx, merchantID, id)
		if err != nil {
			return err
		}

		if !input.Succeeded {
			payment = p
			return u.failPayment(txCtx, p, input.FailureCode, input.FailureMessage, &events)
		}

		next, ok := entities.NextStatus(p.Status, entities.OpConfirm)
		if !ok {
			return domainerrors.StateConflict("confirm not permitted from status " + string(p.Status))
		}

		if p.PaymentMethod == entities.PaymentMethodCrypto {
			if input.TxHash == "" {
				return domainerrors.BadRequest("txHash is required to confirm a crypto payment")
			}
			if _, err := u.verifier.VerifyTransaction(txCtx, input.TxHash, p.CryptoAddress.String); err != nil {
				return domainerrors.BadRequest("crypto transaction could not be verified: " + err.Error())
			}
		}

		p.Status = next
		p.CapturedAmount = p.Amount
		p.CapturedAt = null.TimeFrom(time.Now())
		if err := u.paymentRepo.Update(txCtx, p); err != nil {
			return err
		}

		if err := u.recordCharge(txCtx, p, p.Amount); err != nil {
			return err
		}
		if err := u.appendEvent(txCtx, p, entities.EventPaymentSucceeded, &events); err != nil {
			return err
		}

		payment = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	u.publishAll(ctx, events)
	return payment, nil
}

// CapturePayment captures a previously authorized payment. A zero amount
// captures the full authorization; a smaller amount releases the remainder.
func (u *PaymentUsecase) CapturePayment(ctx context.Context, merchantID, id uuid.UUID, input *entities.CaptureInput) (*entities.Payment, error) {
	unlock := u.lockPayment(id)
	defer unlock()

	var payment *entities.Payment
	var events []*entities.Event
	err := u.uow.Do(ctx, func(txCtx context.Context) error {
		events = events[:0]
		lockCtx := u.uow.WithLock(txCtx)

		p, err := u.paymentRepo.GetByID(lockCtx, merchantID, id)
		if err != nil {
			return err
		}

		next, ok := entities.NextStatus(p.Status, entities.OpCapture)
		if !ok {
			return domainerrors.StateConflict("capture not permitted from status " + string(p.Status))
		}

		amount := input.Amount
		if amount == 0 {
			amount = p.Amount
		}
		if amount < 0 || amount > p.Amount {
			return domainerrors.BadRequest("capture amount exceeds the authorized amount")
		}

		p.Status = next
		p.CapturedAmount = amount
		p.CapturedAt = null.TimeFrom(time.Now())
		if err := u.paymentRepo.Update(txCtx, p); err != nil {
			return err
		}

		if err := u.recordCharge(txCtx, p, amount); err != nil {
			return err
		}
		if err := u.appendEvent(txCtx, p, entities.EventPaymentSucceeded, &events); err != nil {
			return err
		}

		payment = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	u.publishAll(ctx, events)
	return payment, nil
}

// RefundPayment refunds part or all of a captured payment. Refunds are
// serialized per payment: concurrent refunds cannot overdraw the captured
// amount.
func (u *PaymentUsecase) RefundPayment(ctx context.Context, merchantID, id uuid.UUID, input *entities.RefundInput) (*entities.Payment, error) {
	if input.Amount <= 0 {
		return nil, domainerrors.BadRequest("refund amount must be positive")
	}

	unlock := u.lockPayment(id)
	defer unlock()

	var payment *entities.Payment
	var events []*entities.Event
	err := u.uow.Do(ctx, func(txCtx context.Context) error {
		events = events[:0]
		lockCtx := u.uow.WithLock(txCtx)

		p, err := u.paymentRepo.GetByID(lockCtx, merchantID, id)
		if err != nil {
			return err
		}

		if _, ok := entities.NextStatus(p.Status, entities.OpRefund); !ok {
			return domainerrors.StateConflict("refund not permitted from status " + string(p.Status))
		}
		if input.Amount > p.RemainingRefundable() {
			return domainerrors.ErrInsufficientFunds
		}

		p.RefundedAmount += input.Amount
		if p.RefundedAmount == p.CapturedAmount {
			p.Status = entities.PaymentStatusRefunded
		} else {
			p.Status = entities.PaymentStatusPartiallyRefunded
		}
		if input.Reason != "" {
			p.RefundReason = null.StringFrom(input.Reason)
		}
		if err := u.paymentRepo.Update(txCtx, p); err != nil {
			return err
		}

		// Refunds debit the balance immediately, no settlement delay.
		row := entities.NewBalanceTransaction(p.MerchantID, p.ID, entities.BalanceTransactionTypeRefund, -input.Amount, 0, p.Currency, time.Now())
		row.Description = "refund"
		if err := u.balanceTxRepo.Create(txCtx, row); err != nil {
			return err
		}

		eventType := entities.EventPaymentPartiallyRefunded
		if p.Status == entities.PaymentStatusRefunded {
			eventType = entities.EventPaymentRefunded
		}
		if err := u.appendEvent(txCtx, p, eventType, &events); err != nil {
			return err
		}

		payment = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	u.publishAll(ctx, events)
	return payment, nil
}

// CancelPayment cancels a payment that has not been captured. No ledger rows
// are written: nothing was charged.
func (u *PaymentUsecase) CancelPayment(ctx context.Context, merchantID, id uuid.UUID) (*entities.Payment, error) {
	unlock := u.lockPayment(id)
	defer unlock()

	var payment *entities.Payment
	var events []*entities.Event
	err := u.uow.Do(ctx, func(txCtx context.Context) error {
		events = events[:0]
		lockCtx := u.uow.WithLock(txCtx)

		p, err := u.paymentRepo.GetByID(lockCtx, merchantID, id)
		if err != nil {
			return err
		}

		next, ok := entities.NextStatus(p.Status, entities.OpCancel)
		if !ok {
			return domainerrors.StateConflict("cancel not permitted from status " + string(p.Status))
		}

		p.Status = next
		if err := u.paymentRepo.Update(txCtx, p); err != nil {
			return err
		}
		if err := u.appendEvent(txCtx, p, entities.EventPaymentCanceled, &events); err != nil {
			return err
		}

		payment = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	u.publishAll(ctx, events)
	return payment, nil
}

// DisputePayment marks a captured payment as disputed and reverses the
// remaining net with an offsetting adjustment row.
func (u *PaymentUsecase) DisputePayment(ctx context.Context, merchantID, id uuid.UUID) (*entities.Payment, error) {
	unlock := u.lockPayment(id)
	defer unlock()

	var payment *entities.Payment
	var events []*entities.Event
	err := u.uow.Do(ctx, func(txCtx context.Context) error {
		events = events[:0]
		lockCtx := u.uow.WithLock(txCtx)

		p, err := u.paymentRepo.GetByID(lockCtx, merchantID, id)
		if err != nil {
			return err
		}

		next, ok := entities.NextStatus(p.Status, entities.OpDispute)
		if !ok {
			return domainerrors.StateConflict("dispute not permitted from status " + string(p.Status))
		}

		p.Status = next
		if err := u.paymentRepo.Update(txCtx, p); err != nil {
			return err
		}

		if remaining := p.RemainingRefundable(); remaining > 0 {
			row := entities.NewBalanceTransaction(p.MerchantID, p.ID, entities.BalanceTransactionTypeAdjustment, -remaining, 0, p.Currency, time.Now())
			row.Description = "dispute reversal"
			if err := u.balanceTxRepo.Create(txCtx, row); err != nil {
				return err
			}
		}

		if err := u.appendEvent(txCtx, p, entities.EventPaymentDisputed, &events); err != nil {
			return err
		}

		payment = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	u.publishAll(ctx, events)
	return payment, nil
}

// failPayment moves a payment to failed inside an open transaction.
func (u *PaymentUsecase) failPayment(txCtx context.Context, p *entities.Payment, code, message string, events *[]*entities.Event) error {
	next, ok := entities.NextStatus(p.Status, entities.OpFail)
	if !ok {
		return domainerrors.StateConflict("fail not permitted from status " + string(p.Status))
	}

	p.Status = next
	p.FailureCode = null.NewString(code, code != "")
	p.FailureMessage = null.NewString(message, message != "")
	if err := u.paymentRepo.Update(txCtx, p); err != nil {
		return err
	}
	return u.appendEvent(txCtx, p, entities.EventPaymentFailed, events)
}

// recordCharge writes the charge ledger row for a captured amount. Net funds
// settle after the configured delay.
func (u *PaymentUsecase) recordCharge(txCtx context.Context, p *entities.Payment, amount int64) error {
	fee := u.CalculateFee(amount)
	row := entities.NewBalanceTransaction(p.MerchantID, p.ID, entities.BalanceTransactionTypeCharge, amount, fee, p.Currency, time.Now().Add(u.fees.SettlementDelay))
	row.Description = "charge"
	return u.balanceTxRepo.Create(txCtx, row)
}

// appendEvent writes the immutable event row for a transition and fans it
// out to webhook deliveries within the same transaction. The event is
// collected for streaming publish after commit.
func (u *PaymentUsecase) appendEvent(txCtx context.Context, p *entities.Payment, eventType string, events *[]*entities.Event) error {
	data, err := json.Marshal(p)
	if err != nil {
		return err
	}

	event := &entities.Event{
		MerchantID: p.MerchantID,
		Type:       eventType,
		Data:       data,
		CreatedAt:  time.Now(),
	}
	if err := u.eventRepo.Create(txCtx, event); err != nil {
		return err
	}

	if u.notifier != nil {
		if err := u.notifier.Fanout(txCtx, event); err != nil {
			return err
		}
	}
	*events = append(*events, event)
	return nil
}

// publishAll streams committed events to live consumers. Called only after
// the owning transaction has committed.
func (u *PaymentUsecase) publishAll(ctx context.Context, events []*entities.Event) {
	if u.notifier == nil {
		return
	}
	for _, event := range events {
		u.notifier.Publish(ctx, event)
	}
}
