// internal/service/payment_service.go
package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"peerpay/internal/codematch"
	"peerpay/internal/domain"
	"peerpay/internal/ledger"
	"peerpay/internal/nearby"
	"peerpay/internal/presence"
)

// PaymentService defines the interface for the payment matching core. It is
// the single owner of settlement: both sides of every value transfer are
// applied here, so no two callers can each settle half of one payment.
type PaymentService interface {
	// Code-based payment matching.
	GenerateCode(ctx context.Context, senderID, senderName string, amount decimal.Decimal, currency domain.Currency, note string) (domain.PaymentCode, error)
	VerifyCode(ctx context.Context, code, recipientID, recipientName string) (domain.PaymentCode, error)
	ConfirmPayment(ctx context.Context, code, recipientID string) (domain.PaymentCode, error)
	CancelPayment(ctx context.Context, code, senderID string) error
	GetPaymentStatus(ctx context.Context, code string) (domain.PaymentCode, error)

	// Presence.
	RegisterNearby(ctx context.Context, principalID, displayName, deviceLabel string)
	Heartbeat(ctx context.Context, principalID string) bool
	UnregisterNearby(ctx context.Context, principalID string)
	GetNearbyUsers(ctx context.Context, excludeID string) []domain.NearbyUser

	// Nearby payment requests.
	SendNearbyPayment(ctx context.Context, senderID, senderName, recipientID string, amount decimal.Decimal, currency domain.Currency, note string) (domain.NearbyRequest, error)
	RespondToNearbyPayment(ctx context.Context, requestID, recipientID, recipientName string, accept bool) (domain.NearbyRequest, error)
	GetNearbyPaymentStatus(ctx context.Context, requestID string) (domain.NearbyRequest, error)
	GetPendingNearbyPayments(ctx context.Context, recipientID string) []domain.NearbyRequest

	// Read-only wallet views for polling clients.
	GetBalances(ctx context.Context, principalID string) map[domain.Currency]decimal.Decimal
	GetTransactionHistory(ctx context.Context, principalID string) []domain.Transaction
}

// paymentService implements the PaymentService interface.
type paymentService struct {
	ledger   *ledger.Ledger
	codes    *codematch.Registry
	presence *presence.Registry
	nearby   *nearby.Registry
	logger   *slog.Logger
}

// NewPaymentService creates a new instance of PaymentService.
func NewPaymentService(
	ldg *ledger.Ledger,
	codes *codematch.Registry,
	pres *presence.Registry,
	requests *nearby.Registry,
	logger *slog.Logger,
) PaymentService {
	return &paymentService{
		ledger:   ldg,
		codes:    codes,
		presence: pres,
		nearby:   requests,
		logger:   logger,
	}
}

// GenerateCode reserves a payment code for the sender.
func (s *paymentService) GenerateCode(ctx context.Context, senderID, senderName string, amount decimal.Decimal, currency domain.Currency, note string) (domain.PaymentCode, error) {
	code, err := s.codes.Generate(senderID, senderName, amount, currency, note)
	if err != nil {
		return domain.PaymentCode{}, fmt.Errorf("generate code: %w", err)
	}
	return code, nil
}

// VerifyCode redeems a code for the recipient, binding their identity and
// returning the original payment details. No value moves yet; settlement
// happens in ConfirmPayment.
func (s *paymentService) VerifyCode(ctx context.Context, code, recipientID, recipientName string) (domain.PaymentCode, error) {
	redeemed, err := s.codes.Redeem(code, recipientID, recipientName)
	if err != nil {
		return domain.PaymentCode{}, fmt.Errorf("verify code: %w", err)
	}
	return redeemed, nil
}

// ConfirmPayment settles a matched code: the sender's balance is debited and
// the recipient's credited inside the registry's critical section, exactly
// once, before the code reaches completed. A repeated confirm by the bound
// recipient is a no-op success.
func (s *paymentService) ConfirmPayment(ctx context.Context, code, recipientID string) (domain.PaymentCode, error) {
	confirmed, err := s.codes.Confirm(code, recipientID, func(c domain.PaymentCode) error {
		sender := domain.Principal{ID: c.SenderID, DisplayName: c.SenderName}
		recipient := domain.Principal{ID: c.RecipientID, DisplayName: c.RecipientName}
		return s.ledger.Transfer(sender, recipient, c.Currency, c.Amount, c.Note)
	})
	if err != nil {
		return domain.PaymentCode{}, fmt.Errorf("confirm payment: %w", err)
	}
	return confirmed, nil
}

// CancelPayment removes the sender's own unredeemed code.
func (s *paymentService) CancelPayment(ctx context.Context, code, senderID string) error {
	if err := s.codes.Cancel(code, senderID); err != nil {
		return fmt.Errorf("cancel payment: %w", err)
	}
	return nil
}

// GetPaymentStatus is a side-effect-free status read, safe to poll.
func (s *paymentService) GetPaymentStatus(ctx context.Context, code string) (domain.PaymentCode, error) {
	status, err := s.codes.Get(code)
	if err != nil {
		return domain.PaymentCode{}, fmt.Errorf("get payment status: %w", err)
	}
	return status, nil
}

// RegisterNearby makes the principal discoverable.
func (s *paymentService) RegisterNearby(ctx context.Context, principalID, displayName, deviceLabel string) {
	s.presence.Announce(principalID, displayName, deviceLabel)
}

// Heartbeat refreshes the principal's liveness claim.
func (s *paymentService) Heartbeat(ctx context.Context, principalID string) bool {
	return s.presence.Heartbeat(principalID)
}

// UnregisterNearby removes the principal from discovery immediately.
func (s *paymentService) UnregisterNearby(ctx context.Context, principalID string) {
	s.presence.Withdraw(principalID)
}

// GetNearbyUsers lists the currently-live principals, excluding the caller.
func (s *paymentService) GetNearbyUsers(ctx context.Context, excludeID string) []domain.NearbyUser {
	return s.presence.ListPresent(excludeID)
}

// SendNearbyPayment creates a pending request targeted at a specific
// recipient the sender discovered nearby.
func (s *paymentService) SendNearbyPayment(ctx context.Context, senderID, senderName, recipientID string, amount decimal.Decimal, currency domain.Currency, note string) (domain.NearbyRequest, error) {
	request, err := s.nearby.Create(senderID, senderName, recipientID, amount, currency, note)
	if err != nil {
		return domain.NearbyRequest{}, fmt.Errorf("send nearby payment: %w", err)
	}
	return request, nil
}

// RespondToNearbyPayment resolves a pending request on behalf of its
// recipient. Acceptance settles the transfer immediately inside the
// registry's critical section; the request then auto-advances to completed
// shortly after, unless it was swept in the meantime.
func (s *paymentService) RespondToNearbyPayment(ctx context.Context, requestID, recipientID, recipientName string, accept bool) (domain.NearbyRequest, error) {
	request, err := s.nearby.Respond(requestID, recipientID, accept, func(req domain.NearbyRequest) error {
		sender := domain.Principal{ID: req.SenderID, DisplayName: req.SenderName}
		recipient := domain.Principal{ID: req.RecipientID, DisplayName: recipientName}
		return s.ledger.Transfer(sender, recipient, req.Currency, req.Amount, req.Note)
	})
	if err != nil {
		return request, fmt.Errorf("respond to nearby payment: %w", err)
	}
	return request, nil
}

// GetNearbyPaymentStatus is a side-effect-free status read, safe to poll.
func (s *paymentService) GetNearbyPaymentStatus(ctx context.Context, requestID string) (domain.NearbyRequest, error) {
	request, err := s.nearby.Get(requestID)
	if err != nil {
		return domain.NearbyRequest{}, fmt.Errorf("get nearby payment status: %w", err)
	}
	return request, nil
}

// GetPendingNearbyPayments lists the live pending requests addressed to the
// recipient, oldest first.
func (s *paymentService) GetPendingNearbyPayments(ctx context.Context, recipientID string) []domain.NearbyRequest {
	return s.nearby.PendingFor(recipientID)
}

// GetBalances returns the principal's balance in every supported currency.
func (s *paymentService) GetBalances(ctx context.Context, principalID string) map[domain.Currency]decimal.Decimal {
	return s.ledger.Balances(principalID)
}

// GetTransactionHistory returns the principal's ledger records, newest first.
func (s *paymentService) GetTransactionHistory(ctx context.Context, principalID string) []domain.Transaction {
	return s.ledger.History(principalID)
}
