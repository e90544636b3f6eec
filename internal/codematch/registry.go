// internal/codematch/registry.go
package codematch

import (
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"peerpay/internal/domain"
	"peerpay/internal/util"
	"peerpay/pkg/clock"
)

// Registry owns the lifecycle of short-lived numeric payment codes:
// pending -> matched -> completed, or pending -> removed on expiry/cancel.
//
// All state lives behind one mutex; concurrent redeems of the same code
// serialize here, so at most one can ever observe it pending.
type Registry struct {
	mu     sync.Mutex
	clk    clock.Clock
	logger *slog.Logger
	ttl    time.Duration
	codes  map[string]*domain.PaymentCode
}

// NewRegistry creates an empty code registry. ttl is the lifetime of every
// generated code.
func NewRegistry(clk clock.Clock, ttl time.Duration, logger *slog.Logger) *Registry {
	return &Registry{
		clk:    clk,
		logger: logger,
		ttl:    ttl,
		codes:  make(map[string]*domain.PaymentCode),
	}
}

// Generate reserves a fresh 6-digit code bound to the sender's amount. The
// code is drawn uniformly from the values not currently in use; a collision
// triggers regeneration, never failure, so no two live codes share a value.
func (r *Registry) Generate(senderID, senderName string, amount decimal.Decimal, currency domain.Currency, note string) (domain.PaymentCode, error) {
	if !currency.Valid() {
		return domain.PaymentCode{}, util.ErrUnknownCurrency
	}
	amount = currency.Truncate(amount)
	if amount.LessThanOrEqual(decimal.Zero) {
		return domain.PaymentCode{}, util.ErrInvalidInput
	}
	if senderID == "" {
		return domain.PaymentCode{}, util.ErrInvalidInput
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.sweepLocked()

	var value string
	for {
		value = fmt.Sprintf("%06d", rand.IntN(1000000))
		if _, taken := r.codes[value]; !taken {
			break
		}
	}

	now := r.clk.Now()
	code := &domain.PaymentCode{
		Code:       value,
		SenderID:   senderID,
		SenderName: senderName,
		Amount:     amount,
		Currency:   currency,
		Note:       note,
		CreatedAt:  now,
		ExpiresAt:  now.Add(r.ttl),
		Status:     domain.CodeStatusPending,
	}
	r.codes[value] = code

	r.logger.Info("payment code generated", "sender", senderID, "currency", currency, "amount", amount.String())
	return *code, nil
}

// Redeem claims a pending code for the recipient. On success the code moves
// to matched, the recipient identity is bound, and the original
// amount/currency/note is returned for the settlement owner to apply.
// At most one Redeem ever succeeds per code.
func (r *Registry) Redeem(value, recipientID, recipientName string) (domain.PaymentCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	code, ok := r.codes[value]
	if !ok {
		return domain.PaymentCode{}, util.ErrNotFound
	}
	if r.clk.Now().After(code.ExpiresAt) {
		// Swept as a side effect of detecting expiry.
		delete(r.codes, value)
		return domain.PaymentCode{}, util.ErrExpired
	}
	if code.Status != domain.CodeStatusPending {
		return domain.PaymentCode{}, util.ErrAlreadyUsed
	}
	if recipientID == code.SenderID {
		return domain.PaymentCode{}, util.ErrSelfPay
	}

	code.Status = domain.CodeStatusMatched
	code.RecipientID = recipientID
	code.RecipientName = recipientName

	r.logger.Info("payment code redeemed", "code", value, "sender", code.SenderID, "recipient", recipientID)
	return *code, nil
}

// Confirm settles a matched code and moves it to completed. settle runs inside
// the registry's critical section before the transition is recorded, so the
// value transfer happens exactly once even under concurrent confirms: a second
// Confirm by the bound recipient returns the completed code without settling
// again. Callers other than the bound recipient get ErrUnauthorized.
func (r *Registry) Confirm(value, recipientID string, settle func(domain.PaymentCode) error) (domain.PaymentCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	code, ok := r.codes[value]
	if !ok {
		return domain.PaymentCode{}, util.ErrNotFound
	}
	if r.clk.Now().After(code.ExpiresAt) {
		delete(r.codes, value)
		return domain.PaymentCode{}, util.ErrExpired
	}
	if code.RecipientID == "" || code.RecipientID != recipientID {
		return domain.PaymentCode{}, util.ErrUnauthorized
	}
	if code.Status == domain.CodeStatusCompleted {
		return *code, nil
	}

	if settle != nil {
		if err := settle(*code); err != nil {
			return domain.PaymentCode{}, err
		}
	}
	code.Status = domain.CodeStatusCompleted

	r.logger.Info("payment code completed", "code", value, "sender", code.SenderID, "recipient", recipientID)
	return *code, nil
}

// Cancel removes an unredeemed code. Only the sender that created the code
// may cancel it, and only while it is still pending.
func (r *Registry) Cancel(value, senderID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sweepLocked()

	code, ok := r.codes[value]
	if !ok {
		return util.ErrNotFound
	}
	if code.SenderID != senderID {
		return util.ErrUnauthorized
	}
	if code.Status != domain.CodeStatusPending {
		return util.ErrAlreadyUsed
	}

	delete(r.codes, value)
	r.logger.Info("payment code cancelled", "code", value, "sender", senderID)
	return nil
}

// Get returns a copy of the code for status polling. Repeated reads are
// side-effect-free beyond the expiry sweep.
func (r *Registry) Get(value string) (domain.PaymentCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sweepLocked()

	code, ok := r.codes[value]
	if !ok {
		return domain.PaymentCode{}, util.ErrNotFound
	}
	return *code, nil
}

// sweepLocked deletes every code whose TTL has elapsed, regardless of status.
func (r *Registry) sweepLocked() {
	now := r.clk.Now()
	for value, code := range r.codes {
		if now.After(code.ExpiresAt) {
			delete(r.codes, value)
		}
	}
}
