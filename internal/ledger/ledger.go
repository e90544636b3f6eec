// internal/ledger/ledger.go
package ledger

import (
	"log/slog"
	"sync"

	"github.com/shopspring/decimal"

	"peerpay/internal/domain"
	"peerpay/internal/util"
	"peerpay/pkg/clock"
)

// accountKey addresses one balance: a (principal, currency) pair.
type accountKey struct {
	principalID string
	currency    domain.Currency
}

// Ledger is the authoritative in-memory balance store plus append-only
// transaction history for all principals and currencies.
//
// Every mutation runs under a single mutex: a balance change and its
// transaction record are written in one critical section, so no interleaved
// read can observe one without the other, and no two debits against the same
// account can both pass the sufficient-funds check.
type Ledger struct {
	mu       sync.Mutex
	clk      clock.Clock
	logger   *slog.Logger
	balances map[accountKey]decimal.Decimal
	history  map[string][]domain.Transaction // newest first
}

// New creates an empty Ledger. Accounts that have never transacted report
// their currency's starting allocation.
func New(clk clock.Clock, logger *slog.Logger) *Ledger {
	return &Ledger{
		clk:      clk,
		logger:   logger,
		balances: make(map[accountKey]decimal.Decimal),
		history:  make(map[string][]domain.Transaction),
	}
}

// Balance returns the current balance for (principalID, currency).
func (l *Ledger) Balance(principalID string, currency domain.Currency) (decimal.Decimal, error) {
	if !currency.Valid() {
		return decimal.Zero, util.ErrUnknownCurrency
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balanceLocked(accountKey{principalID, currency}), nil
}

// Balances returns the principal's balance in every supported currency.
func (l *Ledger) Balances(principalID string) map[domain.Currency]decimal.Decimal {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make(map[domain.Currency]decimal.Decimal, len(domain.Currencies()))
	for _, c := range domain.Currencies() {
		out[c] = l.balanceLocked(accountKey{principalID, c})
	}
	return out
}

// Debit withdraws amount from the principal's balance. It fails with
// ErrInsufficientFunds, leaving both balance and history untouched, when the
// amount exceeds the current balance. Insufficient funds is a normal outcome
// for the caller to translate, not a fault.
func (l *Ledger) Debit(principalID string, currency domain.Currency, amount decimal.Decimal, counterparty, note string) (domain.Transaction, error) {
	amount, err := l.normalize(currency, amount)
	if err != nil {
		return domain.Transaction{}, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.debitLocked(principalID, currency, amount, counterparty, note)
}

// Credit deposits amount into the principal's balance. It always succeeds for
// valid input.
func (l *Ledger) Credit(principalID string, currency domain.Currency, amount decimal.Decimal, counterparty, note string) (domain.Transaction, error) {
	amount, err := l.normalize(currency, amount)
	if err != nil {
		return domain.Transaction{}, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.creditLocked(principalID, currency, amount, counterparty, note), nil
}

// Transfer moves amount from sender to recipient in one critical section.
// If the sender's debit fails nothing is applied; once the debit succeeds the
// matching credit is applied before the call returns, so no other operation
// can observe the sender debited without the recipient credited.
func (l *Ledger) Transfer(sender, recipient domain.Principal, currency domain.Currency, amount decimal.Decimal, note string) error {
	if sender.ID == recipient.ID {
		return util.ErrSelfPay
	}
	amount, err := l.normalize(currency, amount)
	if err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, err := l.debitLocked(sender.ID, currency, amount, recipient.DisplayName, note); err != nil {
		return err
	}
	l.creditLocked(recipient.ID, currency, amount, sender.DisplayName, note)

	l.logger.Info("transfer settled",
		"sender", sender.ID,
		"recipient", recipient.ID,
		"currency", currency,
		"amount", amount.String(),
	)
	return nil
}

// History returns a copy of the principal's transaction records, newest first.
func (l *Ledger) History(principalID string) []domain.Transaction {
	l.mu.Lock()
	defer l.mu.Unlock()
	records := l.history[principalID]
	out := make([]domain.Transaction, len(records))
	copy(out, records)
	return out
}

// normalize validates the currency and amount and truncates the amount to the
// currency's storage scale. Truncation happens here, once, and never again on
// stored values.
func (l *Ledger) normalize(currency domain.Currency, amount decimal.Decimal) (decimal.Decimal, error) {
	if !currency.Valid() {
		return decimal.Zero, util.ErrUnknownCurrency
	}
	amount = currency.Truncate(amount)
	if amount.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, util.ErrInvalidInput
	}
	return amount, nil
}

func (l *Ledger) balanceLocked(key accountKey) decimal.Decimal {
	if bal, ok := l.balances[key]; ok {
		return bal
	}
	return key.currency.StartingAllocation()
}

func (l *Ledger) debitLocked(principalID string, currency domain.Currency, amount decimal.Decimal, counterparty, note string) (domain.Transaction, error) {
	key := accountKey{principalID, currency}
	balance := l.balanceLocked(key)
	if balance.LessThan(amount) {
		return domain.Transaction{}, util.ErrInsufficientFunds
	}
	l.balances[key] = balance.Sub(amount)
	return l.recordLocked(principalID, domain.TransactionDirectionDebit, currency, amount, counterparty, note), nil
}

func (l *Ledger) creditLocked(principalID string, currency domain.Currency, amount decimal.Decimal, counterparty, note string) domain.Transaction {
	key := accountKey{principalID, currency}
	l.balances[key] = l.balanceLocked(key).Add(amount)
	return l.recordLocked(principalID, domain.TransactionDirectionCredit, currency, amount, counterparty, note)
}

// recordLocked prepends the record so history reads newest first.
func (l *Ledger) recordLocked(principalID string, direction domain.TransactionDirection, currency domain.Currency, amount decimal.Decimal, counterparty, note string) domain.Transaction {
	tx := domain.NewTransaction(principalID, direction, currency, amount, counterparty, note, l.clk.Now())
	l.history[principalID] = append([]domain.Transaction{tx}, l.history[principalID]...)
	return tx
}
