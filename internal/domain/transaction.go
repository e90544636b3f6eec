// internal/domain/transaction.go
package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal" // For precise monetary calculations
)

// TransactionDirection marks which way value moved for the owning principal.
type TransactionDirection string

const (
	TransactionDirectionDebit  TransactionDirection = "debit"
	TransactionDirectionCredit TransactionDirection = "credit"
)

// TransactionStatus defines the status of a ledger transaction record.
type TransactionStatus string

// TransactionStatusCompleted is the only status a recorded transaction can
// hold; records are written synchronously with their balance mutation.
const TransactionStatusCompleted TransactionStatus = "completed"

// Transaction is one immutable entry in a principal's ledger history. It is
// created in the same critical section as the balance mutation it describes
// and is never mutated or deleted afterwards.
type Transaction struct {
	ID           string               `json:"id"`
	PrincipalID  string               `json:"principal_id"`
	Direction    TransactionDirection `json:"direction"`
	Currency     Currency             `json:"currency"`
	Amount       decimal.Decimal      `json:"amount"`
	Counterparty string               `json:"counterparty,omitempty"` // display name of the other side, if any
	Note         string               `json:"note,omitempty"`
	Timestamp    time.Time            `json:"timestamp"`
	Status       TransactionStatus    `json:"status"`
}

// NewTransaction creates a completed Transaction record.
func NewTransaction(principalID string, direction TransactionDirection, currency Currency, amount decimal.Decimal, counterparty, note string, now time.Time) Transaction {
	return Transaction{
		ID:           uuid.NewString(),
		PrincipalID:  principalID,
		Direction:    direction,
		Currency:     currency,
		Amount:       amount,
		Counterparty: counterparty,
		Note:         note,
		Timestamp:    now,
		Status:       TransactionStatusCompleted,
	}
}
