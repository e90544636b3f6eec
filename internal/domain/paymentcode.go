// internal/domain/paymentcode.go
package domain

import (
	"time"

	"github.com/shopspring/decimal" // For precise monetary calculations
)

// CodeStatus defines the lifecycle state of a payment code.
type CodeStatus string

const (
	CodeStatusPending   CodeStatus = "pending"
	CodeStatusMatched   CodeStatus = "matched"
	CodeStatusCompleted CodeStatus = "completed"
	CodeStatusExpired   CodeStatus = "expired"
)

// PaymentCode is a short-lived 6-digit token a sender reserves against an
// amount; a recipient redeems it exactly once to claim the payment.
// Transitions: pending -> matched -> completed, or pending -> expired.
// A code value is never recycled after completion or expiry.
type PaymentCode struct {
	Code          string          `json:"code"`
	SenderID      string          `json:"sender_id"`
	SenderName    string          `json:"sender_name"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      Currency        `json:"currency"`
	Note          string          `json:"note,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	ExpiresAt     time.Time       `json:"expires_at"`
	Status        CodeStatus      `json:"status"`
	RecipientID   string          `json:"recipient_id,omitempty"`
	RecipientName string          `json:"recipient_name,omitempty"`
}
