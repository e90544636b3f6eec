// internal/domain/nearbyrequest.go
package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal" // For precise monetary calculations
)

// RequestStatus defines the lifecycle state of a nearby payment request.
type RequestStatus string

const (
	RequestStatusPending   RequestStatus = "pending"
	RequestStatusAccepted  RequestStatus = "accepted"
	RequestStatusRejected  RequestStatus = "rejected"
	RequestStatusCompleted RequestStatus = "completed"
)

// Terminal reports whether no further transition out of s is permitted.
func (s RequestStatus) Terminal() bool {
	return s == RequestStatusRejected || s == RequestStatusCompleted
}

// NearbyRequest is a sender-initiated payment proposal targeted at a specific
// present recipient. Only the named recipient may move it out of pending;
// accepted advances to completed only after settlement succeeds.
type NearbyRequest struct {
	ID          string          `json:"id"`
	SenderID    string          `json:"sender_id"`
	SenderName  string          `json:"sender_name"`
	RecipientID string          `json:"recipient_id"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    Currency        `json:"currency"`
	Note        string          `json:"note,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	ExpiresAt   time.Time       `json:"expires_at"`
	Status      RequestStatus   `json:"status"`
}

// NewNearbyRequest creates a pending request snapshotting the sender's intent.
func NewNearbyRequest(senderID, senderName, recipientID string, amount decimal.Decimal, currency Currency, note string, now time.Time, ttl time.Duration) NearbyRequest {
	return NearbyRequest{
		ID:          uuid.NewString(),
		SenderID:    senderID,
		SenderName:  senderName,
		RecipientID: recipientID,
		Amount:      amount,
		Currency:    currency,
		Note:        note,
		CreatedAt:   now,
		ExpiresAt:   now.Add(ttl),
		Status:      RequestStatusPending,
	}
}
