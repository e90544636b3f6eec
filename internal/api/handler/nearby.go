// internal/api/handler/nearby.go
package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"peerpay/internal/domain"
	"peerpay/internal/util"
)

// RegisterNearbyRequest represents the request body for presence announcement.
type RegisterNearbyRequest struct {
	PrincipalID string `json:"principal_id"`
	DisplayName string `json:"display_name"`
	DeviceLabel string `json:"device_label"`
}

// RegisterNearby handles the presence announcement request.
// POST /nearby/presence
func (h *PaymentHandler) RegisterNearby(w http.ResponseWriter, r *http.Request) {
	var req RegisterNearbyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondWithError(w, util.ErrInvalidInput)
		return
	}
	if req.PrincipalID == "" {
		h.respondWithError(w, util.ErrInvalidInput)
		return
	}

	h.service.RegisterNearby(r.Context(), req.PrincipalID, req.DisplayName, req.DeviceLabel)
	w.WriteHeader(http.StatusNoContent)
}

// HeartbeatRequest represents the request body for a liveness refresh.
type HeartbeatRequest struct {
	PrincipalID string `json:"principal_id"`
}

// Heartbeat handles the liveness refresh request. The response reports
// whether the principal is still registered; a heartbeat never resurrects a
// withdrawn or stale principal.
// POST /nearby/presence/heartbeat
func (h *PaymentHandler) Heartbeat(w http.ResponseWriter, r *http.Request) {
	var req HeartbeatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondWithError(w, util.ErrInvalidInput)
		return
	}
	if req.PrincipalID == "" {
		h.respondWithError(w, util.ErrInvalidInput)
		return
	}

	active := h.service.Heartbeat(r.Context(), req.PrincipalID)
	h.respondWithJSON(w, http.StatusOK, map[string]bool{"active": active})
}

// UnregisterNearby handles the presence withdrawal request.
// DELETE /nearby/presence?principal_id=...
func (h *PaymentHandler) UnregisterNearby(w http.ResponseWriter, r *http.Request) {
	principalID := r.URL.Query().Get("principal_id")
	if principalID == "" {
		h.respondWithError(w, util.ErrInvalidInput)
		return
	}

	h.service.UnregisterNearby(r.Context(), principalID)
	w.WriteHeader(http.StatusNoContent)
}

// GetNearbyUsers handles the discovery listing request.
// GET /nearby/users?exclude=...
func (h *PaymentHandler) GetNearbyUsers(w http.ResponseWriter, r *http.Request) {
	excludeID := r.URL.Query().Get("exclude")
	users := h.service.GetNearbyUsers(r.Context(), excludeID)
	h.respondWithJSON(w, http.StatusOK, map[string]interface{}{"data": users})
}

// SendNearbyPaymentRequest represents the request body for creating a nearby
// payment request.
type SendNearbyPaymentRequest struct {
	SenderID    string          `json:"sender_id"`
	SenderName  string          `json:"sender_name"`
	RecipientID string          `json:"recipient_id"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    domain.Currency `json:"currency"`
	Note        string          `json:"note"`
}

// SendNearbyPayment handles the nearby payment creation request.
// POST /nearby/payments
func (h *PaymentHandler) SendNearbyPayment(w http.ResponseWriter, r *http.Request) {
	var req SendNearbyPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondWithError(w, util.ErrInvalidInput)
		return
	}
	if req.SenderID == "" || req.RecipientID == "" || req.Amount.IsNegative() || req.Amount.IsZero() {
		h.respondWithError(w, util.ErrInvalidInput)
		return
	}

	request, err := h.service.SendNearbyPayment(r.Context(), req.SenderID, req.SenderName, req.RecipientID, req.Amount, req.Currency, req.Note)
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	h.respondWithJSON(w, http.StatusCreated, request)
}

// RespondNearbyPaymentRequest represents the request body for the recipient's
// accept/reject decision.
type RespondNearbyPaymentRequest struct {
	RecipientID   string `json:"recipient_id"`
	RecipientName string `json:"recipient_name"`
	Accept        bool   `json:"accept"`
}

// RespondToNearbyPayment handles the recipient's response to a pending
// request.
// POST /nearby/payments/{requestID}/respond
func (h *PaymentHandler) RespondToNearbyPayment(w http.ResponseWriter, r *http.Request) {
	requestID := chi.URLParam(r, "requestID")

	var req RespondNearbyPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondWithError(w, util.ErrInvalidInput)
		return
	}
	if req.RecipientID == "" {
		h.respondWithError(w, util.ErrInvalidInput)
		return
	}

	request, err := h.service.RespondToNearbyPayment(r.Context(), requestID, req.RecipientID, req.RecipientName, req.Accept)
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	h.respondWithJSON(w, http.StatusOK, request)
}

// GetNearbyPaymentStatus handles the request status polling request.
// GET /nearby/payments/{requestID}/status
func (h *PaymentHandler) GetNearbyPaymentStatus(w http.ResponseWriter, r *http.Request) {
	requestID := chi.URLParam(r, "requestID")

	request, err := h.service.GetNearbyPaymentStatus(r.Context(), requestID)
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	h.respondWithJSON(w, http.StatusOK, request)
}

// GetPendingNearbyPayments handles the recipient's pending-request listing.
// GET /nearby/payments/pending?recipient_id=...
func (h *PaymentHandler) GetPendingNearbyPayments(w http.ResponseWriter, r *http.Request) {
	recipientID := r.URL.Query().Get("recipient_id")
	if recipientID == "" {
		h.respondWithError(w, util.ErrInvalidInput)
		return
	}

	pending := h.service.GetPendingNearbyPayments(r.Context(), recipientID)
	h.respondWithJSON(w, http.StatusOK, map[string]interface{}{"data": pending})
}
