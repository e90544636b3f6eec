// internal/api/handler/payment_code.go
package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"peerpay/internal/domain"
	"peerpay/internal/util"
)

// GenerateCodeRequest represents the request body for code generation.
type GenerateCodeRequest struct {
	SenderID   string          `json:"sender_id"`
	SenderName string          `json:"sender_name"`
	Amount     decimal.Decimal `json:"amount"`
	Currency   domain.Currency `json:"currency"`
	Note       string          `json:"note"`
}

// GenerateCode handles the payment code generation request.
// POST /payments/codes
func (h *PaymentHandler) GenerateCode(w http.ResponseWriter, r *http.Request) {
	var req GenerateCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondWithError(w, util.ErrInvalidInput)
		return
	}
	if req.SenderID == "" || req.Amount.IsNegative() || req.Amount.IsZero() {
		h.respondWithError(w, util.ErrInvalidInput)
		return
	}

	code, err := h.service.GenerateCode(r.Context(), req.SenderID, req.SenderName, req.Amount, req.Currency, req.Note)
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	h.respondWithJSON(w, http.StatusCreated, map[string]interface{}{
		"code":       code.Code,
		"expires_at": code.ExpiresAt,
		"status":     code.Status,
	})
}

// VerifyCodeRequest represents the request body for code redemption.
type VerifyCodeRequest struct {
	Code          string `json:"code"`
	RecipientID   string `json:"recipient_id"`
	RecipientName string `json:"recipient_name"`
}

// VerifyCode handles the code redemption request.
// POST /payments/codes/verify
func (h *PaymentHandler) VerifyCode(w http.ResponseWriter, r *http.Request) {
	var req VerifyCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondWithError(w, util.ErrInvalidInput)
		return
	}
	if req.Code == "" || req.RecipientID == "" {
		h.respondWithError(w, util.ErrInvalidInput)
		return
	}

	code, err := h.service.VerifyCode(r.Context(), req.Code, req.RecipientID, req.RecipientName)
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	h.respondWithJSON(w, http.StatusOK, code)
}

// ConfirmPaymentRequest represents the request body for settlement confirmation.
type ConfirmPaymentRequest struct {
	RecipientID string `json:"recipient_id"`
}

// ConfirmPayment handles the settlement confirmation request.
// POST /payments/codes/{code}/confirm
func (h *PaymentHandler) ConfirmPayment(w http.ResponseWriter, r *http.Request) {
	codeValue := chi.URLParam(r, "code")

	var req ConfirmPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondWithError(w, util.ErrInvalidInput)
		return
	}
	if req.RecipientID == "" {
		h.respondWithError(w, util.ErrInvalidInput)
		return
	}

	code, err := h.service.ConfirmPayment(r.Context(), codeValue, req.RecipientID)
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	h.respondWithJSON(w, http.StatusOK, code)
}

// CancelPayment handles the sender's cancellation of an unredeemed code.
// DELETE /payments/codes/{code}?sender_id=...
func (h *PaymentHandler) CancelPayment(w http.ResponseWriter, r *http.Request) {
	codeValue := chi.URLParam(r, "code")
	senderID := r.URL.Query().Get("sender_id")
	if senderID == "" {
		h.respondWithError(w, util.ErrInvalidInput)
		return
	}

	if err := h.service.CancelPayment(r.Context(), codeValue, senderID); err != nil {
		h.respondWithError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetPaymentStatus handles the code status polling request.
// GET /payments/codes/{code}/status
func (h *PaymentHandler) GetPaymentStatus(w http.ResponseWriter, r *http.Request) {
	codeValue := chi.URLParam(r, "code")

	code, err := h.service.GetPaymentStatus(r.Context(), codeValue)
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	h.respondWithJSON(w, http.StatusOK, code)
}
