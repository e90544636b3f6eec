// internal/api/handler/handler.go
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"peerpay/internal/service"
	"peerpay/internal/util" // For custom errors
)

// DefaultTimeout bounds every request handled by the router.
const DefaultTimeout = 30 * time.Second

// PaymentHandler handles HTTP requests against the payment matching core.
type PaymentHandler struct {
	service service.PaymentService
	logger  *slog.Logger
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(svc service.PaymentService, logger *slog.Logger) *PaymentHandler {
	return &PaymentHandler{
		service: svc,
		logger:  logger,
	}
}

// Helper function to send JSON responses.
func (h *PaymentHandler) respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error("Failed to marshal JSON response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(response)
}

// Helper function to send error responses. Every error the core returns is a
// structured outcome; this is where it becomes an HTTP status.
func (h *PaymentHandler) respondWithError(w http.ResponseWriter, err error) {
	statusCode := http.StatusInternalServerError
	message := "Internal server error"

	switch {
	case util.IsError(err, util.ErrInvalidInput), util.IsError(err, util.ErrUnknownCurrency):
		statusCode = http.StatusBadRequest
		message = err.Error()
	case util.IsError(err, util.ErrSelfPay):
		statusCode = http.StatusBadRequest
		message = "Sender and recipient are the same principal"
	case util.IsError(err, util.ErrNotFound):
		statusCode = http.StatusNotFound
		message = "Resource not found"
	case util.IsError(err, util.ErrUnauthorized):
		statusCode = http.StatusForbidden
		message = "Not entitled to perform this transition"
	case util.IsError(err, util.ErrAlreadyUsed), util.IsError(err, util.ErrAlreadyTerminal):
		statusCode = http.StatusConflict
		message = "Already in a conflicting or terminal state"
	case util.IsError(err, util.ErrExpired):
		statusCode = http.StatusGone
		message = "Expired"
	case util.IsError(err, util.ErrInsufficientFunds):
		statusCode = http.StatusPaymentRequired // 402 Payment Required
		message = "Insufficient funds"
	default:
		h.logger.Error("Unhandled service error", "error", err)
	}

	h.respondWithJSON(w, statusCode, map[string]string{"error": message})
}
