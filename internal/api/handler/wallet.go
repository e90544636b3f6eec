// internal/api/handler/wallet.go
package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"peerpay/internal/api/types"
	"peerpay/internal/domain"
)

// The wallet ledger's mutating surface is not network-exposed; settlement
// happens inside the service. These endpoints are the read-only views polling
// clients render balances and history from.

// GetBalances handles the balance listing request.
// GET /wallets/{principalID}/balances
func (h *PaymentHandler) GetBalances(w http.ResponseWriter, r *http.Request) {
	principalID := chi.URLParam(r, "principalID")

	balances := h.service.GetBalances(r.Context(), principalID)
	h.respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"principal_id": principalID,
		"balances":     balances,
	})
}

// GetTransactionHistory handles the transaction history request.
// GET /wallets/{principalID}/transactions
func (h *PaymentHandler) GetTransactionHistory(w http.ResponseWriter, r *http.Request) {
	principalID := chi.URLParam(r, "principalID")

	// Parse query parameters for pagination
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 {
		limit = 10 // Default limit
	}
	offset, err := strconv.Atoi(r.URL.Query().Get("offset"))
	if err != nil || offset < 0 {
		offset = 0 // Default offset
	}

	history := h.service.GetTransactionHistory(r.Context(), principalID)
	total := int64(len(history))

	if offset > len(history) {
		offset = len(history)
	}
	end := offset + limit
	if end > len(history) {
		end = len(history)
	}

	h.respondWithJSON(w, http.StatusOK, types.PaginatedResponse[domain.Transaction]{
		Data:       history[offset:end],
		Limit:      limit,
		Offset:     offset,
		TotalCount: total,
	})
}
