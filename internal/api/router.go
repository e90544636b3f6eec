// internal/api/router.go
package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"peerpay/internal/api/handler"
)

// NewRouter sets up and returns a new HTTP router.
func NewRouter(paymentHandler *handler.PaymentHandler, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	// Global middlewares
	r.Use(middleware.RequestID)                       // Add a request ID to the context
	r.Use(middleware.RealIP)                          // Use the real IP address
	r.Use(middleware.Logger)                          // Log HTTP requests
	r.Use(middleware.Recoverer)                       // Recover from panics and return 500
	r.Use(middleware.Timeout(handler.DefaultTimeout)) // Set a default timeout for requests

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	// Code-based payment matching
	r.Route("/payments/codes", func(r chi.Router) {
		r.Post("/", paymentHandler.GenerateCode)
		r.Post("/verify", paymentHandler.VerifyCode)
		r.Post("/{code}/confirm", paymentHandler.ConfirmPayment)
		r.Delete("/{code}", paymentHandler.CancelPayment)
		r.Get("/{code}/status", paymentHandler.GetPaymentStatus)
	})

	// Presence and nearby payment requests
	r.Route("/nearby", func(r chi.Router) {
		r.Post("/presence", paymentHandler.RegisterNearby)
		r.Post("/presence/heartbeat", paymentHandler.Heartbeat)
		r.Delete("/presence", paymentHandler.UnregisterNearby)
		r.Get("/users", paymentHandler.GetNearbyUsers)

		r.Post("/payments", paymentHandler.SendNearbyPayment)
		r.Get("/payments/pending", paymentHandler.GetPendingNearbyPayments)
		r.Post("/payments/{requestID}/respond", paymentHandler.RespondToNearbyPayment)
		r.Get("/payments/{requestID}/status", paymentHandler.GetNearbyPaymentStatus)
	})

	// Read-only wallet views; the ledger's mutating surface stays internal
	r.Route("/wallets", func(r chi.Router) {
		r.Get("/{principalID}/balances", paymentHandler.GetBalances)
		r.Get("/{principalID}/transactions", paymentHandler.GetTransactionHistory)
	})

	return r
}
