// internal/service/payment_service_test.go
package service

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"peerpay/internal/codematch"
	"peerpay/internal/domain"
	"peerpay/internal/ledger"
	"peerpay/internal/nearby"
	"peerpay/internal/presence"
	"peerpay/internal/util"
	"peerpay/pkg/clock"
)

func newTestService(t *testing.T) (PaymentService, *clock.Manual) {
	t.Helper()
	clk := clock.NewManual(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	logger := slog.Default()
	svc := NewPaymentService(
		ledger.New(clk, logger),
		codematch.NewRegistry(clk, 10*time.Minute, logger),
		presence.NewRegistry(clk, 30*time.Second, logger),
		nearby.NewRegistry(clk, 2*time.Minute, 5*time.Millisecond, logger),
		logger,
	)
	return svc, clk
}

// A sender generates a code for 10.00 USD, a different recipient redeems and
// confirms it, and the transfer lands on both ledgers exactly once.
func TestCodePaymentFlow(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	code, err := svc.GenerateCode(ctx, "alice", "Alice", decimal.NewFromFloat(10.00), domain.CurrencyUSD, "lunch")
	require.NoError(t, err)

	redeemed, err := svc.VerifyCode(ctx, code.Code, "bob", "Bob")
	require.NoError(t, err)
	assert.True(t, redeemed.Amount.Equal(decimal.NewFromFloat(10.00)))
	assert.Equal(t, domain.CurrencyUSD, redeemed.Currency)
	assert.Equal(t, "lunch", redeemed.Note)

	confirmed, err := svc.ConfirmPayment(ctx, code.Code, "bob")
	require.NoError(t, err)
	assert.Equal(t, domain.CodeStatusCompleted, confirmed.Status)

	// A second redeem attempt is rejected.
	_, err = svc.VerifyCode(ctx, code.Code, "carol", "Carol")
	assert.ErrorIs(t, err, util.ErrAlreadyUsed)

	aliceBal := svc.GetBalances(ctx, "alice")[domain.CurrencyUSD]
	bobBal := svc.GetBalances(ctx, "bob")[domain.CurrencyUSD]
	assert.True(t, aliceBal.Equal(decimal.NewFromFloat(9990.00)))
	assert.True(t, bobBal.Equal(decimal.NewFromFloat(10010.00)))

	aliceHistory := svc.GetTransactionHistory(ctx, "alice")
	require.Len(t, aliceHistory, 1)
	assert.Equal(t, domain.TransactionDirectionDebit, aliceHistory[0].Direction)
	assert.Equal(t, "Bob", aliceHistory[0].Counterparty)
}

// Confirming twice must not settle twice.
func TestConfirmPaymentIdempotent(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	code, err := svc.GenerateCode(ctx, "alice", "Alice", decimal.NewFromFloat(10.00), domain.CurrencyUSD, "")
	require.NoError(t, err)
	_, err = svc.VerifyCode(ctx, code.Code, "bob", "Bob")
	require.NoError(t, err)

	_, err = svc.ConfirmPayment(ctx, code.Code, "bob")
	require.NoError(t, err)
	_, err = svc.ConfirmPayment(ctx, code.Code, "bob")
	require.NoError(t, err)

	assert.True(t, svc.GetBalances(ctx, "alice")[domain.CurrencyUSD].Equal(decimal.NewFromFloat(9990.00)))
	assert.Len(t, svc.GetTransactionHistory(ctx, "alice"), 1)
}

// A confirm whose transfer cannot be funded leaves the code matched and both
// ledgers untouched.
func TestConfirmPaymentInsufficientFunds(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	// Starting BTC allocation is 0.5; promising 2 BTC cannot settle.
	code, err := svc.GenerateCode(ctx, "alice", "Alice", decimal.NewFromInt(2), domain.CurrencyBTC, "")
	require.NoError(t, err)
	_, err = svc.VerifyCode(ctx, code.Code, "bob", "Bob")
	require.NoError(t, err)

	_, err = svc.ConfirmPayment(ctx, code.Code, "bob")
	assert.ErrorIs(t, err, util.ErrInsufficientFunds)

	status, err := svc.GetPaymentStatus(ctx, code.Code)
	require.NoError(t, err)
	assert.Equal(t, domain.CodeStatusMatched, status.Status)
	assert.Empty(t, svc.GetTransactionHistory(ctx, "alice"))
	assert.Empty(t, svc.GetTransactionHistory(ctx, "bob"))
}

// Redeeming one's own code is always rejected.
func TestVerifyCodeSelfPay(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	code, err := svc.GenerateCode(ctx, "alice", "Alice", decimal.NewFromFloat(5), domain.CurrencyEUR, "")
	require.NoError(t, err)

	_, err = svc.VerifyCode(ctx, code.Code, "alice", "Alice")
	assert.ErrorIs(t, err, util.ErrSelfPay)
}

// After the TTL passes, redemption reports expiry and the code disappears.
func TestCodeExpiry(t *testing.T) {
	svc, clk := newTestService(t)
	ctx := context.Background()

	code, err := svc.GenerateCode(ctx, "alice", "Alice", decimal.NewFromFloat(10.00), domain.CurrencyUSD, "")
	require.NoError(t, err)

	clk.Advance(11 * time.Minute)

	_, err = svc.VerifyCode(ctx, code.Code, "bob", "Bob")
	assert.ErrorIs(t, err, util.ErrExpired)

	_, err = svc.GetPaymentStatus(ctx, code.Code)
	assert.ErrorIs(t, err, util.ErrNotFound)
}

// A sends B a nearby request for 25 SOL; B accepts; the request runs
// pending -> accepted -> completed and 25 SOL moves from A to B.
func TestNearbyPaymentAccept(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	svc.RegisterNearby(ctx, "bob", "Bob", "iPhone 16")
	users := svc.GetNearbyUsers(ctx, "alice")
	require.Len(t, users, 1)

	request, err := svc.SendNearbyPayment(ctx, "alice", "Alice", users[0].PrincipalID, decimal.NewFromInt(25), domain.CurrencySOL, "tickets")
	require.NoError(t, err)
	assert.Equal(t, domain.RequestStatusPending, request.Status)

	pending := svc.GetPendingNearbyPayments(ctx, "bob")
	require.Len(t, pending, 1)
	assert.Equal(t, request.ID, pending[0].ID)

	responded, err := svc.RespondToNearbyPayment(ctx, request.ID, "bob", "Bob", true)
	require.NoError(t, err)
	assert.Equal(t, domain.RequestStatusAccepted, responded.Status)

	assert.Eventually(t, func() bool {
		status, err := svc.GetNearbyPaymentStatus(ctx, request.ID)
		return err == nil && status.Status == domain.RequestStatusCompleted
	}, time.Second, time.Millisecond)

	assert.True(t, svc.GetBalances(ctx, "alice")[domain.CurrencySOL].Equal(decimal.NewFromInt(25)))
	assert.True(t, svc.GetBalances(ctx, "bob")[domain.CurrencySOL].Equal(decimal.NewFromInt(75)))

	bobHistory := svc.GetTransactionHistory(ctx, "bob")
	require.Len(t, bobHistory, 1)
	assert.Equal(t, domain.TransactionDirectionCredit, bobHistory[0].Direction)
	assert.Equal(t, "Alice", bobHistory[0].Counterparty)
}

// A rejection is terminal and moves no money.
func TestNearbyPaymentReject(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	request, err := svc.SendNearbyPayment(ctx, "alice", "Alice", "bob", decimal.NewFromInt(25), domain.CurrencySOL, "")
	require.NoError(t, err)

	responded, err := svc.RespondToNearbyPayment(ctx, request.ID, "bob", "Bob", false)
	require.NoError(t, err)
	assert.Equal(t, domain.RequestStatusRejected, responded.Status)

	assert.Empty(t, svc.GetTransactionHistory(ctx, "alice"))
	assert.Empty(t, svc.GetTransactionHistory(ctx, "bob"))
	assert.True(t, svc.GetBalances(ctx, "alice")[domain.CurrencySOL].Equal(decimal.NewFromInt(50)))
}

// Presence decays without heartbeats and withdrawal is immediate.
func TestPresenceLifecycle(t *testing.T) {
	svc, clk := newTestService(t)
	ctx := context.Background()

	svc.RegisterNearby(ctx, "alice", "Alice", "Pixel 9")

	clk.Advance(29 * time.Second)
	require.Len(t, svc.GetNearbyUsers(ctx, "bob"), 1)

	clk.Advance(2 * time.Second)
	assert.Empty(t, svc.GetNearbyUsers(ctx, "bob"))

	svc.RegisterNearby(ctx, "alice", "Alice", "Pixel 9")
	assert.True(t, svc.Heartbeat(ctx, "alice"))
	svc.UnregisterNearby(ctx, "alice")
	assert.False(t, svc.Heartbeat(ctx, "alice"))
}
