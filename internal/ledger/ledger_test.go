// internal/ledger/ledger_test.go
package ledger

import (
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"peerpay/internal/domain"
	"peerpay/internal/util"
	"peerpay/pkg/clock"
)

func newTestLedger(t *testing.T) (*Ledger, *clock.Manual) {
	t.Helper()
	clk := clock.NewManual(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	return New(clk, slog.Default()), clk
}

func TestBalanceStartingAllocation(t *testing.T) {
	l, _ := newTestLedger(t)

	usd, err := l.Balance("alice", domain.CurrencyUSD)
	require.NoError(t, err)
	assert.True(t, usd.Equal(decimal.NewFromInt(10000)))

	btc, err := l.Balance("alice", domain.CurrencyBTC)
	require.NoError(t, err)
	assert.True(t, btc.Equal(decimal.NewFromFloat(0.5)))

	eur, err := l.Balance("alice", domain.CurrencyEUR)
	require.NoError(t, err)
	assert.True(t, eur.IsZero())

	_, err = l.Balance("alice", domain.Currency("DOGE"))
	assert.ErrorIs(t, err, util.ErrUnknownCurrency)
}

func TestDebitInsufficientFunds(t *testing.T) {
	l, _ := newTestLedger(t)

	// Starting BTC allocation is 0.5; a 1.0 debit must fail without any
	// balance mutation or history record.
	_, err := l.Debit("alice", domain.CurrencyBTC, decimal.NewFromInt(1), "", "")
	assert.ErrorIs(t, err, util.ErrInsufficientFunds)

	bal, err := l.Balance("alice", domain.CurrencyBTC)
	require.NoError(t, err)
	assert.True(t, bal.Equal(decimal.NewFromFloat(0.5)))
	assert.Empty(t, l.History("alice"))
}

func TestDebitAppendsRecord(t *testing.T) {
	l, _ := newTestLedger(t)

	tx, err := l.Debit("alice", domain.CurrencyUSD, decimal.NewFromFloat(10.00), "Bob", "lunch")
	require.NoError(t, err)
	assert.Equal(t, domain.TransactionDirectionDebit, tx.Direction)
	assert.Equal(t, domain.TransactionStatusCompleted, tx.Status)
	assert.Equal(t, "Bob", tx.Counterparty)

	bal, err := l.Balance("alice", domain.CurrencyUSD)
	require.NoError(t, err)
	assert.True(t, bal.Equal(decimal.NewFromFloat(9990.00)))

	history := l.History("alice")
	require.Len(t, history, 1)
	assert.Equal(t, tx.ID, history[0].ID)
}

func TestCreditAlwaysSucceeds(t *testing.T) {
	l, _ := newTestLedger(t)

	tx, err := l.Credit("bob", domain.CurrencyEUR, decimal.NewFromFloat(15.50), "Alice", "")
	require.NoError(t, err)
	assert.Equal(t, domain.TransactionDirectionCredit, tx.Direction)

	bal, err := l.Balance("bob", domain.CurrencyEUR)
	require.NoError(t, err)
	assert.True(t, bal.Equal(decimal.NewFromFloat(15.50)))
}

func TestAmountValidation(t *testing.T) {
	l, _ := newTestLedger(t)

	_, err := l.Credit("bob", domain.CurrencyUSD, decimal.Zero, "", "")
	assert.ErrorIs(t, err, util.ErrInvalidInput)

	_, err = l.Debit("bob", domain.CurrencyUSD, decimal.NewFromInt(-5), "", "")
	assert.ErrorIs(t, err, util.ErrInvalidInput)

	// An amount below the currency's storage scale truncates to zero.
	_, err = l.Credit("bob", domain.CurrencyUSD, decimal.NewFromFloat(0.004), "", "")
	assert.ErrorIs(t, err, util.ErrInvalidInput)
}

func TestTruncationAtStorage(t *testing.T) {
	l, _ := newTestLedger(t)

	// Fiat is stored to 2 decimal places, truncated rather than rounded.
	tx, err := l.Credit("carol", domain.CurrencyEUR, decimal.NewFromFloat(1.999), "", "")
	require.NoError(t, err)
	assert.True(t, tx.Amount.Equal(decimal.NewFromFloat(1.99)))

	bal, err := l.Balance("carol", domain.CurrencyEUR)
	require.NoError(t, err)
	assert.True(t, bal.Equal(decimal.NewFromFloat(1.99)))

	// Crypto keeps 8 decimal places.
	tx, err = l.Credit("carol", domain.CurrencySOL, decimal.RequireFromString("0.123456789"), "", "")
	require.NoError(t, err)
	assert.True(t, tx.Amount.Equal(decimal.RequireFromString("0.12345678")))
}

func TestTransfer(t *testing.T) {
	l, _ := newTestLedger(t)
	alice := domain.Principal{ID: "alice", DisplayName: "Alice"}
	bob := domain.Principal{ID: "bob", DisplayName: "Bob"}

	err := l.Transfer(alice, bob, domain.CurrencySOL, decimal.NewFromInt(25), "concert tickets")
	require.NoError(t, err)

	aliceBal, err := l.Balance("alice", domain.CurrencySOL)
	require.NoError(t, err)
	assert.True(t, aliceBal.Equal(decimal.NewFromInt(25)))

	bobBal, err := l.Balance("bob", domain.CurrencySOL)
	require.NoError(t, err)
	assert.True(t, bobBal.Equal(decimal.NewFromInt(75)))

	aliceHistory := l.History("alice")
	require.Len(t, aliceHistory, 1)
	assert.Equal(t, domain.TransactionDirectionDebit, aliceHistory[0].Direction)
	assert.Equal(t, "Bob", aliceHistory[0].Counterparty)

	bobHistory := l.History("bob")
	require.Len(t, bobHistory, 1)
	assert.Equal(t, domain.TransactionDirectionCredit, bobHistory[0].Direction)
	assert.Equal(t, "Alice", bobHistory[0].Counterparty)
}

func TestTransferInsufficientFundsLeavesBothSidesUntouched(t *testing.T) {
	l, _ := newTestLedger(t)
	alice := domain.Principal{ID: "alice", DisplayName: "Alice"}
	bob := domain.Principal{ID: "bob", DisplayName: "Bob"}

	err := l.Transfer(alice, bob, domain.CurrencyBTC, decimal.NewFromInt(2), "")
	assert.ErrorIs(t, err, util.ErrInsufficientFunds)

	assert.Empty(t, l.History("alice"))
	assert.Empty(t, l.History("bob"))
}

func TestTransferToSelf(t *testing.T) {
	l, _ := newTestLedger(t)
	alice := domain.Principal{ID: "alice", DisplayName: "Alice"}

	err := l.Transfer(alice, alice, domain.CurrencyUSD, decimal.NewFromInt(1), "")
	assert.ErrorIs(t, err, util.ErrSelfPay)
}

func TestHistoryReverseChronological(t *testing.T) {
	l, clk := newTestLedger(t)

	_, err := l.Credit("alice", domain.CurrencyUSD, decimal.NewFromInt(1), "", "first")
	require.NoError(t, err)
	clk.Advance(time.Second)
	_, err = l.Credit("alice", domain.CurrencyUSD, decimal.NewFromInt(2), "", "second")
	require.NoError(t, err)
	clk.Advance(time.Second)
	_, err = l.Debit("alice", domain.CurrencyUSD, decimal.NewFromInt(3), "", "third")
	require.NoError(t, err)

	history := l.History("alice")
	require.Len(t, history, 3)
	assert.Equal(t, "third", history[0].Note)
	assert.Equal(t, "second", history[1].Note)
	assert.Equal(t, "first", history[2].Note)
	assert.True(t, history[0].Timestamp.After(history[2].Timestamp))
}

func TestLedgerConsistency(t *testing.T) {
	l, _ := newTestLedger(t)

	// balance = starting + sum(credits) - sum(debits), one record per mutation.
	start := domain.CurrencyUSD.StartingAllocation()
	_, err := l.Credit("alice", domain.CurrencyUSD, decimal.NewFromFloat(100.25), "", "")
	require.NoError(t, err)
	_, err = l.Debit("alice", domain.CurrencyUSD, decimal.NewFromFloat(40.75), "", "")
	require.NoError(t, err)
	_, err = l.Debit("alice", domain.CurrencyUSD, decimal.NewFromFloat(9.50), "", "")
	require.NoError(t, err)

	want := start.Add(decimal.NewFromFloat(100.25)).
		Sub(decimal.NewFromFloat(40.75)).
		Sub(decimal.NewFromFloat(9.50))
	bal, err := l.Balance("alice", domain.CurrencyUSD)
	require.NoError(t, err)
	assert.True(t, bal.Equal(want))
	assert.Len(t, l.History("alice"), 3)
}

func TestConcurrentDebitsNeverOverdraw(t *testing.T) {
	l, _ := newTestLedger(t)

	// Starting USD allocation is 10000; fire 100 concurrent debits of 150.
	// At most 66 can succeed and the balance must never go negative.
	const workers = 100
	amount := decimal.NewFromInt(150)

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := l.Debit("alice", domain.CurrencyUSD, amount, "", ""); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 66, succeeded)
	bal, err := l.Balance("alice", domain.CurrencyUSD)
	require.NoError(t, err)
	assert.True(t, bal.GreaterThanOrEqual(decimal.Zero))
	assert.True(t, bal.Equal(decimal.NewFromInt(10000).Sub(amount.Mul(decimal.NewFromInt(66)))))
	assert.Len(t, l.History("alice"), 66)
}
