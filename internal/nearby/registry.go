// internal/nearby/registry.go
package nearby

import (
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"peerpay/internal/domain"
	"peerpay/internal/util"
	"peerpay/pkg/clock"
)

// Registry owns two-phase payment requests between a sender and a specific
// present principal: pending -> accepted -> completed, pending -> rejected,
// any state -> removed once the TTL elapses.
//
// After a successful acceptance the registry schedules a deferred transition
// to completed, modeling settlement latency. The task is bound to the request
// ID and re-checks state under the lock, so it is a no-op if the request was
// swept or already completed by the time it fires.
type Registry struct {
	mu          sync.Mutex
	clk         clock.Clock
	logger      *slog.Logger
	ttl         time.Duration
	settleDelay time.Duration
	requests    map[string]*domain.NearbyRequest
}

// NewRegistry creates an empty request registry. ttl bounds every request's
// lifetime; settleDelay is how long an accepted request waits before
// auto-completing.
func NewRegistry(clk clock.Clock, ttl, settleDelay time.Duration, logger *slog.Logger) *Registry {
	return &Registry{
		clk:         clk,
		logger:      logger,
		ttl:         ttl,
		settleDelay: settleDelay,
		requests:    make(map[string]*domain.NearbyRequest),
	}
}

// Create records a pending payment request snapshotting the sender's intent.
// Recipient presence is not validated here; the caller targets a principal it
// obtained from the presence registry.
func (r *Registry) Create(senderID, senderName, recipientID string, amount decimal.Decimal, currency domain.Currency, note string) (domain.NearbyRequest, error) {
	if !currency.Valid() {
		return domain.NearbyRequest{}, util.ErrUnknownCurrency
	}
	amount = currency.Truncate(amount)
	if amount.LessThanOrEqual(decimal.Zero) {
		return domain.NearbyRequest{}, util.ErrInvalidInput
	}
	if senderID == "" || recipientID == "" {
		return domain.NearbyRequest{}, util.ErrInvalidInput
	}
	if senderID == recipientID {
		return domain.NearbyRequest{}, util.ErrSelfPay
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.sweepLocked()

	request := domain.NewNearbyRequest(senderID, senderName, recipientID, amount, currency, note, r.clk.Now(), r.ttl)
	r.requests[request.ID] = &request

	r.logger.Info("nearby request created", "request", request.ID, "sender", senderID, "recipient", recipientID)
	return request, nil
}

// Respond resolves a pending request. Only the named recipient may transition
// it out of pending. On reject the request becomes terminal immediately. On
// accept, settle runs inside the critical section; only if it succeeds is the
// deferred completion scheduled, so a request whose settlement failed stays
// accepted until swept and never completes.
func (r *Registry) Respond(id, recipientID string, accept bool, settle func(domain.NearbyRequest) error) (domain.NearbyRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	request, ok := r.requests[id]
	if !ok {
		return domain.NearbyRequest{}, util.ErrNotFound
	}
	if r.clk.Now().After(request.ExpiresAt) {
		delete(r.requests, id)
		return domain.NearbyRequest{}, util.ErrExpired
	}
	if request.RecipientID != recipientID {
		return domain.NearbyRequest{}, util.ErrUnauthorized
	}
	if request.Status != domain.RequestStatusPending {
		return domain.NearbyRequest{}, util.ErrAlreadyTerminal
	}

	if !accept {
		request.Status = domain.RequestStatusRejected
		r.logger.Info("nearby request rejected", "request", id, "recipient", recipientID)
		return *request, nil
	}

	request.Status = domain.RequestStatusAccepted
	if settle != nil {
		if err := settle(*request); err != nil {
			r.logger.Info("nearby request settlement failed", "request", id, "error", err)
			return *request, err
		}
	}

	r.logger.Info("nearby request accepted", "request", id, "recipient", recipientID)
	time.AfterFunc(r.settleDelay, func() { r.complete(id) })
	return *request, nil
}

// Get returns a copy of the request for status polling.
func (r *Registry) Get(id string) (domain.NearbyRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sweepLocked()

	request, ok := r.requests[id]
	if !ok {
		return domain.NearbyRequest{}, util.ErrNotFound
	}
	return *request, nil
}

// PendingFor lists the live pending requests addressed to a recipient,
// oldest first.
func (r *Registry) PendingFor(recipientID string) []domain.NearbyRequest {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sweepLocked()

	out := make([]domain.NearbyRequest, 0)
	for _, request := range r.requests {
		if request.RecipientID == recipientID && request.Status == domain.RequestStatusPending {
			out = append(out, *request)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// complete is the deferred post-acceptance transition. It only fires on a
// request that is still present and still accepted.
func (r *Registry) complete(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	request, ok := r.requests[id]
	if !ok || request.Status != domain.RequestStatusAccepted {
		return
	}
	request.Status = domain.RequestStatusCompleted
	r.logger.Info("nearby request completed", "request", id)
}

// sweepLocked deletes every request whose TTL has elapsed, regardless of
// status.
func (r *Registry) sweepLocked() {
	now := r.clk.Now()
	for id, request := range r.requests {
		if now.After(request.ExpiresAt) {
			delete(r.requests, id)
		}
	}
}
