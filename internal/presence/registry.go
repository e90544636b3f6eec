// internal/presence/registry.go
package presence

import (
	"log/slog"
	"sort"
	"sync"
	"time"

	"peerpay/internal/domain"
	"peerpay/pkg/clock"
)

// Registry tracks which principals are currently discoverable. A record is
// live while now - lastSeenAt stays under the timeout; stale records are
// evicted by a sweep before every read, so liveness decays without any
// background timer.
type Registry struct {
	mu      sync.Mutex
	clk     clock.Clock
	logger  *slog.Logger
	timeout time.Duration
	records map[string]*domain.PresenceRecord
}

// NewRegistry creates an empty presence registry.
func NewRegistry(clk clock.Clock, timeout time.Duration, logger *slog.Logger) *Registry {
	return &Registry{
		clk:     clk,
		logger:  logger,
		timeout: timeout,
		records: make(map[string]*domain.PresenceRecord),
	}
}

// Announce makes the principal discoverable, upserting its record with a
// fresh lastSeenAt.
func (r *Registry) Announce(principalID, displayName, deviceLabel string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[principalID] = &domain.PresenceRecord{
		PrincipalID: principalID,
		DisplayName: displayName,
		DeviceLabel: deviceLabel,
		LastSeenAt:  r.clk.Now(),
	}
	r.logger.Info("presence announced", "principal", principalID, "device", deviceLabel)
}

// Heartbeat refreshes lastSeenAt for an existing record and reports whether
// one was found. It never resurrects a withdrawn or swept principal.
func (r *Registry) Heartbeat(principalID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	record, ok := r.records[principalID]
	if !ok {
		return false
	}
	if r.clk.Now().Sub(record.LastSeenAt) >= r.timeout {
		// Already stale; treat like a swept record.
		delete(r.records, principalID)
		return false
	}
	record.LastSeenAt = r.clk.Now()
	return true
}

// Withdraw removes the principal immediately, used when a participant leaves
// the discovery screen.
func (r *Registry) Withdraw(principalID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.records, principalID)
	r.logger.Info("presence withdrawn", "principal", principalID)
}

// ListPresent sweeps stale records and returns every live principal except
// excludeID, ordered by display name for stable output. SignalStrength decays
// linearly from 100 right after a heartbeat down to 0 at the timeout.
func (r *Registry) ListPresent(excludeID string) []domain.NearbyUser {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.clk.Now()
	r.sweepLocked(now)

	users := make([]domain.NearbyUser, 0, len(r.records))
	for _, record := range r.records {
		if record.PrincipalID == excludeID {
			continue
		}
		users = append(users, domain.NearbyUser{
			PrincipalID:    record.PrincipalID,
			DisplayName:    record.DisplayName,
			DeviceLabel:    record.DeviceLabel,
			SignalStrength: r.signalStrength(now.Sub(record.LastSeenAt)),
		})
	}
	sort.Slice(users, func(i, j int) bool { return users[i].DisplayName < users[j].DisplayName })
	return users
}

// signalStrength maps heartbeat recency onto a cosmetic 0-100 scale. It is
// monotonically decreasing in elapsed time, not a physical measurement.
func (r *Registry) signalStrength(elapsed time.Duration) int {
	if elapsed <= 0 {
		return 100
	}
	if elapsed >= r.timeout {
		return 0
	}
	return int(100 - elapsed*100/r.timeout)
}

func (r *Registry) sweepLocked(now time.Time) {
	for id, record := range r.records {
		if now.Sub(record.LastSeenAt) >= r.timeout {
			delete(r.records, id)
		}
	}
}
