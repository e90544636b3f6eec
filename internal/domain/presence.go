// internal/domain/presence.go
package domain

import "time"

// PresenceRecord is a time-bounded liveness claim. A record is live while
// now - LastSeenAt stays under the presence timeout; stale records are evicted
// by a sweep before every read.
type PresenceRecord struct {
	PrincipalID string    `json:"principal_id"`
	DisplayName string    `json:"display_name"`
	DeviceLabel string    `json:"device_label"`
	LastSeenAt  time.Time `json:"last_seen_at"`
}

// NearbyUser is the query view of a live PresenceRecord. SignalStrength is a
// derived function of heartbeat recency, not a physical measurement; it exists
// purely for the caller's UI.
type NearbyUser struct {
	PrincipalID    string `json:"principal_id"`
	DisplayName    string `json:"display_name"`
	DeviceLabel    string `json:"device_label"`
	SignalStrength int    `json:"signal_strength"`
}
