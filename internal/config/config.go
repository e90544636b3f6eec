// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"time"
)

// AppConfig holds all application-wide configurations.
type AppConfig struct {
	ServerPort      string
	CodeTTL         time.Duration // lifetime of a payment code
	RequestTTL      time.Duration // lifetime of a nearby payment request
	PresenceTimeout time.Duration // heartbeat staleness cutoff
	SettleDelay     time.Duration // delay before an accepted request auto-completes
}

// LoadConfig loads configuration from environment variables.
// It returns an AppConfig instance or an error if any variable is invalid.
func LoadConfig() (*AppConfig, error) {
	serverPort := os.Getenv("SERVER_PORT")
	if serverPort == "" {
		serverPort = "8080" // Default port
	}

	codeTTL, err := durationEnv("CODE_TTL", 10*time.Minute)
	if err != nil {
		return nil, err
	}
	requestTTL, err := durationEnv("REQUEST_TTL", 2*time.Minute)
	if err != nil {
		return nil, err
	}
	presenceTimeout, err := durationEnv("PRESENCE_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, err
	}
	settleDelay, err := durationEnv("SETTLE_DELAY", 2*time.Second)
	if err != nil {
		return nil, err
	}

	return &AppConfig{
		ServerPort:      serverPort,
		CodeTTL:         codeTTL,
		RequestTTL:      requestTTL,
		PresenceTimeout: presenceTimeout,
		SettleDelay:     settleDelay,
	}, nil
}

// durationEnv reads a duration-valued environment variable, falling back to
// def when unset.
func durationEnv(name string, def time.Duration) (time.Duration, error) {
	raw := os.Getenv(name)
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", name, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid %s: must be positive", name)
	}
	return d, nil
}
