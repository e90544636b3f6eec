// internal/app.go
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	router "peerpay/internal/api"
	"peerpay/internal/api/handler"
	"peerpay/internal/codematch"
	"peerpay/internal/config"
	"peerpay/internal/ledger"
	"peerpay/internal/nearby"
	"peerpay/internal/presence"
	"peerpay/internal/service"
	"peerpay/internal/util"
	"peerpay/pkg/clock"
)

// Application holds all the initialized components of the application.
type Application struct {
	Config *config.AppConfig
	Logger *slog.Logger
	Clock  clock.Clock

	// Registries
	Ledger           *ledger.Ledger
	CodeRegistry     *codematch.Registry
	PresenceRegistry *presence.Registry
	NearbyRegistry   *nearby.Registry

	// Services
	PaymentService service.PaymentService

	// HTTP API
	HTTPHandler http.Handler
}

// NewApplication creates a new Application instance.
func NewApplication() *Application {
	return &Application{}
}

// Initialize initializes all application components.
func (app *Application) Initialize(ctx context.Context) error {
	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	app.Config = cfg

	// 2. Initialize Logger
	util.InitLogger()
	app.Logger = util.GetLogger()
	app.Logger.Info("Application configuration loaded successfully.")

	// 3. Initialize Clock and Registries
	app.Clock = clock.System()
	app.Ledger = ledger.New(app.Clock, app.Logger)
	app.CodeRegistry = codematch.NewRegistry(app.Clock, cfg.CodeTTL, app.Logger)
	app.PresenceRegistry = presence.NewRegistry(app.Clock, cfg.PresenceTimeout, app.Logger)
	app.NearbyRegistry = nearby.NewRegistry(app.Clock, cfg.RequestTTL, cfg.SettleDelay, app.Logger)
	app.Logger.Info("Registries initialized.",
		"code_ttl", cfg.CodeTTL.String(),
		"request_ttl", cfg.RequestTTL.String(),
		"presence_timeout", cfg.PresenceTimeout.String(),
	)

	// 4. Initialize Services
	app.PaymentService = service.NewPaymentService(
		app.Ledger,
		app.CodeRegistry,
		app.PresenceRegistry,
		app.NearbyRegistry,
		app.Logger,
	)
	app.Logger.Info("Services initialized.")

	// 5. Initialize HTTP Handlers and Router
	paymentHandler := handler.NewPaymentHandler(app.PaymentService, app.Logger)
	app.HTTPHandler = router.NewRouter(paymentHandler, app.Logger)
	app.Logger.Info("HTTP router and handlers initialized.")

	return nil
}

// Shutdown gracefully shuts down application resources. State is held
// entirely in memory, so there is nothing to flush or close.
func (app *Application) Shutdown(ctx context.Context) error {
	app.Logger.Info("Application shut down gracefully.")
	return nil
}
