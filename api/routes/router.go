package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kq-050/ArtmarketPlace/api/controllers"
	webhookcontrollers "github.com/kq-050/ArtmarketPlace/api/controllers/webhooks"
	"github.com/kq-050/ArtmarketPlace/api/middleware"
	"github.com/kq-050/ArtmarketPlace/internal/audit"
	"github.com/kq-050/ArtmarketPlace/internal/commission"
	stripewebhook "github.com/kq-050/ArtmarketPlace/internal/webhooks/stripe"
	"github.com/kq-050/ArtmarketPlace/pkg/config"
	"github.com/kq-050/ArtmarketPlace/pkg/logger"
	"github.com/kq-050/ArtmarketPlace/pkg/stripe"
)

// RouterParams bundles everything the HTTP surface needs.
type RouterParams struct {
	Config         *config.Config
	Log            *logger.Logger
	DBPinger       controllers.Pinger
	RedisPinger    controllers.Pinger
	CommissionSvc  commission.ConfigService
	Recorder       *audit.Recorder
	StripeClient   *stripe.Client
	WebhookService *stripewebhook.Service
	WebhookGuard   *stripewebhook.IdempotencyGuard
	MetricsHandler http.Handler
}

func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	logg := params.Log
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(params.Config))
		r.Get("/ready", controllers.HealthReady(params.Config, logg, map[string]controllers.Pinger{
			"database": params.DBPinger,
			"redis":    params.RedisPinger,
		}))
	})

	if params.MetricsHandler != nil {
		r.Handle("/metrics", params.MetricsHandler)
	}

	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Post("/stripe", webhookcontrollers.StripeWebhook(
			params.WebhookService, params.StripeClient, params.WebhookGuard, logg))
	})

	r.Route("/api/v1/admin", func(r chi.Router) {
		r.Get("/commission", controllers.AdminGetCommission(params.CommissionSvc, logg))
		r.Put("/commission", controllers.AdminUpdateCommission(params.CommissionSvc, params.Recorder, logg))
	})

	return r
}
