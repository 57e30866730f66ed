package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kq-050/ArtmarketPlace/api/routes"
	"github.com/kq-050/ArtmarketPlace/internal/audit"
	"github.com/kq-050/ArtmarketPlace/internal/commission"
	"github.com/kq-050/ArtmarketPlace/internal/invoices"
	"github.com/kq-050/ArtmarketPlace/internal/notifications"
	"github.com/kq-050/ArtmarketPlace/internal/orders"
	"github.com/kq-050/ArtmarketPlace/internal/settlement"
	stripewebhook "github.com/kq-050/ArtmarketPlace/internal/webhooks/stripe"
	"github.com/kq-050/ArtmarketPlace/pkg/config"
	"github.com/kq-050/ArtmarketPlace/pkg/db"
	"github.com/kq-050/ArtmarketPlace/pkg/logger"
	"github.com/kq-050/ArtmarketPlace/pkg/metrics"
	"github.com/kq-050/ArtmarketPlace/pkg/migrate"
	"github.com/kq-050/ArtmarketPlace/pkg/redis"
	"github.com/kq-050/ArtmarketPlace/pkg/stripe"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	stripeClient, err := stripe.NewClient(context.Background(), cfg.Stripe, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap stripe client", err)
		os.Exit(1)
	}

	mailer, err := notifications.NewSendgridMailer(cfg.Sendgrid.APIKey, cfg.Sendgrid.DefaultFrom, cfg.App.OperatorName)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap mailer", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	settlementMetrics := metrics.NewSettlementMetrics(registry)

	rateService, err := commission.NewConfigService(
		commission.NewConfigRepository(dbClient.DB()),
		cfg.Commission.DefaultRate,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create commission service", err)
		os.Exit(1)
	}

	recorder := audit.NewRecorder(dbClient.DB(), logg)
	dispatcher := notifications.NewDispatcher(mailer, logg, cfg.Sendgrid.OperatorEmail, cfg.App.OperatorName)

	settlementService := settlement.NewService(
		dbClient,
		orders.NewRepository(dbClient.DB()),
		rateService,
		recorder,
		invoices.NewRenderer(cfg.App.OperatorName),
		invoices.NewStore(cfg.Invoice.Dir),
		dispatcher,
		settlementMetrics,
		logg,
	)

	webhookService, err := stripewebhook.NewService(stripewebhook.ServiceParams{
		Settler:   settlementService,
		LineItems: stripeClient,
		Log:       logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create webhook service", err)
		os.Exit(1)
	}

	webhookGuard, err := stripewebhook.NewIdempotencyGuard(redisClient, cfg.Stripe.EventGuardTTL, "stripe-webhook")
	if err != nil {
		logg.Error(context.Background(), "failed to create webhook guard", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.RouterParams{
			Config:         cfg,
			Log:            logg,
			DBPinger:       dbClient,
			RedisPinger:    redisClient,
			CommissionSvc:  rateService,
			Recorder:       recorder,
			StripeClient:   stripeClient,
			WebhookService: webhookService,
			WebhookGuard:   webhookGuard,
			MetricsHandler: promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
