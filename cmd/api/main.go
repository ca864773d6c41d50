package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/mirandavel/tradepost-backend/api/controllers"
	"github.com/mirandavel/tradepost-backend/api/routes"
	"github.com/mirandavel/tradepost-backend/internal/fraud"
	"github.com/mirandavel/tradepost-backend/internal/reviews"
	"github.com/mirandavel/tradepost-backend/internal/scoreledger"
	"github.com/mirandavel/tradepost-backend/internal/signals"
	"github.com/mirandavel/tradepost-backend/pkg/config"
	"github.com/mirandavel/tradepost-backend/pkg/db"
	"github.com/mirandavel/tradepost-backend/pkg/logger"
	"github.com/mirandavel/tradepost-backend/pkg/metrics"
	"github.com/mirandavel/tradepost-backend/pkg/migrate"
	"github.com/mirandavel/tradepost-backend/pkg/outbox"
	"github.com/mirandavel/tradepost-backend/pkg/redis"
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

	cfg.Service.Kind = "api"

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

	registry := prometheus.NewRegistry()
	scoringMetrics := metrics.NewScoringMetrics(registry)

	signalsRepo := signals.NewRepository(dbClient.DB())
	prober := signals.NewCapabilityProber(dbClient.DB(), redisClient, cfg.Scoring.CapabilityCacheTTL, logg)
	collector, err := signals.NewCollector(signals.CollectorParams{
		Accounts:     signalsRepo,
		Reviews:      signalsRepo,
		Violations:   signalsRepo,
		Listings:     signalsRepo,
		Prober:       prober,
		Logger:       logg,
		QueryTimeout: cfg.DB.QueryTimeout,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to build signal collector", err)
		os.Exit(1)
	}

	emitter := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)

	scoreService, err := scoreledger.NewService(scoreledger.ServiceParams{
		Tx:             dbClient,
		Repo:           scoreledger.NewRepository(dbClient.DB()),
		Source:         collector,
		Emitter:        emitter,
		Metrics:        scoringMetrics,
		Logger:         logg,
		NotifyDeltaMin: cfg.Scoring.NotifyDeltaMin,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to build score ledger service", err)
		os.Exit(1)
	}

	reviewService, err := reviews.NewService(reviews.ServiceParams{
		Tx:        dbClient,
		Repo:      reviews.NewRepository(dbClient.DB()),
		Collector: collector,
		Scorer:    fraud.NewScorer(cfg.Scoring.FraudThreshold),
		Emitter:   emitter,
		Metrics:   scoringMetrics,
		Logger:    logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to build review service", err)
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
			Config:        cfg,
			Logger:        logg,
			ScoreService:  scoreService,
			ReviewService: reviewService,
			ReadyChecks: map[string]controllers.Pinger{
				"database": dbClient,
				"redis":    redisClient,
			},
			Metrics: registry,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
