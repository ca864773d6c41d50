package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/mirandavel/tradepost-backend/internal/recompute"
	"github.com/mirandavel/tradepost-backend/internal/reviews"
	"github.com/mirandavel/tradepost-backend/internal/scoreledger"
	"github.com/mirandavel/tradepost-backend/internal/signals"
	"github.com/mirandavel/tradepost-backend/pkg/config"
	"github.com/mirandavel/tradepost-backend/pkg/db"
	"github.com/mirandavel/tradepost-backend/pkg/logger"
	"github.com/mirandavel/tradepost-backend/pkg/metrics"
	"github.com/mirandavel/tradepost-backend/pkg/migrate"
	"github.com/mirandavel/tradepost-backend/pkg/outbox"
	"github.com/mirandavel/tradepost-backend/pkg/outbox/idempotency"
	"github.com/mirandavel/tradepost-backend/pkg/pubsub"
	"github.com/mirandavel/tradepost-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "worker"})

	backfillOnly := flag.Bool("backfill", false, "run a one-shot score backfill and exit")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "worker"

	logg = logger.New(logger.Options{
		ServiceName: "worker",
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
			logg.Error(context.Background(), "error closing redis client", err)
		}
	}()

	pubsubClient, err := pubsub.NewClient(context.Background(), cfg.GCP, cfg.PubSub, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap pubsub", err)
		os.Exit(1)
	}
	defer func() {
		if err := pubsubClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing pubsub client", err)
		}
	}()

	scoringMetrics := metrics.NewScoringMetrics(prometheus.NewRegistry())

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
	ledger, err := scoreledger.NewService(scoreledger.ServiceParams{
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

	dispatcher, err := recompute.NewDispatcher(recompute.DispatcherParams{
		Ledger:        ledger,
		Metrics:       scoringMetrics,
		Logger:        logg,
		Workers:       cfg.Scoring.DispatcherWorkers,
		QueueCapacity: cfg.Scoring.QueueCapacity,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to build recompute dispatcher", err)
		os.Exit(1)
	}

	manager, err := idempotency.NewManager(redisClient, cfg.Outbox.IdempotencyTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to build idempotency manager", err)
		os.Exit(1)
	}

	reviewRepo := reviews.NewRepository(dbClient.DB())
	consumer, err := recompute.NewConsumer(pubsubClient.ScoringSubscription(), dispatcher, reviewRepo, manager, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to build recompute consumer", err)
		os.Exit(1)
	}

	lock, err := recompute.NewRedisLock(redisClient, redisClient.LockKey("score_backfill"), cfg.Scoring.BackfillLockTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to build backfill lock", err)
		os.Exit(1)
	}
	backfill, err := recompute.NewBackfill(recompute.BackfillParams{
		Accounts:  signalsRepo,
		Ledger:    ledger,
		Lock:      lock,
		Logger:    logg,
		BatchSize: cfg.Scoring.BackfillBatchSize,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to build backfill job", err)
		os.Exit(1)
	}

	service, err := NewService(ServiceParams{
		Config:     cfg,
		Logger:     logg,
		DB:         dbClient,
		Redis:      redisClient,
		PubSub:     pubsubClient,
		Consumer:   consumer,
		Dispatcher: dispatcher,
		Backfill:   backfill,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create worker", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": "worker",
	})

	if *backfillOnly {
		logg.Info(ctx, "starting score backfill")
		if err := service.RunBackfill(ctx); err != nil {
			logg.Error(ctx, "backfill failed", err)
			os.Exit(1)
		}
		return
	}

	logg.Info(ctx, "starting worker")
	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "worker shutting down gracefully")
}
