package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mirandavel/tradepost-backend/internal/recompute"
	"github.com/mirandavel/tradepost-backend/pkg/config"
	"github.com/mirandavel/tradepost-backend/pkg/db"
	"github.com/mirandavel/tradepost-backend/pkg/logger"
	"github.com/mirandavel/tradepost-backend/pkg/pubsub"
	"github.com/mirandavel/tradepost-backend/pkg/redis"
)

type ServiceParams struct {
	Config     *config.Config
	Logger     *logger.Logger
	DB         *db.Client
	Redis      *redis.Client
	PubSub     *pubsub.Client
	Consumer   *recompute.Consumer
	Dispatcher *recompute.Dispatcher
	Backfill   *recompute.Backfill
}

type Service struct {
	cfg        *config.Config
	logg       *logger.Logger
	db         *db.Client
	redis      *redis.Client
	pubsub     *pubsub.Client
	consumer   *recompute.Consumer
	dispatcher *recompute.Dispatcher
	backfill   *recompute.Backfill
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Config == nil {
		return nil, errors.New("config is required")
	}
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if params.DB == nil {
		return nil, errors.New("database client is required")
	}
	if params.Redis == nil {
		return nil, errors.New("redis client is required")
	}
	if params.PubSub == nil {
		return nil, errors.New("pubsub client is required")
	}
	if params.Consumer == nil {
		return nil, errors.New("recompute consumer is required")
	}
	if params.Dispatcher == nil {
		return nil, errors.New("recompute dispatcher is required")
	}
	if params.Backfill == nil {
		return nil, errors.New("backfill job is required")
	}

	return &Service{
		cfg:        params.Config,
		logg:       params.Logger,
		db:         params.DB,
		redis:      params.Redis,
		pubsub:     params.PubSub,
		consumer:   params.Consumer,
		dispatcher: params.Dispatcher,
		backfill:   params.Backfill,
	}, nil
}

func (s *Service) ensureReadiness(ctx context.Context) error {
	if err := pingDependency(ctx, s.logg, "database", s.db.Ping); err != nil {
		return err
	}
	if err := pingDependency(ctx, s.logg, "redis", s.redis.Ping); err != nil {
		return err
	}
	if err := pingDependency(ctx, s.logg, "pubsub", s.pubsub.Ping); err != nil {
		return err
	}
	s.logg.Info(ctx, "all worker dependencies are ready")
	return nil
}

func pingDependency(ctx context.Context, logg *logger.Logger, name string, fn func(context.Context) error) error {
	if err := fn(ctx); err != nil {
		logg.Error(ctx, fmt.Sprintf("%s ping failed", name), err)
		return fmt.Errorf("%s ping failed: %w", name, err)
	}
	return nil
}

func (s *Service) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	if err := s.ensureReadiness(ctx); err != nil {
		return err
	}

	s.dispatcher.Start(ctx)
	defer s.dispatcher.Wait()

	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.consumer.Run(ctx)
	}()

	for {
		select {
		case <-ctx.Done():
			s.logg.Info(ctx, "worker context canceled")
			return ctx.Err()
		case err := <-errCh:
			if err != nil && !errors.Is(err, context.Canceled) {
				s.logg.Error(ctx, "consumer stopped unexpectedly", err)
				return err
			}
			return err
		case <-ticker.C:
		}
	}
}

// RunBackfill executes a single full-sweep recompute and returns. The run
// is skipped when another worker holds the backfill lock.
func (s *Service) RunBackfill(ctx context.Context) error {
	if err := s.ensureReadiness(ctx); err != nil {
		return err
	}

	summary, err := s.backfill.Run(ctx)
	if err != nil {
		return err
	}
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"processed": summary.Processed,
		"changed":   summary.Changed,
		"failed":    summary.Failed,
	}), "backfill complete")
	return nil
}
