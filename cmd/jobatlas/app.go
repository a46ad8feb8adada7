package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/amishk599/jobatlas/internal/analytics"
	"github.com/amishk599/jobatlas/internal/classifier"
	"github.com/amishk599/jobatlas/internal/config"
	"github.com/amishk599/jobatlas/internal/lock"
	"github.com/amishk599/jobatlas/internal/retry"
	"github.com/amishk599/jobatlas/internal/source"
	"github.com/amishk599/jobatlas/internal/store"
	"github.com/amishk599/jobatlas/internal/syncer"
)

// app holds the wired components shared by the commands.
type app struct {
	cfg        *config.Config
	store      *store.SQLiteStore
	classifier *classifier.Classifier
	computer   *analytics.Computer
	reader     *analytics.Reader
	syncer     *syncer.Syncer // nil unless built withSource

	pool  *pgxpool.Pool
	redis *redis.Client
}

// newApp opens the cache and builds the analytics read path. With withSource
// it also connects to the source database and wires a Syncer.
func newApp(ctx context.Context, cfg *config.Config, withSource bool, logger *slog.Logger) (*app, error) {
	st, err := store.NewSQLiteStore(cfg.Cache.Path)
	if err != nil {
		return nil, fmt.Errorf("opening cache: %w", err)
	}
	a := &app{cfg: cfg, store: st}

	cls, err := setupClassifier(cfg.Classifier.Dictionary, cfg.Classifier.LeadershipMinProfessional)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.classifier = cls
	a.computer = analytics.NewComputer(st, cls.Dictionary())
	a.reader = analytics.NewReader(a.computer, st)

	if !withSource {
		return a, nil
	}

	a.pool, err = source.NewPostgresPool(ctx, cfg.Source.DatabaseURL)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("connecting to source: %w", err)
	}
	src := retry.NewRetrySource(
		source.NewPostgresSource(a.pool, cfg.Source.Table, cfg.Source.QueryTimeout, logger),
		cfg.Retry.MaxRetries, cfg.Retry.BaseDelay, logger,
	)

	locker, err := a.setupLocker(ctx, logger)
	if err != nil {
		a.Close()
		return nil, err
	}

	httpClient := &http.Client{Timeout: 30 * time.Second}
	a.syncer = syncer.New(
		src,
		st,
		cls,
		analytics.NewPrecomputer(a.computer, st, cfg.Analytics.TTL, logger),
		locker,
		setupNotifier(cfg, httpClient, logger),
		syncer.Options{BatchSize: cfg.Sync.BatchSize, HQCountries: cfg.Sync.HQCountries},
		logger,
	)
	return a, nil
}

// setupLocker chains the in-process lock with a cross-process one: Redis when
// configured, otherwise the lease row in the cache database.
func (a *app) setupLocker(ctx context.Context, logger *slog.Logger) (lock.Locker, error) {
	if a.cfg.Lock.RedisURL == "" {
		return lock.Chain{lock.NewLocal(), lock.NewLease(a.store, a.cfg.Sync.LeaseTTL, logger)}, nil
	}
	client, err := lock.NewRedisClient(ctx, a.cfg.Lock.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}
	a.redis = client
	logger.Info("using redis sync lock", "key", a.cfg.Lock.Key)
	return lock.Chain{lock.NewLocal(), lock.NewRedis(client, a.cfg.Lock.Key, a.cfg.Sync.LeaseTTL, logger)}, nil
}

func (a *app) Close() {
	if a.redis != nil {
		a.redis.Close()
	}
	if a.pool != nil {
		a.pool.Close()
	}
	if a.store != nil {
		a.store.Close()
	}
}
