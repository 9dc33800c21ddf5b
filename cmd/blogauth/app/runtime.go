package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/uptrace/bun"
	"go.uber.org/zap"

	auth "github.com/goliatone/go-blogauth"
	"github.com/goliatone/go-blogauth/activitymap"
	"github.com/goliatone/go-blogauth/config"
	"github.com/goliatone/go-blogauth/database"
)

// runtime is the set of shared services every command builds from config
type runtime struct {
	cfg      *config.Config
	logger   auth.Logger
	db       *bun.DB
	repo     auth.RepositoryManager
	registry *prometheus.Registry
	activity auth.ActivitySink
	closers  []func() error
}

func newRuntime(ctx context.Context, cfg *config.Config, zl *zap.Logger) (*runtime, error) {
	logger := auth.NewZapLogger(zl)

	dbOpts := []database.Option{database.WithDebug(cfg.Database.Debug)}
	if cfg.Database.Migrate {
		dbOpts = append(dbOpts, database.WithMigrations())
	}
	db, err := database.Open(ctx, cfg.Database.DSN, dbOpts...)
	if err != nil {
		return nil, err
	}

	rt := &runtime{
		cfg:      cfg,
		logger:   logger,
		db:       db,
		registry: prometheus.NewRegistry(),
		closers:  []func() error{db.Close},
	}

	var managerOpts []auth.ManagerOption
	if cfg.Sessions.Backend == config.SessionBackendRedis {
		sessions, err := auth.NewRedisSessions(ctx, cfg.RedisSessionConfig())
		if err != nil {
			_ = rt.Close()
			return nil, err
		}
		rt.closers = append(rt.closers, sessions.Close)
		managerOpts = append(managerOpts, auth.WithSessionRegistry(sessions))
		logger.Info("using redis session registry", "addr", cfg.Sessions.Redis.Addr)
	}

	rt.repo = auth.NewRepositoryManager(db, managerOpts...)
	if err := rt.repo.Validate(); err != nil {
		_ = rt.Close()
		return nil, err
	}

	rt.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics, err := auth.NewMetricsSink(rt.registry)
	if err != nil {
		_ = rt.Close()
		return nil, fmt.Errorf("metrics: %w", err)
	}
	rt.activity = auth.MultiSink(activitymap.NewLogSink(logger), metrics)

	return rt, nil
}

func (r *runtime) Close() error {
	var errs []error
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
