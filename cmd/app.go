package main

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"jobmate/govjobs-service/internal/config"
	"jobmate/govjobs-service/internal/db"
	"jobmate/govjobs-service/internal/events"
	"jobmate/govjobs-service/internal/geocode"
	"jobmate/govjobs-service/internal/logging"
	"jobmate/govjobs-service/internal/model"
	"jobmate/govjobs-service/internal/scraper"
	"jobmate/govjobs-service/internal/search"
	"jobmate/govjobs-service/internal/store"
	"jobmate/govjobs-service/internal/store/memory"
)

// backend is everything the commands need from a store driver.
type backend interface {
	scraper.JobWriter
	scraper.SourceRegistry
	search.Store
	geocode.Durable
	ListSources(ctx context.Context) ([]model.JobSource, error)
	UpsertSource(ctx context.Context, src *model.JobSource) (bool, error)
	Ping(ctx context.Context) error
}

// app holds the process-wide dependencies shared by the commands.
type app struct {
	cfg     *config.Config
	store   backend
	rdb     *redis.Client
	closers []func()
}

// setup loads config, installs the logger and connects the store driver
// (and Redis when configured).
func setup(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	logging.Init(cfg.LogLevel)
	log := zap.S().Named("main")

	a := &app{cfg: cfg}

	switch cfg.StoreDriver {
	case config.StoreDriverMemory:
		log.Warn("using in-memory store, data is lost on exit")
		a.store = memory.New()
	default:
		log.Info("connecting to PostgreSQL")
		pool, err := db.NewPostgresPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("postgres: %w", err)
		}
		a.closers = append(a.closers, pool.Close)
		log.Info("PostgreSQL connected")

		if cfg.RunMigrationsOnStart {
			if err := db.Migrate(ctx, pool); err != nil {
				a.close()
				return nil, fmt.Errorf("migrate: %w", err)
			}
		}
		a.store = store.New(pool)
	}

	if cfg.RedisURL != "" {
		log.Info("connecting to Redis")
		rdb, err := db.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			a.close()
			return nil, fmt.Errorf("redis: %w", err)
		}
		a.rdb = rdb
		a.closers = append(a.closers, func() { _ = rdb.Close() })
		log.Info("Redis connected")
	}
	return a, nil
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	_ = zap.L().Sync()
}

func (a *app) ingestor() *scraper.Ingestor {
	c := a.cfg.Ingest
	fetcher := scraper.NewFetcher(c.FetchTimeout, c.UserAgent, c.FetchRPSPerHost)
	worker := scraper.NewWorker(scraper.DefaultRegistry(fetcher), a.store)
	return scraper.NewIngestor(a.store, worker, events.NewPublisher(a.rdb), c.Workers, c.SourceTimeout)
}

func (a *app) geocodeCache() *geocode.Cache {
	c := a.cfg.Geocode
	provider := geocode.NewNominatimProvider(c.ProviderURL, a.cfg.Ingest.UserAgent, c.Timeout, c.RPS)
	return geocode.NewCache(a.store, a.rdb, provider, c.CacheTTL)
}

// syncSources upserts every source in the file, matched by name.
func (a *app) syncSources(ctx context.Context, path string) error {
	srcs, err := config.LoadSources(path)
	if err != nil {
		return err
	}
	log := zap.S().Named("sources")
	for i := range srcs {
		created, err := a.store.UpsertSource(ctx, &srcs[i])
		if err != nil {
			return fmt.Errorf("upsert source %q: %w", srcs[i].Name, err)
		}
		log.Infow("source synced", "name", srcs[i].Name, "id", srcs[i].ID, "type", srcs[i].Type, "active", srcs[i].Active, "created", created)
	}
	log.Infow("sources file applied", "file", path, "count", len(srcs))
	return nil
}
