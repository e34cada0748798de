// Package featurebackend opens the feature.Lookup selected by configuration.
package featurebackend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dmitrymomot/featureflag/pkg/config"
	"github.com/dmitrymomot/featureflag/pkg/dynamodb"
	"github.com/dmitrymomot/featureflag/pkg/etcd"
	"github.com/dmitrymomot/featureflag/pkg/feature"
	"github.com/dmitrymomot/featureflag/pkg/logger"
	"github.com/dmitrymomot/featureflag/pkg/mongo"
	"github.com/dmitrymomot/featureflag/pkg/pg"
	"github.com/dmitrymomot/featureflag/pkg/redis"
)

// Backend names accepted by FEATURE_BACKEND.
const (
	Memory   = "memory"
	Redis    = "redis"
	Postgres = "postgres"
	Mongo    = "mongo"
	DynamoDB = "dynamodb"
	Etcd     = "etcd"
)

var ErrUnknownBackend = errors.New("featurebackend: unknown backend")

type Config struct {
	Backend string `env:"FEATURE_BACKEND" envDefault:"memory"` // Backend is one of memory, redis, postgres, mongo, dynamodb or etcd.
}

// Backend is an opened store.
type Backend struct {
	Name        string
	Lookup      feature.Lookup
	Healthcheck func(context.Context) error
	close       func(context.Context) error
}

// Close releases the connection. It is safe to call on a memory backend.
func (b *Backend) Close(ctx context.Context) error {
	if b.close == nil {
		return nil
	}
	return b.close(ctx)
}

// Opener builds one kind of backend. The per-backend settings are read from
// the environment by the opener itself.
type Opener func(ctx context.Context, log *slog.Logger, opts ...config.Option) (*Backend, error)

var openers = map[string]Opener{
	Memory:   openMemory,
	Redis:    openRedis,
	Postgres: openPostgres,
	Mongo:    openMongo,
	DynamoDB: openDynamoDB,
	Etcd:     openEtcd,
}

// Names lists the accepted backend names.
func Names() []string {
	return []string{Memory, Redis, Postgres, Mongo, DynamoDB, Etcd}
}

// Open connects to the backend named by cfg.Backend. opts are passed to
// config.Load for the backend-specific settings.
func Open(ctx context.Context, cfg Config, log *slog.Logger, opts ...config.Option) (*Backend, error) {
	if log == nil {
		log = slog.Default()
	}
	name := strings.ToLower(strings.TrimSpace(cfg.Backend))
	if name == "" {
		name = Memory
	}
	open, ok := openers[name]
	if !ok {
		return nil, errors.Join(feature.ErrConfiguration, ErrUnknownBackend,
			fmt.Errorf("%q, expected one of %s", cfg.Backend, strings.Join(Names(), ", ")))
	}

	b, err := open(ctx, log, opts...)
	if err != nil {
		return nil, fmt.Errorf("open %s backend: %w", name, err)
	}
	b.Name = name
	log.InfoContext(ctx, "feature backend opened", logger.Backend(name))
	return b, nil
}

func openMemory(context.Context, *slog.Logger, ...config.Option) (*Backend, error) {
	lookup, err := feature.NewMemoryLookup(nil)
	if err != nil {
		return nil, err
	}
	return &Backend{Lookup: lookup}, nil
}

func openRedis(ctx context.Context, _ *slog.Logger, opts ...config.Option) (*Backend, error) {
	var cfg redis.Config
	if err := config.Load(&cfg, opts...); err != nil {
		return nil, err
	}
	client, err := redis.Connect(ctx, cfg)
	if err != nil {
		return nil, err
	}
	lookup, err := redis.NewLookup(client, cfg.KeyPrefix)
	if err != nil {
		_ = client.Close()
		return nil, err
	}
	return &Backend{
		Lookup:      lookup,
		Healthcheck: redis.Healthcheck(client),
		close:       func(context.Context) error { return client.Close() },
	}, nil
}

func openPostgres(ctx context.Context, log *slog.Logger, opts ...config.Option) (*Backend, error) {
	var cfg pg.Config
	if err := config.Load(&cfg, opts...); err != nil {
		return nil, err
	}
	pool, err := pg.Connect(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := pg.Migrate(ctx, pool, cfg, log); err != nil {
		pool.Close()
		return nil, err
	}
	lookup, err := pg.NewLookup(pool)
	if err != nil {
		pool.Close()
		return nil, err
	}
	return &Backend{
		Lookup:      lookup,
		Healthcheck: pg.Healthcheck(pool),
		close: func(context.Context) error {
			pool.Close()
			return nil
		},
	}, nil
}

func openMongo(ctx context.Context, _ *slog.Logger, opts ...config.Option) (*Backend, error) {
	var cfg mongo.Config
	if err := config.Load(&cfg, opts...); err != nil {
		return nil, err
	}
	client, err := mongo.New(ctx, cfg)
	if err != nil {
		return nil, err
	}
	lookup, err := mongo.NewLookup(client.Database(cfg.Database).Collection(cfg.Collection))
	if err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return &Backend{
		Lookup:      lookup,
		Healthcheck: mongo.Healthcheck(client),
		close:       client.Disconnect,
	}, nil
}

func openDynamoDB(ctx context.Context, log *slog.Logger, opts ...config.Option) (*Backend, error) {
	var cfg dynamodb.Config
	if err := config.Load(&cfg, opts...); err != nil {
		return nil, err
	}
	client, err := dynamodb.NewClient(ctx, cfg)
	if err != nil {
		return nil, err
	}
	cp, err := dynamodb.NewControlPlane(client, cfg.Table, cfg.SetupTimeout)
	if err != nil {
		return nil, err
	}
	if cfg.AutoSetup {
		if err := cp.EnsureTable(ctx); err != nil {
			return nil, err
		}
		log.InfoContext(ctx, "dynamodb table ready", slog.String("table", cfg.Table))
	}
	lookup, err := dynamodb.NewLookup(client, cfg.Table)
	if err != nil {
		return nil, err
	}
	return &Backend{Lookup: lookup, Healthcheck: cp.Healthcheck()}, nil
}

func openEtcd(ctx context.Context, _ *slog.Logger, opts ...config.Option) (*Backend, error) {
	var cfg etcd.Config
	if err := config.Load(&cfg, opts...); err != nil {
		return nil, err
	}
	client, err := etcd.Connect(ctx, cfg)
	if err != nil {
		return nil, err
	}
	lookup, err := etcd.NewLookup(client, cfg.Preamble, cfg.RequestTimeout)
	if err != nil {
		_ = client.Close()
		return nil, err
	}
	return &Backend{
		Lookup:      lookup,
		Healthcheck: etcd.Healthcheck(client, cfg.RequestTimeout),
		close:       func(context.Context) error { return client.Close() },
	}, nil
}
