package feature

import (
	"log/slog"
	"sync"
	"time"

	"github.com/dmitrymomot/featureflag/pkg/logger"
	"github.com/dmitrymomot/featureflag/pkg/workerpool"
)

// Config assembles a Client. Only Lookup is required.
type Config struct {
	// Lookup is the backend the cache reads from.
	Lookup Lookup

	// EvaluatorFactory defaults to HashEvaluatorFactory.
	EvaluatorFactory EvaluatorFactory

	// LookupDecorators wrap Lookup in order: the first one sits directly on
	// the backend, the last one is called first.
	LookupDecorators []Decorator[Lookup]

	// ManagerDecorators wrap the decision facade in the same order.
	ManagerDecorators []Decorator[Manager]

	Cache CacheConfig

	// ReloadExecutor runs background reloads. Defaults to a shared pool.
	ReloadExecutor Executor

	// Logger defaults to slog.Default().
	Logger *slog.Logger

	// OnReloadError is called when a background reload fails. The previous
	// value stays cached either way.
	OnReloadError func(featureID string, err error)

	// Clock defaults to time.Now.
	Clock func() time.Time

	// SweepInterval is the period of the background scan that evicts
	// inactive entries. Zero derives it from Cache.ExpireAfterAccess and a
	// negative value disables the scan; inactive entries are then only
	// dropped when they are next read.
	SweepInterval time.Duration
}

// Client is the assembled decision facade. It implements Manager through the
// configured decorator chain.
type Client struct {
	Manager

	lookup Lookup
	cache  *enablementCache
}

// New validates cfg, wraps the lookup with its decorators, builds the cache
// and facade on top of it and finally wraps the facade with its decorators.
func New(cfg Config) (*Client, error) {
	if cfg.Lookup == nil {
		return nil, ErrMissingConfiguration
	}

	cacheCfg, err := cfg.Cache.withDefaults()
	if err != nil {
		return nil, err
	}

	factory := cfg.EvaluatorFactory
	if factory == nil {
		factory = NewHashEvaluatorFactory()
	}
	executor := cfg.ReloadExecutor
	if executor == nil {
		executor = DefaultExecutor()
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}

	lookup := apply(cfg.Lookup, cfg.LookupDecorators)
	cache := newEnablementCache(cacheCfg, lookup, factory, executor, log, cfg.OnReloadError, clock)

	switch {
	case cfg.SweepInterval > 0:
		cache.startSweeper(cfg.SweepInterval)
	case cfg.SweepInterval == 0:
		cache.startSweeper(cacheCfg.ExpireAfterAccess)
	}

	log.Info("feature manager created",
		logger.Component("feature_manager"),
		slog.Int("cache_maximum_size", cacheCfg.MaximumSize),
		slog.Duration("cache_refresh_after_write", cacheCfg.RefreshAfterWrite),
		slog.Duration("cache_expire_after_access", cacheCfg.ExpireAfterAccess),
		slog.Int("lookup_decorators", len(cfg.LookupDecorators)),
		slog.Int("manager_decorators", len(cfg.ManagerDecorators)),
	)

	base := &manager{cache: cache, logger: log}
	return &Client{
		Manager: apply[Manager](base, cfg.ManagerDecorators),
		lookup:  lookup,
		cache:   cache,
	}, nil
}

// Lookup returns the decorated lookup the cache reads from. Writes made
// through it are observed by the same decorators as cache loads.
func (c *Client) Lookup() Lookup {
	return c.lookup
}

// CacheLen reports the number of cached features.
func (c *Client) CacheLen() int {
	return c.cache.len()
}

// Close stops the background sweep. Reloads already submitted to the
// executor still complete.
func (c *Client) Close() error {
	c.cache.close()
	return nil
}

var (
	defaultExecutor     *workerpool.Pool
	defaultExecutorOnce sync.Once
)

// DefaultExecutor returns the process-wide reload pool shared by clients
// created without an explicit ReloadExecutor. It lives for the whole process.
func DefaultExecutor() Executor {
	defaultExecutorOnce.Do(func() {
		defaultExecutor = workerpool.New(workerpool.Config{})
	})
	return defaultExecutor
}
