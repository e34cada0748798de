// Command featured serves feature decisions and rollout administration over
// HTTP, backed by the store selected with FEATURE_BACKEND.
package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/dmitrymomot/featureflag/pkg/config"
	"github.com/dmitrymomot/featureflag/pkg/feature"
	"github.com/dmitrymomot/featureflag/pkg/featurebackend"
	"github.com/dmitrymomot/featureflag/pkg/featuremetrics"
	"github.com/dmitrymomot/featureflag/pkg/httpserver"
	"github.com/dmitrymomot/featureflag/pkg/logger"
	"github.com/dmitrymomot/featureflag/pkg/requestid"
	"github.com/dmitrymomot/featureflag/pkg/workerpool"
)

type appConfig struct {
	Env     string `env:"APP_ENV" envDefault:"development"`
	Service string `env:"SERVICE_NAME" envDefault:"featured"`

	RetryAttempts  int           `env:"FEATURE_LOOKUP_RETRY_ATTEMPTS" envDefault:"3"`
	RetryBackoff   time.Duration `env:"FEATURE_LOOKUP_RETRY_BACKOFF" envDefault:"50ms"`
	HealthTimeout  time.Duration `env:"HEALTH_TIMEOUT" envDefault:"2s"`
	ConnectTimeout time.Duration `env:"FEATURE_BACKEND_CONNECT_TIMEOUT" envDefault:"30s"`

	HTTP    httpserver.Config
	Cache   feature.CacheConfig
	Reload  workerpool.Config
	Backend featurebackend.Config
}

func main() {
	if err := run(context.Background()); err != nil {
		slog.Error("featured stopped", logger.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	var cfg appConfig
	if err := config.Load(&cfg); err != nil {
		return err
	}

	log := logger.New(
		logger.WithEnvironment(cfg.Env, cfg.Service),
		logger.WithContextExtractors(requestid.Extractor()),
	)
	logger.SetAsDefault(log)

	openCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	backend, err := featurebackend.Open(openCtx, cfg.Backend, log)
	cancel()
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	pool := workerpool.New(cfg.Reload, workerpool.WithLogger(log))
	client, err := newClient(cfg, backend.Lookup, pool, featuremetrics.New(reg), log)
	if err != nil {
		pool.Shutdown()
		_ = backend.Close(ctx)
		return err
	}

	srv := httpserver.NewFromConfig(cfg.HTTP,
		httpserver.WithLogger(log),
		httpserver.WithOnShutdown(func() {
			_ = client.Close()
			pool.Shutdown()
			if err := backend.Close(context.WithoutCancel(ctx)); err != nil {
				log.Error("failed to close feature backend", logger.Backend(backend.Name), logger.Error(err))
			}
		}),
	)
	return srv.Run(ctx, newRouter(client, backend, reg, log, cfg.HealthTimeout))
}

// newClient stacks retries under the logging and metrics layers so that each
// logical backend call is timed once, including its retries.
func newClient(cfg appConfig, lookup feature.Lookup, executor feature.Executor, m *featuremetrics.Metrics, log *slog.Logger) (*feature.Client, error) {
	return feature.New(feature.Config{
		Lookup:         lookup,
		Cache:          cfg.Cache,
		ReloadExecutor: executor,
		Logger:         log,
		OnReloadError:  m.OnReloadError,
		LookupDecorators: []feature.Decorator[feature.Lookup]{
			feature.RetryLookupDecorator(cfg.RetryAttempts, cfg.RetryBackoff),
			feature.LoggingLookupDecorator(log),
			m.LookupDecorator(),
		},
		ManagerDecorators: []feature.Decorator[feature.Manager]{
			feature.LoggingManagerDecorator(log),
			m.ManagerDecorator(),
		},
	})
}
