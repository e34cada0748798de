// Package httpserver runs an http.Server with graceful shutdown and provides
// liveness and readiness handlers.
//
// Run blocks until the context is cancelled or the process receives SIGINT or
// SIGTERM, then calls Shutdown with the configured deadline and the
// WithOnShutdown callbacks:
//
//	srv := httpserver.NewFromConfig(cfg,
//		httpserver.WithLogger(log),
//		httpserver.WithOnShutdown(func() { _ = client.Close() }),
//	)
//
//	r := chi.NewRouter()
//	r.Get("/health/live", httpserver.LivenessHandler())
//	r.Get("/health/ready", httpserver.ReadinessHandler(log, time.Second,
//		httpserver.Check{Name: "redis", Fn: redis.Healthcheck(rdb)},
//	))
//
//	if err := srv.Run(ctx, r); err != nil {
//		log.Error("server stopped", logger.Error(err))
//	}
//
// Listen failures are wrapped with ErrStart and shutdown failures with
// ErrShutdown.
package httpserver
