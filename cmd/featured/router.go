package main

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dmitrymomot/featureflag/pkg/feature"
	"github.com/dmitrymomot/featureflag/pkg/featureapi"
	"github.com/dmitrymomot/featureflag/pkg/featurebackend"
	"github.com/dmitrymomot/featureflag/pkg/httpserver"
	"github.com/dmitrymomot/featureflag/pkg/requestid"
)

func newRouter(client *feature.Client, backend *featurebackend.Backend, reg *prometheus.Registry, log *slog.Logger, healthTimeout time.Duration) http.Handler {
	r := chi.NewRouter()
	r.Use(requestid.Middleware())

	r.Get("/health/live", httpserver.LivenessHandler())
	r.Get("/health/ready", httpserver.ReadinessHandler(log, healthTimeout,
		httpserver.Check{Name: backend.Name, Fn: backend.Healthcheck}))
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))

	r.Mount("/", featureapi.Router(client, client.Lookup(), log))
	return r
}
