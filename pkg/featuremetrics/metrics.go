// Package featuremetrics instruments feature managers and lookups with
// Prometheus metrics.
package featuremetrics

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/dmitrymomot/featureflag/pkg/feature"
)

const namespace = "featureflag"

// Outcome label values of the lookup histogram.
const (
	OutcomeFound    = "found"
	OutcomeNotFound = "not_found"
	OutcomeOK       = "ok"
	OutcomeError    = "error"
)

// Metrics owns the collectors shared by the decorators it produces.
// Discriminators are never used as labels.
type Metrics struct {
	isEnabled    *prometheus.CounterVec
	invalidate   *prometheus.HistogramVec
	lookup       *prometheus.HistogramVec
	reloadErrors *prometheus.CounterVec
}

// New registers the collectors with registerer. A nil registerer leaves them
// unregistered. Registering twice with the same registerer panics.
func New(registerer prometheus.Registerer) *Metrics {
	return &Metrics{
		isEnabled: promauto.With(registerer).NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "is_enabled_total",
			Help:      "Number of enablement decisions by feature and result.",
		}, []string{"feature", "enabled"}),
		invalidate: promauto.With(registerer).NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "invalidate_duration_seconds",
			Help:      "Time spent invalidating cached features.",
			Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 8),
		}, []string{"feature"}),
		lookup: promauto.With(registerer).NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "lookup_duration_seconds",
			Help:      "Time spent in feature backend calls.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation", "feature", "outcome"}),
		reloadErrors: promauto.With(registerer).NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reload_errors_total",
			Help:      "Number of failed background reloads by feature.",
		}, []string{"feature"}),
	}
}

// ManagerDecorator counts decisions and times invalidations.
func (m *Metrics) ManagerDecorator() feature.Decorator[feature.Manager] {
	return func(next feature.Manager) feature.Manager {
		return &instrumentedManager{next: next, metrics: m}
	}
}

// LookupDecorator times every backend call.
func (m *Metrics) LookupDecorator() feature.Decorator[feature.Lookup] {
	return func(next feature.Lookup) feature.Lookup {
		return &instrumentedLookup{next: next, metrics: m}
	}
}

// OnReloadError is meant for feature.Config.OnReloadError.
func (m *Metrics) OnReloadError(featureID string, _ error) {
	m.reloadErrors.WithLabelValues(featureID).Inc()
}

type instrumentedManager struct {
	next    feature.Manager
	metrics *Metrics
}

func (m *instrumentedManager) IsEnabled(ctx context.Context, featureID, discriminator string) bool {
	enabled := m.next.IsEnabled(ctx, featureID, discriminator)
	m.metrics.isEnabled.WithLabelValues(featureID, strconv.FormatBool(enabled)).Inc()
	return enabled
}

func (m *instrumentedManager) Invalidate(ctx context.Context, featureID string) {
	start := time.Now()
	m.next.Invalidate(ctx, featureID)
	m.metrics.invalidate.WithLabelValues(featureID).Observe(time.Since(start).Seconds())
}

type instrumentedLookup struct {
	next    feature.Lookup
	metrics *Metrics
}

func (l *instrumentedLookup) LookupPercentage(ctx context.Context, featureID string) (float64, bool, error) {
	start := time.Now()
	p, found, err := l.next.LookupPercentage(ctx, featureID)

	outcome := OutcomeFound
	switch {
	case err != nil:
		outcome = OutcomeError
	case !found:
		outcome = OutcomeNotFound
	}
	l.observe("lookup", featureID, outcome, start)
	return p, found, err
}

func (l *instrumentedLookup) SetPercentage(ctx context.Context, featureID string, percentage float64) (bool, error) {
	start := time.Now()
	ok, err := l.next.SetPercentage(ctx, featureID, percentage)
	l.observe("set", featureID, outcomeOf(err), start)
	return ok, err
}

func (l *instrumentedLookup) DeletePercentage(ctx context.Context, featureID string) error {
	start := time.Now()
	err := l.next.DeletePercentage(ctx, featureID)
	l.observe("delete", featureID, outcomeOf(err), start)
	return err
}

func (l *instrumentedLookup) observe(op, featureID, outcome string, start time.Time) {
	l.metrics.lookup.WithLabelValues(op, featureID, outcome).Observe(time.Since(start).Seconds())
}

func outcomeOf(err error) string {
	if err != nil {
		return OutcomeError
	}
	return OutcomeOK
}
