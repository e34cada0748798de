package feature

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/dmitrymomot/featureflag/pkg/logger"
)

// LoggingLookupDecorator logs every backend call at debug level and failures
// at warn level.
func LoggingLookupDecorator(log *slog.Logger) Decorator[Lookup] {
	if log == nil {
		log = slog.Default()
	}
	return func(next Lookup) Lookup {
		return &loggingLookup{next: next, logger: log.With(logger.Component("feature_lookup"))}
	}
}

type loggingLookup struct {
	next   Lookup
	logger *slog.Logger
}

func (l *loggingLookup) LookupPercentage(ctx context.Context, featureID string) (float64, bool, error) {
	start := time.Now()
	p, found, err := l.next.LookupPercentage(ctx, featureID)
	l.record(ctx, "lookup", featureID, start, err, slog.Bool("found", found), logger.Percentage(p))
	return p, found, err
}

func (l *loggingLookup) SetPercentage(ctx context.Context, featureID string, percentage float64) (bool, error) {
	start := time.Now()
	ok, err := l.next.SetPercentage(ctx, featureID, percentage)
	l.record(ctx, "set", featureID, start, err, slog.Bool("accepted", ok), logger.Percentage(percentage))
	return ok, err
}

func (l *loggingLookup) DeletePercentage(ctx context.Context, featureID string) error {
	start := time.Now()
	err := l.next.DeletePercentage(ctx, featureID)
	l.record(ctx, "delete", featureID, start, err)
	return err
}

func (l *loggingLookup) record(ctx context.Context, op, featureID string, start time.Time, err error, attrs ...slog.Attr) {
	attrs = append(attrs,
		logger.Operation(op),
		logger.Feature(featureID),
		logger.Duration(time.Since(start)),
	)
	if err != nil {
		l.logger.LogAttrs(ctx, slog.LevelWarn, "feature backend call failed", append(attrs, logger.Error(err))...)
		return
	}
	l.logger.LogAttrs(ctx, slog.LevelDebug, "feature backend call", attrs...)
}

// LoggingManagerDecorator logs every decision and invalidation at debug level.
func LoggingManagerDecorator(log *slog.Logger) Decorator[Manager] {
	if log == nil {
		log = slog.Default()
	}
	return func(next Manager) Manager {
		return &loggingManager{next: next, logger: log.With(logger.Component("feature_manager"))}
	}
}

type loggingManager struct {
	next   Manager
	logger *slog.Logger
}

func (m *loggingManager) IsEnabled(ctx context.Context, featureID, discriminator string) bool {
	start := time.Now()
	enabled := m.next.IsEnabled(ctx, featureID, discriminator)
	m.logger.LogAttrs(ctx, slog.LevelDebug, "feature evaluated",
		logger.Feature(featureID),
		logger.Discriminator(discriminator),
		logger.Enabled(enabled),
		logger.Duration(time.Since(start)),
	)
	return enabled
}

func (m *loggingManager) Invalidate(ctx context.Context, featureID string) {
	m.next.Invalidate(ctx, featureID)
	m.logger.LogAttrs(ctx, slog.LevelDebug, "feature invalidated", logger.Feature(featureID))
}

// RetryLookupDecorator retries calls that fail with ErrBackendUnavailable, up
// to attempts calls in total, sleeping backoff between them. Other errors and
// context cancellation end the loop immediately.
func RetryLookupDecorator(attempts int, backoff time.Duration) Decorator[Lookup] {
	if attempts < 1 {
		attempts = 1
	}
	return func(next Lookup) Lookup {
		return &retryLookup{next: next, attempts: attempts, backoff: backoff}
	}
}

type retryLookup struct {
	next     Lookup
	attempts int
	backoff  time.Duration
}

func (r *retryLookup) LookupPercentage(ctx context.Context, featureID string) (float64, bool, error) {
	var (
		p     float64
		found bool
	)
	err := r.do(ctx, func() error {
		var err error
		p, found, err = r.next.LookupPercentage(ctx, featureID)
		return err
	})
	return p, found, err
}

func (r *retryLookup) SetPercentage(ctx context.Context, featureID string, percentage float64) (bool, error) {
	var ok bool
	err := r.do(ctx, func() error {
		var err error
		ok, err = r.next.SetPercentage(ctx, featureID, percentage)
		return err
	})
	return ok, err
}

func (r *retryLookup) DeletePercentage(ctx context.Context, featureID string) error {
	return r.do(ctx, func() error {
		return r.next.DeletePercentage(ctx, featureID)
	})
}

func (r *retryLookup) do(ctx context.Context, fn func() error) error {
	var err error
	for attempt := 1; ; attempt++ {
		err = fn()
		if err == nil || !errors.Is(err, ErrBackendUnavailable) || attempt >= r.attempts {
			return err
		}
		if r.backoff <= 0 {
			continue
		}
		timer := time.NewTimer(r.backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return errors.Join(err, ctx.Err())
		case <-timer.C:
		}
	}
}
