package logger

import (
	"log/slog"
	"strconv"
	"time"
)

// Group creates a slog group attribute from the provided attributes.
func Group(name string, attrs ...slog.Attr) slog.Attr {
	return slog.Attr{Key: name, Value: slog.GroupValue(attrs...)}
}

// Errors groups the non-nil errors under the key "errors".
// If all errors are nil, it returns an empty Attr.
func Errors(errs ...error) slog.Attr {
	as := make([]slog.Attr, 0, len(errs))
	for i, err := range errs {
		if err != nil {
			as = append(as, slog.Any(strconv.Itoa(i), err))
		}
	}
	if len(as) == 0 {
		return slog.Attr{}
	}
	return slog.Attr{Key: "errors", Value: slog.GroupValue(as...)}
}

// Error records err under the key "error".
// If err is nil, it returns an empty Attr.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// Feature records a feature id under the key "feature".
func Feature(id string) slog.Attr {
	return slog.String("feature", id)
}

// Discriminator records the caller discriminator under the key "discriminator".
func Discriminator(d string) slog.Attr {
	return slog.String("discriminator", d)
}

// Percentage records a rollout percentage under the key "percentage".
func Percentage(p float64) slog.Attr {
	return slog.Float64("percentage", p)
}

// Enabled records an evaluation outcome under the key "enabled".
func Enabled(v bool) slog.Attr {
	return slog.Bool("enabled", v)
}

// Backend records the storage backend name under the key "backend".
func Backend(name string) slog.Attr {
	return slog.String("backend", name)
}

// Operation records the operation name under the key "operation".
func Operation(name string) slog.Attr {
	return slog.String("operation", name)
}

// Attempt records a retry attempt number under the key "attempt".
func Attempt(n int) slog.Attr {
	return slog.Int("attempt", n)
}

// Duration records a duration under the key "duration".
func Duration(d time.Duration) slog.Attr {
	return slog.Duration("duration", d)
}

// Component records the component name under the key "component".
func Component(name string) slog.Attr {
	return slog.String("component", name)
}
