package httpserver

import (
	"log/slog"
	"net"
	"time"
)

// Option configures the HTTP server. Options panic on invalid values because
// they are programming errors.
type Option func(*config)

func WithAddr(addr string) Option {
	if addr == "" {
		panic("WithAddr: addr cannot be empty")
	}
	return func(c *config) { c.addr = addr }
}

func WithReadTimeout(d time.Duration) Option {
	if d <= 0 {
		panic("WithReadTimeout: duration must be > 0")
	}
	return func(c *config) { c.readTimeout = d }
}

func WithWriteTimeout(d time.Duration) Option {
	if d <= 0 {
		panic("WithWriteTimeout: duration must be > 0")
	}
	return func(c *config) { c.writeTimeout = d }
}

func WithIdleTimeout(d time.Duration) Option {
	if d <= 0 {
		panic("WithIdleTimeout: duration must be > 0")
	}
	return func(c *config) { c.idleTimeout = d }
}

func WithShutdownTimeout(d time.Duration) Option {
	if d <= 0 {
		panic("WithShutdownTimeout: duration must be > 0")
	}
	return func(c *config) { c.shutdownTimeout = d }
}

// WithListener serves on l instead of listening on the configured address.
func WithListener(l net.Listener) Option {
	if l == nil {
		panic("WithListener: nil listener")
	}
	return func(c *config) { c.listener = l }
}

// WithLogger sets the logger for lifecycle messages. Nil discards them.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) { c.logger = l }
}

// WithOnShutdown registers a callback that runs after the server stopped
// accepting requests, e.g. to close the feature client.
func WithOnShutdown(fn func()) Option {
	if fn == nil {
		panic("WithOnShutdown: nil callback")
	}
	return func(c *config) { c.onShutdown = append(c.onShutdown, fn) }
}
