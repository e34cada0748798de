package workerpool

import (
	"log/slog"
	"runtime"
)

type Config struct {
	Workers    int `env:"FEATURE_RELOAD_WORKERS" envDefault:"4"`       // Workers is the number of goroutines executing jobs.
	QueueDepth int `env:"FEATURE_RELOAD_QUEUE_DEPTH" envDefault:"256"` // QueueDepth is the number of jobs that may wait for a free worker.
}

// Option configures optional pool collaborators.
type Option func(*Pool)

// WithLogger sets the logger used to report recovered panics.
func WithLogger(l *slog.Logger) Option {
	return func(p *Pool) {
		if l != nil {
			p.logger = l
		}
	}
}

func (c Config) withDefaults() Config {
	if c.Workers <= 0 {
		c.Workers = runtime.GOMAXPROCS(0)
	}
	if c.QueueDepth <= 0 {
		c.QueueDepth = 256
	}
	return c
}
