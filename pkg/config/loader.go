package config

import (
	"errors"
	"fmt"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

var defaultEnvLoaded sync.Once

// Option configures a single Load call.
type Option func(*options)

type options struct {
	files  []string
	prefix string
}

// WithEnvFiles loads the given dotenv files before parsing. Variables that are
// already set in the process environment win over file values. A missing
// file is an error, unlike the implicit ".env" lookup.
func WithEnvFiles(paths ...string) Option {
	return func(o *options) { o.files = append(o.files, paths...) }
}

// WithPrefix prepends prefix to every env tag of the target struct.
func WithPrefix(prefix string) Option {
	return func(o *options) { o.prefix = prefix }
}

// Load fills v from environment variables according to its env and
// envDefault struct tags.
//
// A ".env" file in the working directory is loaded once per process if it
// exists. Nested structs are parsed as well, so a service config can embed
// the configs of the packages it wires:
//
//	type appConfig struct {
//		Cache  feature.CacheConfig
//		Reload workerpool.Config
//		Redis  redis.Config
//	}
//
//	var cfg appConfig
//	if err := config.Load(&cfg); err != nil {
//		return err
//	}
func Load[T any](v *T, opts ...Option) error {
	if v == nil {
		return ErrNilPointer
	}

	defaultEnvLoaded.Do(func() {
		// the default file is optional
		_ = godotenv.Load()
	})

	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	if len(o.files) > 0 {
		if err := godotenv.Load(o.files...); err != nil {
			return errors.Join(ErrLoadingEnvFile, err)
		}
	}

	if err := env.ParseWithOptions(v, env.Options{Prefix: o.prefix}); err != nil {
		return errors.Join(ErrParsingConfig, err)
	}
	return nil
}

// MustLoad works like Load but panics on failure. Use it for configuration
// the process cannot start without.
func MustLoad[T any](v *T, opts ...Option) {
	if err := Load(v, opts...); err != nil {
		panic(fmt.Sprintf("failed to load required configuration: %v", err))
	}
}
