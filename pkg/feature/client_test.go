package feature_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/featureflag/pkg/feature"
	"github.com/dmitrymomot/featureflag/pkg/logger"
)

// recorder collects the order in which decorated layers are entered.
type recorder struct {
	mu    sync.Mutex
	calls []string
}

func (r *recorder) add(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, name)
}

func (r *recorder) get() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

type namedLookup struct {
	feature.Lookup
	name string
	rec  *recorder
}

func (l namedLookup) LookupPercentage(ctx context.Context, featureID string) (float64, bool, error) {
	l.rec.add(l.name)
	return l.Lookup.LookupPercentage(ctx, featureID)
}

func lookupLayer(name string, rec *recorder) feature.Decorator[feature.Lookup] {
	return func(next feature.Lookup) feature.Lookup {
		return namedLookup{Lookup: next, name: name, rec: rec}
	}
}

type namedManager struct {
	feature.Manager
	name string
	rec  *recorder
}

func (m namedManager) IsEnabled(ctx context.Context, featureID, discriminator string) bool {
	m.rec.add(m.name)
	return m.Manager.IsEnabled(ctx, featureID, discriminator)
}

func managerLayer(name string, rec *recorder) feature.Decorator[feature.Manager] {
	return func(next feature.Manager) feature.Manager {
		return namedManager{Manager: next, name: name, rec: rec}
	}
}

func TestNew(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("missing lookup", func(t *testing.T) {
		t.Parallel()
		client, err := feature.New(feature.Config{})
		require.ErrorIs(t, err, feature.ErrMissingConfiguration)
		assert.ErrorIs(t, err, feature.ErrConfiguration)
		assert.Nil(t, client)
	})

	t.Run("negative cache sizing", func(t *testing.T) {
		t.Parallel()
		lookup, err := feature.NewMemoryLookup(nil)
		require.NoError(t, err)

		for _, cache := range []feature.CacheConfig{
			{MaximumSize: -1},
			{RefreshAfterWrite: -time.Second},
			{ExpireAfterAccess: -time.Second},
		} {
			_, err := feature.New(feature.Config{Lookup: lookup, Cache: cache})
			assert.ErrorIs(t, err, feature.ErrInvalidArgument, "%+v", cache)
		}
	})

	t.Run("defaults", func(t *testing.T) {
		t.Parallel()
		lookup, err := feature.NewMemoryLookup(map[string]float64{"checkout": 1})
		require.NoError(t, err)

		client, err := feature.New(feature.Config{Lookup: lookup, Logger: logger.Discard()})
		require.NoError(t, err)
		defer client.Close()

		assert.True(t, client.IsEnabled(ctx, "checkout", "user-1"))
		assert.Same(t, feature.DefaultExecutor(), feature.DefaultExecutor())
	})

	t.Run("decorators apply first innermost", func(t *testing.T) {
		t.Parallel()
		rec := &recorder{}
		env := newTestEnv(t, map[string]float64{"checkout": 1}, func(cfg *feature.Config) {
			cfg.LookupDecorators = []feature.Decorator[feature.Lookup]{
				lookupLayer("lookup-1", rec),
				nil,
				lookupLayer("lookup-2", rec),
			}
			cfg.ManagerDecorators = []feature.Decorator[feature.Manager]{
				managerLayer("manager-1", rec),
				managerLayer("manager-2", rec),
			}
		})

		require.True(t, env.client.IsEnabled(ctx, "checkout", "user-1"))
		assert.Equal(t, []string{"manager-2", "manager-1", "lookup-2", "lookup-1"}, rec.get())
	})

	t.Run("client lookup is the decorated one", func(t *testing.T) {
		t.Parallel()
		rec := &recorder{}
		env := newTestEnv(t, map[string]float64{"checkout": 1}, func(cfg *feature.Config) {
			cfg.LookupDecorators = []feature.Decorator[feature.Lookup]{lookupLayer("outer", rec)}
		})

		_, found, err := env.client.Lookup().LookupPercentage(ctx, "checkout")
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, []string{"outer"}, rec.get())
	})

	t.Run("close is idempotent", func(t *testing.T) {
		t.Parallel()
		lookup, err := feature.NewMemoryLookup(nil)
		require.NoError(t, err)
		client, err := feature.New(feature.Config{
			Lookup:         lookup,
			ReloadExecutor: &manualExecutor{},
			Logger:         logger.Discard(),
			SweepInterval:  time.Millisecond,
		})
		require.NoError(t, err)

		assert.NoError(t, client.Close())
		assert.NoError(t, client.Close())
	})
}
