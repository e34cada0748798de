// Package featuretest holds the behaviour every feature.Lookup implementation
// must share, packaged as a reusable test suite.
package featuretest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/featureflag/pkg/feature"
)

// RunLookupSuite runs the Lookup contract against lookups produced by
// newLookup. Each subtest gets a fresh lookup and its own feature ids, so
// backends sharing one store may return the same instance.
func RunLookupSuite(t *testing.T, newLookup func(t *testing.T) feature.Lookup) {
	t.Helper()
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		lookup := newLookup(t)

		ok, err := lookup.SetPercentage(ctx, "suite-found", 0.35)
		require.NoError(t, err)
		assert.True(t, ok)

		p, found, err := lookup.LookupPercentage(ctx, "suite-found")
		require.NoError(t, err)
		assert.True(t, found)
		assert.InDelta(t, 0.35, p, 1e-9)
	})

	t.Run("not found", func(t *testing.T) {
		lookup := newLookup(t)

		p, found, err := lookup.LookupPercentage(ctx, "suite-not-found")
		require.NoError(t, err)
		assert.False(t, found)
		assert.Zero(t, p)
	})

	t.Run("overwrite", func(t *testing.T) {
		lookup := newLookup(t)

		_, err := lookup.SetPercentage(ctx, "suite-overwrite", 0.1)
		require.NoError(t, err)
		_, err = lookup.SetPercentage(ctx, "suite-overwrite", 0.9)
		require.NoError(t, err)

		p, found, err := lookup.LookupPercentage(ctx, "suite-overwrite")
		require.NoError(t, err)
		assert.True(t, found)
		assert.InDelta(t, 0.9, p, 1e-9)
	})

	t.Run("bounds", func(t *testing.T) {
		lookup := newLookup(t)

		for id, want := range map[string]float64{"suite-zero": 0, "suite-one": 1} {
			_, err := lookup.SetPercentage(ctx, id, want)
			require.NoError(t, err)
			p, found, err := lookup.LookupPercentage(ctx, id)
			require.NoError(t, err)
			assert.True(t, found, id)
			assert.Equal(t, want, p, id)
		}
	})

	t.Run("delete", func(t *testing.T) {
		lookup := newLookup(t)

		_, err := lookup.SetPercentage(ctx, "suite-delete", 0.5)
		require.NoError(t, err)
		require.NoError(t, lookup.DeletePercentage(ctx, "suite-delete"))

		_, found, err := lookup.LookupPercentage(ctx, "suite-delete")
		require.NoError(t, err)
		assert.False(t, found)

		assert.NoError(t, lookup.DeletePercentage(ctx, "suite-delete"), "deleting a missing record is not an error")
	})

	t.Run("invalid percentage", func(t *testing.T) {
		lookup := newLookup(t)

		_, err := lookup.SetPercentage(ctx, "suite-invalid", 1.5)
		assert.ErrorIs(t, err, feature.ErrInvalidArgument)

		_, found, err := lookup.LookupPercentage(ctx, "suite-invalid")
		require.NoError(t, err)
		assert.False(t, found)
	})
}
