package feature

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dmitrymomot/featureflag/pkg/logger"
)

// manager is the undecorated decision facade over the enablement cache.
type manager struct {
	cache  *enablementCache
	logger *slog.Logger
}

func (m *manager) IsEnabled(ctx context.Context, featureID, discriminator string) (enabled bool) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.ErrorContext(ctx, "feature evaluation panicked",
				logger.Feature(featureID),
				logger.Discriminator(discriminator),
				logger.Error(fmt.Errorf("%v", r)),
			)
			enabled = false
		}
	}()

	ev, err := m.cache.get(ctx, featureID)
	if err != nil {
		m.logger.ErrorContext(ctx, "failed to resolve feature enablement",
			logger.Feature(featureID),
			logger.Discriminator(discriminator),
			logger.Error(err),
		)
		return false
	}
	return ev.Enabled(discriminator)
}

func (m *manager) Invalidate(_ context.Context, featureID string) {
	m.cache.invalidate(featureID)
}
