package feature

import (
	"context"
	"sync"
)

// MemoryLookup is an in-process Lookup backed by a map. It is intended for
// tests, local development and single-instance deployments.
type MemoryLookup struct {
	mu          sync.RWMutex
	percentages map[string]float64
}

// NewMemoryLookup returns a MemoryLookup seeded with initial. The map is copied.
func NewMemoryLookup(initial map[string]float64) (*MemoryLookup, error) {
	m := &MemoryLookup{percentages: make(map[string]float64, len(initial))}
	for id, p := range initial {
		if err := ValidatePercentage(p); err != nil {
			return nil, err
		}
		m.percentages[id] = p
	}
	return m, nil
}

func (m *MemoryLookup) LookupPercentage(ctx context.Context, featureID string) (float64, bool, error) {
	if err := ctx.Err(); err != nil {
		return 0, false, Unavailable(err)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.percentages[featureID]
	return p, ok, nil
}

func (m *MemoryLookup) SetPercentage(ctx context.Context, featureID string, percentage float64) (bool, error) {
	if err := ValidatePercentage(percentage); err != nil {
		return false, err
	}
	if err := ctx.Err(); err != nil {
		return false, Unavailable(err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.percentages[featureID] = percentage
	return true, nil
}

func (m *MemoryLookup) DeletePercentage(ctx context.Context, featureID string) error {
	if err := ctx.Err(); err != nil {
		return Unavailable(err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.percentages, featureID)
	return nil
}
