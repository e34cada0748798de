package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/featureflag/pkg/feature"
)

const keyNamespace = "feature_flag/"

// Lookup stores each percentage as a decimal string under
// "<prefix>feature_flag/<feature id>".
type Lookup struct {
	client redis.UniversalClient
	prefix string
}

// NewLookup returns a Lookup over client. prefix may be empty.
func NewLookup(client redis.UniversalClient, prefix string) (*Lookup, error) {
	if client == nil {
		return nil, errors.Join(feature.ErrMissingConfiguration, ErrNilClient)
	}
	return &Lookup{client: client, prefix: prefix}, nil
}

func (l *Lookup) key(featureID string) string {
	return l.prefix + keyNamespace + featureID
}

func (l *Lookup) LookupPercentage(ctx context.Context, featureID string) (float64, bool, error) {
	raw, err := l.client.Get(ctx, l.key(featureID)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, feature.Unavailable(err)
	}

	p, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false, errors.Join(feature.ErrInvalidRecord, fmt.Errorf("key %q: %w", l.key(featureID), err))
	}
	return p, true, nil
}

func (l *Lookup) SetPercentage(ctx context.Context, featureID string, percentage float64) (bool, error) {
	if err := feature.ValidatePercentage(percentage); err != nil {
		return false, err
	}
	value := strconv.FormatFloat(percentage, 'g', -1, 64)
	if err := l.client.Set(ctx, l.key(featureID), value, 0).Err(); err != nil {
		return false, feature.Unavailable(err)
	}
	return true, nil
}

func (l *Lookup) DeletePercentage(ctx context.Context, featureID string) error {
	if err := l.client.Del(ctx, l.key(featureID)).Err(); err != nil {
		return feature.Unavailable(err)
	}
	return nil
}
