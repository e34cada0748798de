package etcd

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	clientv3 "go.etcd.io/etcd/client/v3"

	"github.com/dmitrymomot/featureflag/pkg/feature"
)

const DefaultRequestTimeout = 100 * time.Millisecond

// Lookup stores each percentage as a decimal string under
// "<preamble>_feature_flag/<feature id>". Every call is bounded by the
// request timeout; hitting it is reported as feature.ErrBackendUnavailable.
type Lookup struct {
	kv       clientv3.KV
	preamble string
	timeout  time.Duration
}

func NewLookup(kv clientv3.KV, preamble string, timeout time.Duration) (*Lookup, error) {
	if kv == nil {
		return nil, errors.Join(feature.ErrMissingConfiguration, ErrNilKV)
	}
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	return &Lookup{kv: kv, preamble: preamble, timeout: timeout}, nil
}

func (l *Lookup) key(featureID string) string {
	return l.preamble + "_feature_flag/" + featureID
}

func (l *Lookup) LookupPercentage(ctx context.Context, featureID string) (float64, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	resp, err := l.kv.Get(ctx, l.key(featureID))
	if err != nil {
		return 0, false, feature.Unavailable(err)
	}
	if len(resp.Kvs) == 0 {
		return 0, false, nil
	}

	raw := string(resp.Kvs[0].Value)
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
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	if _, err := l.kv.Put(ctx, l.key(featureID), strconv.FormatFloat(percentage, 'g', -1, 64)); err != nil {
		return false, feature.Unavailable(err)
	}
	return true, nil
}

func (l *Lookup) DeletePercentage(ctx context.Context, featureID string) error {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	if _, err := l.kv.Delete(ctx, l.key(featureID)); err != nil {
		return feature.Unavailable(err)
	}
	return nil
}
