package etcd

import (
	"context"
	"errors"
	"time"

	clientv3 "go.etcd.io/etcd/client/v3"
)

// Healthcheck returns a probe that reads the "health" key the way etcdctl
// does. A missing key is healthy; only the round trip matters.
func Healthcheck(kv clientv3.KV, timeout time.Duration) func(context.Context) error {
	return func(ctx context.Context) error {
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}
		if _, err := kv.Get(ctx, "health"); err != nil {
			return errors.Join(ErrHealthcheckFailed, err)
		}
		return nil
	}
}
