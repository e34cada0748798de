package redis

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

type pinger interface {
	Ping(ctx context.Context) *redis.StatusCmd
}

// Healthcheck returns a readiness probe. A server that answers PING is
// considered able to serve feature reads.
func Healthcheck(client pinger) func(context.Context) error {
	return func(ctx context.Context) error {
		if client == nil {
			return errors.Join(ErrHealthcheckFailed, ErrNilClient)
		}
		return wrapHealth(client.Ping(ctx).Err())
	}
}

func wrapHealth(err error) error {
	if err == nil {
		return nil
	}
	return errors.Join(ErrHealthcheckFailed, err)
}
