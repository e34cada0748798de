package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
)

type pinger interface {
	Ping(ctx context.Context, rp *readpref.ReadPref) error
}

// Healthcheck pings the primary, which serves both the reads and the
// upserts of the feature collection.
func Healthcheck(client pinger) func(context.Context) error {
	return func(ctx context.Context) error {
		if client == nil {
			return errors.Join(ErrHealthcheckFailed, ErrNilClient)
		}
		if err := client.Ping(ctx, readpref.Primary()); err != nil {
			return errors.Join(ErrHealthcheckFailed, err)
		}
		return nil
	}
}
