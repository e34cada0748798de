// Package mongo stores feature rollout percentages in MongoDB.
//
// New connects with retries, Healthcheck adapts a client to a readiness probe
// and Lookup implements feature.Lookup over a collection holding one document
// per feature:
//
//	{ "_id": "new-checkout", "percentage": 0.25 }
//
// Usage:
//
//	client, err := mongo.New(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	lookup, err := mongo.NewLookup(client.Database(cfg.Database).Collection(cfg.Collection))
//
// Writes replace the whole document with upsert enabled. Driver failures are
// reported as feature.ErrBackendUnavailable and documents without a numeric
// percentage as feature.ErrInvalidRecord.
package mongo
