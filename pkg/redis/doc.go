// Package redis connects to Redis and stores feature rollout percentages in it.
//
// Connect retries the initial ping according to Config, Healthcheck adapts a
// client to a readiness probe and Lookup implements feature.Lookup on top of
// plain GET, SET and DEL commands:
//
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer client.Close()
//
//	lookup, err := redis.NewLookup(client, cfg.KeyPrefix)
//
// Keys have the form "<prefix>feature_flag/<feature id>" and hold the
// percentage as a decimal string, so they can be inspected and edited with
// redis-cli. Connection failures are reported as feature.ErrBackendUnavailable
// and values that do not parse as feature.ErrInvalidRecord.
package redis
