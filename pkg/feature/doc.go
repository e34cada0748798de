// Package feature decides whether a feature is on for a caller based on a
// rollout percentage kept in a slow, swappable backend.
//
// A Client keeps one Evaluator per feature in a bounded cache. The first
// request for a feature blocks on the backend; concurrent requests for the
// same feature share that single call. Later requests are answered from
// memory. Once an entry is older than CacheConfig.RefreshAfterWrite the old
// evaluator keeps being served while one background reload per feature runs
// on the reload Executor. Entries not read for CacheConfig.ExpireAfterAccess
// are evicted, and the cache never holds more than CacheConfig.MaximumSize
// features.
//
// Bucketing is deterministic: the discriminator is hashed together with the
// feature id, so a caller keeps its answer across processes and restarts while
// its buckets for different features stay independent. A percentage of 0 is
// never on and 1 is always on.
//
// # Usage
//
//	lookup, _ := feature.NewMemoryLookup(map[string]float64{"new-checkout": 0.25})
//
//	client, err := feature.New(feature.Config{
//		Lookup:            lookup,
//		LookupDecorators:  []feature.Decorator[feature.Lookup]{feature.RetryLookupDecorator(3, 50*time.Millisecond)},
//		ManagerDecorators: []feature.Decorator[feature.Manager]{feature.LoggingManagerDecorator(log)},
//	})
//	if err != nil {
//		return err
//	}
//	defer client.Close()
//
//	if client.IsEnabled(ctx, "new-checkout", userID) {
//		// ...
//	}
//
//	price := feature.IfEnabledElse(ctx, client, "new-pricing", userID,
//		func() int { return newPrice() },
//		func() int { return oldPrice() },
//	)
//
// # Decorators
//
// Decorators wrap a Lookup or a Manager with another value of the same
// contract. They are applied in slice order, so the first decorator sits
// directly on the wrapped value and the last one is the outermost. Lookup
// decorators observe every backend call made by the cache, including
// background reloads, and every write made through Client.Lookup.
//
// # Errors
//
// IsEnabled never returns an error. Any failure resolving a feature is logged
// and the feature is reported as off. Backends report transport failures as
// errors matching ErrBackendUnavailable and a missing record as found=false.
package feature
