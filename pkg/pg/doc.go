// Package pg stores feature rollout percentages in PostgreSQL through pgx/v5.
//
// Connect opens a *pgxpool.Pool with retries, Migrate applies the embedded
// goose migrations that create the feature_flag table, Healthcheck adapts the
// pool to a readiness probe and Lookup implements feature.Lookup:
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer pool.Close()
//
//	if err := pg.Migrate(ctx, pool, cfg, log); err != nil {
//		return err
//	}
//	lookup, err := pg.NewLookup(pool)
//
// The table has one row per feature:
//
//	feature_id TEXT PRIMARY KEY
//	percentage DOUBLE PRECISION NOT NULL
//
// Writes are single-statement upserts, so concurrent writers never see a
// duplicate key error. Query failures are reported as
// feature.ErrBackendUnavailable.
package pg
