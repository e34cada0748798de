// Package dynamodb stores feature rollout percentages in an Amazon DynamoDB
// table keyed by feature_id.
//
// NewClient builds a *dynamodb.Client from Config, Lookup implements
// feature.Lookup and ControlPlane creates and verifies the table:
//
//	client, err := dynamodb.NewClient(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	cp, _ := dynamodb.NewControlPlane(client, cfg.Table, cfg.SetupTimeout)
//	if err := cp.EnsureTable(ctx); err != nil {
//		return err
//	}
//	lookup, err := dynamodb.NewLookup(client, cfg.Table)
//
// Reads are strongly consistent. Percentages are stored as number attributes
// holding the shortest decimal representation of the value.
package dynamodb
