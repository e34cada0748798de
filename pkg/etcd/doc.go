// Package etcd stores feature rollout percentages in etcd v3.
//
//	client, err := etcd.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer client.Close()
//
//	lookup, err := etcd.NewLookup(client, cfg.Preamble, cfg.RequestTimeout)
//
// Values are plain decimal strings, so "etcdctl put app_feature_flag/checkout 0.5"
// rolls a feature out to half of the callers.
package etcd
