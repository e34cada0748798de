package etcd

import (
	"context"
	"errors"

	clientv3 "go.etcd.io/etcd/client/v3"
)

// Connect creates a client for cfg.Endpoints and checks that the cluster
// answers within cfg.DialTimeout.
func Connect(ctx context.Context, cfg Config) (*clientv3.Client, error) {
	if len(cfg.Endpoints) == 0 {
		return nil, ErrNoEndpoints
	}
	client, err := clientv3.New(clientv3.Config{
		Endpoints:   cfg.Endpoints,
		DialTimeout: cfg.DialTimeout,
		Username:    cfg.Username,
		Password:    cfg.Password,
		Context:     ctx,
	})
	if err != nil {
		return nil, errors.Join(ErrFailedToConnect, err)
	}

	if err := Healthcheck(client, cfg.DialTimeout)(ctx); err != nil {
		_ = client.Close()
		return nil, errors.Join(ErrFailedToConnect, err)
	}
	return client, nil
}
