package etcd

import "errors"

var (
	ErrNoEndpoints       = errors.New("etcd: no endpoints configured")
	ErrFailedToConnect   = errors.New("etcd: failed to connect")
	ErrNilKV             = errors.New("etcd: kv client is nil")
	ErrHealthcheckFailed = errors.New("etcd: healthcheck failed")
)
