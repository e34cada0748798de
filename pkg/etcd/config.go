package etcd

import "time"

type Config struct {
	Endpoints      []string      `env:"ETCD_ENDPOINTS" envSeparator:"," envDefault:"localhost:2379"` // Endpoints lists the cluster members.
	Username       string        `env:"ETCD_USERNAME"`                                               // Username enables authentication when set.
	Password       string        `env:"ETCD_PASSWORD"`                                               // Password pairs with Username.
	DialTimeout    time.Duration `env:"ETCD_DIAL_TIMEOUT" envDefault:"5s"`                           // DialTimeout bounds the initial connection.
	Preamble       string        `env:"ETCD_PREAMBLE" envDefault:""`                                 // Preamble namespaces the keys: "<preamble>_feature_flag/<id>".
	RequestTimeout time.Duration `env:"ETCD_REQUEST_TIMEOUT" envDefault:"100ms"`                     // RequestTimeout bounds every lookup call.
}
