package redis

import "errors"

var (
	ErrEmptyConnectionURL   = errors.New("redis: connection URL is empty")
	ErrInvalidConnectionURL = errors.New("redis: cannot parse connection URL")
	ErrRedisNotReady        = errors.New("redis: server did not answer within the retry budget")
	ErrHealthcheckFailed    = errors.New("redis: healthcheck failed")
	ErrNilClient            = errors.New("redis: client is nil")
)
