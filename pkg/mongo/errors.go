package mongo

import "errors"

var (
	ErrEmptyConnectionURL = errors.New("mongo: connection URL is empty")
	ErrConnect            = errors.New("mongo: cannot connect to the deployment")
	ErrHealthcheckFailed  = errors.New("mongo: primary is not reachable")
	ErrNilCollection      = errors.New("mongo: collection is nil")
	ErrNilClient          = errors.New("mongo: client is nil")
)
