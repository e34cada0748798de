package dynamodb

import "errors"

var (
	ErrMissingRegion      = errors.New("dynamodb: region is required")
	ErrFailedToLoadConfig = errors.New("dynamodb: failed to load aws config")
	ErrNilClient          = errors.New("dynamodb: client is nil")
	ErrTableNotReady      = errors.New("dynamodb: table did not become active")
	ErrTableMisconfigured = errors.New("dynamodb: table key schema does not match")
	ErrHealthcheckFailed  = errors.New("dynamodb: healthcheck failed")
)
