package httpserver

import "errors"

var (
	ErrStart          = errors.New("httpserver: cannot start")
	ErrShutdown       = errors.New("httpserver: graceful shutdown failed")
	ErrAlreadyRunning = errors.New("httpserver: Run called on a running server")
)
