package pharos

import "errors"

var (
	// ErrShutdown is returned when operating on a shut-down Client.
	ErrShutdown = errors.New("pharos: client has been shut down")
)
