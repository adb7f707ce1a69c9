package domain

import "errors"

var (
	// ErrBusLock means access to the listener table could not be obtained.
	// The attempted operation did not happen; the bus state is unchanged.
	ErrBusLock = errors.New("event bus: listener table is not accessible")

	// ErrDisconnected means the bus reached its emission cap. It is terminal.
	ErrDisconnected = errors.New("event bus: disconnected, emission limit reached")

	// ErrNilListener is returned when registering a nil listener.
	ErrNilListener = errors.New("event bus: listener cannot be nil")
)
