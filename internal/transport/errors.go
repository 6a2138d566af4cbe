package transport

import "errors"

var (
	// ErrListenerStopped is returned by Accept once Stop has been called.
	ErrListenerStopped = errors.New("transport: listener stopped")
	// ErrNotOpen is returned by Send when the connection isn't in the
	// Open state (still connecting, or already closing/closed).
	ErrNotOpen = errors.New("transport: connection not open")
)
