package bridge

import "errors"

var (
	// ErrListen indicates a listening endpoint could not be bound.
	ErrListen = errors.New("bridge: listen failed")

	// ErrClosed indicates the bridge has been closed.
	ErrClosed = errors.New("bridge: closed")

	// ErrAlreadyRunning indicates Run was called more than once.
	ErrAlreadyRunning = errors.New("bridge: already running")

	// ErrSerialWrite indicates the serial channel rejected a frame.
	ErrSerialWrite = errors.New("bridge: serial write failed")

	// ErrHandlerPanic indicates a connection handler panicked.
	ErrHandlerPanic = errors.New("bridge: handler panic")

	// ErrSerialNil indicates a nil serial channel was given to New.
	ErrSerialNil = errors.New("bridge: serial channel is nil")

	// ErrConfigNil indicates a nil Config was given to New.
	ErrConfigNil = errors.New("bridge: config is nil")
)
