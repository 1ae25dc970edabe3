package uart

import "errors"

var (
	// ErrPortClosed indicates a write to a closed port.
	ErrPortClosed = errors.New("uart: port closed")

	// ErrWriterClosed indicates a write to a closed Writer.
	ErrWriterClosed = errors.New("uart: writer closed")

	// ErrNoDevice indicates no serial device is configured and none matched the discovery pattern.
	ErrNoDevice = errors.New("uart: no serial device found")

	// ErrShortWrite indicates the port accepted no bytes of a pending frame.
	ErrShortWrite = errors.New("uart: short write")
)
