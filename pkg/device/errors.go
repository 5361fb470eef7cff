package device

import "github.com/cockroachdb/errors"

var (
	// ErrIOFault indicates data couldn't be copied across the device boundary,
	// e.g. the requested length exceeds the supplied buffer. The device state
	// is not changed.
	ErrIOFault = errors.New("io fault")
	// ErrTruncated indicates the pending payload didn't fit in the buffer
	// supplied to a read. The payload is drained regardless.
	ErrTruncated = errors.New("read truncated")
	// ErrClosed indicates the device has been removed or the file closed.
	ErrClosed = errors.New("device closed")
)

func ioFault(name, op string, length, size int) error {
	return errors.Wrapf(ErrIOFault, "%s: %s %d bytes with a %d byte buffer", name, op, length, size)
}

func ioTruncated(name string, n, size int) error {
	return errors.Wrapf(ErrTruncated, "%s: read %d of %d bytes", name, n, size)
}
