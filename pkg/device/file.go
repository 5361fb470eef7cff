package device

import (
	"io"
	"sync/atomic"

	"github.com/golang/glog"

	"github.com/robotalks/repcode/pkg/codec"
)

// File is an opened handle of a Device. All files of a device share the
// same pending buffer.
type File struct {
	dev    *Device
	closed atomic.Bool
}

// Device returns the device of the file.
func (f *File) Device() *Device {
	return f.dev
}

// Write implements io.Writer.
func (f *File) Write(p []byte) (int, error) {
	if f.closed.Load() {
		return 0, ErrClosed
	}
	return f.dev.Write(p)
}

// Transfer is Device.Transfer through the file.
func (f *File) Transfer(p []byte) (codec.Result, error) {
	if f.closed.Load() {
		return codec.Result{}, ErrClosed
	}
	return f.dev.Transfer(p)
}

// Exchange is Device.Exchange through the file.
func (f *File) Exchange(p []byte) ([]byte, codec.Result, error) {
	if f.closed.Load() {
		return nil, codec.Result{}, ErrClosed
	}
	return f.dev.Exchange(p)
}

// Drain is Device.Drain through the file.
func (f *File) Drain() ([]byte, error) {
	if f.closed.Load() {
		return nil, ErrClosed
	}
	return f.dev.Drain()
}

// Read implements io.Reader. An empty device reads as io.EOF.
func (f *File) Read(p []byte) (int, error) {
	if f.closed.Load() {
		return 0, ErrClosed
	}
	if len(p) == 0 {
		return 0, nil
	}
	n, err := f.dev.Read(p)
	if n == 0 && err == nil {
		return 0, io.EOF
	}
	return n, err
}

// Close implements io.Closer. Nothing is released.
func (f *File) Close() error {
	if !f.closed.CompareAndSwap(false, true) {
		return ErrClosed
	}
	glog.Infof("%s: device successfully closed", f.dev.Name)
	return nil
}
