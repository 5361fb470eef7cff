package device

import (
	"context"
	"sync"

	"github.com/golang/glog"

	"github.com/robotalks/repcode/pkg/codec"
)

// Device names.
const (
	EncoderName = "UARTencode"
	DecoderName = "UARTdecode"
)

// State is the state of the pending buffer.
type State int

const (
	// StateEmpty means nothing is pending.
	StateEmpty State = iota
	// StateHolding means a payload is pending.
	StateHolding
)

// String implements fmt.Stringer.
func (s State) String() string {
	if s == StateHolding {
		return "holding"
	}
	return "empty"
}

// Stats are the counters of a device.
type Stats struct {
	Opens           int
	Writes          int
	Reads           int
	EmptyReads      int
	Overwrites      int
	Truncations     int
	SentinelStops   int
	PartialTriplets int
	ReadTruncations int
	CorrectedBits   int
}

func (s *Stats) record(r codec.Result) {
	s.Writes++
	if r.Flags.IsTruncated() {
		s.Truncations++
	}
	if r.Flags.IsSentinelStop() {
		s.SentinelStops++
	}
	if r.Flags.IsPartialTriplet() {
		s.PartialTriplets++
	}
	s.CorrectedBits += r.CorrectedBits
}

// Device transforms written data and holds the result until read.
type Device struct {
	Name string

	transformer codec.Transformer

	lock     sync.Mutex
	buf      []byte
	size     int
	last     codec.Result
	stats    Stats
	readyCh  chan struct{}
	closedCh chan struct{}
	closed   bool
}

// New creates a Device with a transformer.
func New(name string, t codec.Transformer) *Device {
	return &Device{
		Name:        name,
		transformer: t,
		buf:         make([]byte, t.OutputSize()),
		readyCh:     make(chan struct{}),
		closedCh:    make(chan struct{}),
	}
}

// NewEncoder creates the encoding device.
func NewEncoder(framing codec.Framing) *Device {
	return New(EncoderName, codec.Encoder{Framing: framing})
}

// NewDecoder creates the decoding device.
func NewDecoder(framing codec.Framing) *Device {
	return New(DecoderName, codec.Decoder{Framing: framing})
}

// Capacity is the maximum length of a write, the excess is dropped.
func (d *Device) Capacity() int {
	return d.transformer.Capacity()
}

// BufferSize is the capacity of the pending buffer.
func (d *Device) BufferSize() int {
	return len(d.buf)
}

// Open opens a file on the device.
func (d *Device) Open() (*File, error) {
	d.lock.Lock()
	defer d.lock.Unlock()
	if d.closed {
		return nil, ErrClosed
	}
	d.stats.Opens++
	glog.Infof("%s: device has been opened %d time(s)", d.Name, d.stats.Opens)
	return &File{dev: d}, nil
}

// State gets the state.
func (d *Device) State() State {
	d.lock.Lock()
	defer d.lock.Unlock()
	if d.size > 0 {
		return StateHolding
	}
	return StateEmpty
}

// Len returns the length of the pending payload.
func (d *Device) Len() int {
	d.lock.Lock()
	defer d.lock.Unlock()
	return d.size
}

// Stats returns a snapshot of the counters.
func (d *Device) Stats() Stats {
	d.lock.Lock()
	defer d.lock.Unlock()
	return d.stats
}

// LastResult returns the result of the latest write.
func (d *Device) LastResult() codec.Result {
	d.lock.Lock()
	defer d.lock.Unlock()
	return d.last
}

// Transfer transforms p into the pending buffer and returns the result.
func (d *Device) Transfer(p []byte) (codec.Result, error) {
	d.lock.Lock()
	defer d.lock.Unlock()
	if d.closed {
		return codec.Result{}, ErrClosed
	}
	return d.store(p), nil
}

// Write implements io.Writer. It reports the full length of p as written,
// even if some of it was dropped by the transform. See Transfer or
// LastResult for details.
func (d *Device) Write(p []byte) (int, error) {
	if _, err := d.Transfer(p); err != nil {
		return 0, err
	}
	return len(p), nil
}

// WriteN writes the first n bytes of p. n beyond the length of p is an
// ErrIOFault.
func (d *Device) WriteN(p []byte, n int) (int, error) {
	if n < 0 || n > len(p) {
		return 0, ioFault(d.Name, "write", n, len(p))
	}
	return d.Write(p[:n])
}

// Read drains the pending payload into p. It returns 0 immediately if
// nothing is pending. If p is too small, the payload is clamped to len(p)
// and ErrTruncated is returned.
func (d *Device) Read(p []byte) (int, error) {
	d.lock.Lock()
	defer d.lock.Unlock()
	if d.closed {
		return 0, ErrClosed
	}
	return d.drain(p)
}

// ReadN reads at most capacity bytes into p. capacity beyond the length of
// p is an ErrIOFault and the pending payload is kept.
func (d *Device) ReadN(p []byte, capacity int) (int, error) {
	if capacity < 0 || capacity > len(p) {
		return 0, ioFault(d.Name, "read", capacity, len(p))
	}
	return d.Read(p[:capacity])
}

// Drain returns a copy of the pending payload and empties the device.
// It returns nil if nothing is pending.
func (d *Device) Drain() ([]byte, error) {
	d.lock.Lock()
	defer d.lock.Unlock()
	if d.closed {
		return nil, ErrClosed
	}
	return d.drainCopy(), nil
}

// Exchange writes p and drains the result at once, so no other writer can
// replace the payload in between.
func (d *Device) Exchange(p []byte) ([]byte, codec.Result, error) {
	d.lock.Lock()
	defer d.lock.Unlock()
	if d.closed {
		return nil, codec.Result{}, ErrClosed
	}
	r := d.store(p)
	return d.drainCopy(), r, nil
}

// Wait blocks until a payload is pending, the device is closed or ctx is
// done.
func (d *Device) Wait(ctx context.Context) error {
	d.lock.Lock()
	closed, readyCh := d.closed, d.readyCh
	d.lock.Unlock()
	if closed {
		return ErrClosed
	}
	select {
	case <-readyCh:
		return nil
	case <-d.closedCh:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ReadWait is the blocking form of Read.
func (d *Device) ReadWait(ctx context.Context, p []byte) (int, error) {
	for {
		if err := d.Wait(ctx); err != nil {
			return 0, err
		}
		// another reader may have drained it first.
		if n, err := d.Read(p); n > 0 || err != nil {
			return n, err
		}
	}
}

// Close removes the device. Pending data is discarded and blocked waiters
// are released with ErrClosed.
func (d *Device) Close() error {
	d.lock.Lock()
	defer d.lock.Unlock()
	if d.closed {
		return ErrClosed
	}
	d.closed = true
	d.setSize(0)
	close(d.closedCh)
	glog.Infof("%s: device removed", d.Name)
	return nil
}

func (d *Device) store(p []byte) codec.Result {
	if d.size > 0 {
		d.stats.Overwrites++
		glog.Warningf("%s: unread payload of %d bytes overwritten", d.Name, d.size)
	}
	r := d.transformer.Transform(d.buf, p)
	d.last = r
	d.stats.record(r)
	d.setSize(r.N)
	d.logResult(len(p), r)
	return r
}

func (d *Device) drain(p []byte) (n int, err error) {
	if d.size == 0 {
		d.stats.EmptyReads++
		return 0, nil
	}
	n = copy(p, d.buf[:d.size])
	if n < d.size {
		d.stats.ReadTruncations++
		err = ioTruncated(d.Name, n, d.size)
		glog.Warningf("%v", err)
	}
	d.stats.Reads++
	glog.V(2).Infof("%s: sent %d characters to the user", d.Name, n)
	d.setSize(0)
	return
}

func (d *Device) drainCopy() []byte {
	if d.size == 0 {
		d.stats.EmptyReads++
		return nil
	}
	out := make([]byte, d.size)
	copy(out, d.buf[:d.size])
	d.stats.Reads++
	d.setSize(0)
	return out
}

func (d *Device) setSize(n int) {
	holding := d.size > 0
	d.size = n
	switch {
	case n > 0 && !holding:
		close(d.readyCh)
	case n == 0 && holding:
		d.readyCh = make(chan struct{})
	}
}

func (d *Device) logResult(inputLen int, r codec.Result) {
	if glog.V(2) {
		glog.Infof("%s: prepared %d bytes from %d input bytes", d.Name, r.N, inputLen)
	}
	if r.Flags.IsTruncated() {
		glog.Warningf("%s: input of %d bytes exceeds capacity %d, excess dropped", d.Name, inputLen, d.transformer.Capacity())
	}
	if r.Flags.IsSentinelStop() {
		glog.Warningf("%s: data after sentinel dropped", d.Name)
	}
	if r.Flags.IsPartialTriplet() {
		glog.Warningf("%s: incomplete trailing triplet dropped", d.Name)
	}
	if r.CorrectedBits > 0 {
		glog.V(1).Infof("%s: corrected %d bit(s)", d.Name, r.CorrectedBits)
	}
}
