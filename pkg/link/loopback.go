package link

import (
	"io"
	"sync"
)

// Loopback is an in-memory PacketReadWriter. Written packets are read back
// in order from the peer end.
type Loopback struct {
	recvCh <-chan []byte
	sendCh chan<- []byte
	closed *loopbackState
}

type loopbackState struct {
	once   sync.Once
	doneCh chan struct{}
}

// NewLoopback creates a connected pair of Loopback ends. buffered is the
// number of packets buffered per direction.
func NewLoopback(buffered int) (*Loopback, *Loopback) {
	a2b, b2a := make(chan []byte, buffered), make(chan []byte, buffered)
	state := &loopbackState{doneCh: make(chan struct{})}
	return &Loopback{recvCh: b2a, sendCh: a2b, closed: state},
		&Loopback{recvCh: a2b, sendCh: b2a, closed: state}
}

// ReadPacket implements PacketReader.
func (l *Loopback) ReadPacket() ([]byte, error) {
	select {
	case pkt := <-l.recvCh:
		return pkt, nil
	case <-l.closed.doneCh:
		return nil, io.EOF
	}
}

// WritePacket implements PacketWriter.
func (l *Loopback) WritePacket(pkt []byte) error {
	select {
	case <-l.closed.doneCh:
		return io.ErrClosedPipe
	default:
	}
	cp := make([]byte, len(pkt))
	copy(cp, pkt)
	select {
	case l.sendCh <- cp:
		return nil
	case <-l.closed.doneCh:
		return io.ErrClosedPipe
	}
}

// Close implements io.Closer, both ends are closed.
func (l *Loopback) Close() error {
	l.closed.once.Do(func() { close(l.closed.doneCh) })
	return nil
}
