package msgs

import (
	"io"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/golang/glog"

	"github.com/robotalks/repcode/pkg/link"
)

// ErrFramingMismatch indicates the peer encodes payloads with a different
// framing, so they can't be decoded here.
var ErrFramingMismatch = errors.New("frames: framing mismatch")

// Framed wraps packets into Frames with a sequence number. Gaps in the
// received sequence are counted as lost frames. Flags are sent with every
// frame, received frames must carry the same FrameFlagLengthFraming bit.
type Framed struct {
	ReadWriter link.PacketReadWriter
	Flags      uint32

	sendLock sync.Mutex
	sendSeq  uint32

	recvLock sync.Mutex
	recvSeq  uint32
	lost     uint64
}

// NewFramed creates a Framed over rw.
func NewFramed(rw link.PacketReadWriter) *Framed {
	return &Framed{ReadWriter: rw}
}

// WritePacket implements link.PacketWriter.
func (f *Framed) WritePacket(pkt []byte) error {
	f.sendLock.Lock()
	defer f.sendLock.Unlock()
	f.sendSeq++
	if f.sendSeq == 0 {
		f.sendSeq++
	}
	data, err := (&Frame{Seq: f.sendSeq, Payload: pkt, Flags: f.Flags}).Encode()
	if err != nil {
		return err
	}
	return f.ReadWriter.WritePacket(data)
}

// ReadPacket implements link.PacketReader.
func (f *Framed) ReadPacket() ([]byte, error) {
	frame, err := f.ReadFrame()
	if err != nil {
		return nil, err
	}
	return frame.Payload, nil
}

// ReadFrame reads the next frame.
func (f *Framed) ReadFrame() (*Frame, error) {
	data, err := f.ReadWriter.ReadPacket()
	if err != nil {
		return nil, err
	}
	frame, err := DecodeFrame(data)
	if err != nil {
		return nil, err
	}
	f.recvLock.Lock()
	if f.recvSeq != 0 && frame.Seq > f.recvSeq+1 {
		gap := frame.Seq - f.recvSeq - 1
		f.lost += uint64(gap)
		glog.Warningf("frames: %d frame(s) lost before seq %d", gap, frame.Seq)
	}
	f.recvSeq = frame.Seq
	f.recvLock.Unlock()
	if (frame.Flags^f.Flags)&FrameFlagLengthFraming != 0 {
		return nil, errors.Wrapf(ErrFramingMismatch, "seq %d: flags 0x%x, expect 0x%x",
			frame.Seq, frame.Flags&FrameFlagLengthFraming, f.Flags&FrameFlagLengthFraming)
	}
	return frame, nil
}

// Lost returns the number of frames detected as lost.
func (f *Framed) Lost() uint64 {
	f.recvLock.Lock()
	defer f.recvLock.Unlock()
	return f.lost
}

// Close implements io.Closer.
func (f *Framed) Close() error {
	if closer, ok := f.ReadWriter.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
