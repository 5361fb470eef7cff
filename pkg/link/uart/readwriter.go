// Package uart carries packets over a serial device node. Packets are
// delimited by the sentinel byte the encoder appends, so payloads must use
// sentinel framing. Line settings (baud rate, pin muxing) are configured
// outside of this package.
package uart

import (
	"bufio"
	"io"
	"os"

	"github.com/golang/glog"

	"github.com/robotalks/repcode/pkg/codec"
)

// ReadWriter implements link.PacketReadWriter.
type ReadWriter struct {
	// MaxPacketSize bounds a packet whose terminator was lost on the line.
	MaxPacketSize int

	rw     io.ReadWriter
	reader *bufio.Reader
}

// New creates a ReadWriter over a byte stream.
func New(rw io.ReadWriter) *ReadWriter {
	return &ReadWriter{
		MaxPacketSize: codec.MaxEncodedSize,
		rw:            rw,
		reader:        bufio.NewReader(rw),
	}
}

// Open opens a serial device node, e.g. /dev/ttyO1.
func Open(path string) (*ReadWriter, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, err
	}
	return New(f), nil
}

// ReadPacket implements link.PacketReader. The returned packet includes the
// terminator. Stray terminators between packets are skipped.
func (p *ReadWriter) ReadPacket() ([]byte, error) {
	var pkt []byte
	for {
		b, err := p.reader.ReadByte()
		if err != nil {
			if err == io.EOF && len(pkt) > 0 {
				err = io.ErrUnexpectedEOF
			}
			return nil, err
		}
		if b == codec.Sentinel {
			if len(pkt) == 0 {
				continue
			}
			return append(pkt, b), nil
		}
		pkt = append(pkt, b)
		if p.MaxPacketSize > 0 && len(pkt) >= p.MaxPacketSize {
			glog.Warningf("uart: no terminator within %d bytes", len(pkt))
			return pkt, nil
		}
	}
}

// WritePacket implements link.PacketWriter. A terminator is appended if the
// packet doesn't end with one. Empty packets are not sent.
func (p *ReadWriter) WritePacket(pkt []byte) error {
	if len(pkt) == 0 {
		return nil
	}
	if pkt[len(pkt)-1] != codec.Sentinel {
		pkt = append(pkt[:len(pkt):len(pkt)], codec.Sentinel)
	}
	_, err := p.rw.Write(pkt)
	return err
}

// Close implements io.Closer.
func (p *ReadWriter) Close() error {
	if closer, ok := p.rw.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
