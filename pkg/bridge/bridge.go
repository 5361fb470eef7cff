// Package bridge connects the devices to a link: application data is
// encoded and sent, received packets are decoded and delivered.
package bridge

import (
	"context"
	"io"
	"sync"

	"github.com/golang/glog"

	"github.com/robotalks/repcode/pkg/codec"
	"github.com/robotalks/repcode/pkg/device"
	"github.com/robotalks/repcode/pkg/link"
)

// Message is a decoded payload delivered by the Receiver.
type Message struct {
	Data   []byte
	Result codec.Result
}

// Handler is called when a message is decoded.
type Handler interface {
	HandleMessage(context.Context, *Message)
}

// HandleMessageFunc is func type of Handler.
type HandleMessageFunc func(context.Context, *Message)

// HandleMessage implements Handler.
func (f HandleMessageFunc) HandleMessage(ctx context.Context, msg *Message) {
	f(ctx, msg)
}

// Transmitter encodes data through a file opened on the encoder device and
// writes it to the link.
type Transmitter struct {
	File   *device.File
	Writer link.PacketWriter

	sendLock sync.Mutex
}

// NewTransmitter creates a Transmitter.
func NewTransmitter(f *device.File, w link.PacketWriter) *Transmitter {
	return &Transmitter{File: f, Writer: w}
}

// Send encodes data and sends the encoded payload. Nothing is sent if the
// encoded payload is empty.
func (t *Transmitter) Send(data []byte) (codec.Result, error) {
	t.sendLock.Lock()
	defer t.sendLock.Unlock()
	payload, r, err := t.File.Exchange(data)
	if err != nil || len(payload) == 0 {
		return r, err
	}
	return r, t.Writer.WritePacket(payload)
}

// Receiver reads packets from the link and decodes them through a file
// opened on the decoder device.
type Receiver struct {
	File    *device.File
	Reader  link.PacketReader
	Handler Handler
}

// NewReceiver creates a Receiver.
func NewReceiver(f *device.File, r link.PacketReader, h Handler) *Receiver {
	return &Receiver{File: f, Reader: r, Handler: h}
}

// Receive reads and decodes one packet. A nil message is returned when the
// packet decodes to nothing.
func (r *Receiver) Receive() (*Message, error) {
	pkt, err := r.Reader.ReadPacket()
	if err != nil {
		return nil, err
	}
	data, res, err := r.File.Exchange(pkt)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		glog.V(2).Infof("%s: dropped packet of %d bytes decoding to nothing", r.File.Device().Name, len(pkt))
		return nil, nil
	}
	return &Message{Data: data, Result: res}, nil
}

// Run implements framework.Runnable. It stops when the link reaches EOF.
func (r *Receiver) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		msg, err := r.Receive()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if msg != nil && r.Handler != nil {
			r.Handler.HandleMessage(ctx, msg)
		}
	}
}
