package bridge

import (
	"context"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"

	"github.com/robotalks/repcode/pkg/codec"
	"github.com/robotalks/repcode/pkg/device"
	"github.com/robotalks/repcode/pkg/link"
	"github.com/robotalks/repcode/pkg/link/msgs"
)

func mustOpen(t *testing.T, dev *device.Device) *device.File {
	f, err := dev.Open()
	require.NoError(t, err)
	return f
}

type bridgeTestCtx struct {
	tx    *Transmitter
	rx    *Receiver
	msgCh chan *Message
	errCh chan error
	close func()
}

func newBridgeTest(t *testing.T, framing codec.Framing, wrap func(link.PacketWriter) link.PacketWriter) *bridgeTestCtx {
	a, b := link.NewLoopback(16)
	var w link.PacketWriter = a
	if wrap != nil {
		w = wrap(a)
	}
	c := &bridgeTestCtx{
		msgCh: make(chan *Message, 16),
		errCh: make(chan error, 1),
	}
	c.tx = NewTransmitter(mustOpen(t, device.NewEncoder(framing)), w)
	c.rx = NewReceiver(mustOpen(t, device.NewDecoder(framing)), b, HandleMessageFunc(func(ctx context.Context, msg *Message) {
		c.msgCh <- msg
	}))
	ctx, cancel := context.WithCancel(context.Background())
	go func() { c.errCh <- c.rx.Run(ctx) }()
	c.close = func() {
		defer cancel()
		a.Close()
		require.NoError(t, <-c.errCh)
	}
	return c
}

func (c *bridgeTestCtx) expectMessage(t *testing.T) *Message {
	t.Helper()
	select {
	case msg := <-c.msgCh:
		return msg
	case <-time.After(time.Second):
		t.Fatal("expect message timeout")
	}
	return nil
}

func TestBridge(t *testing.T) {
	c := newBridgeTest(t, codec.FramingSentinel, nil)
	defer c.close()

	r, err := c.tx.Send([]byte("hello"))
	require.NoError(t, err)
	require.Equal(t, 16, r.N)
	msg := c.expectMessage(t)
	require.Equal(t, []byte("hello"), msg.Data)
	require.Zero(t, msg.Result.CorrectedBits)

	r, err = c.tx.Send(nil)
	require.NoError(t, err)
	require.True(t, r.Flags.IsEmpty())

	_, err = c.tx.Send([]byte("world"))
	require.NoError(t, err)
	require.Equal(t, []byte("world"), c.expectMessage(t).Data)
	require.Equal(t, 1, c.tx.File.Device().Stats().Opens)
	require.Equal(t, 3, c.tx.File.Device().Stats().Writes)
}

func TestBridgeBinary(t *testing.T) {
	c := newBridgeTest(t, codec.FramingLength, nil)
	defer c.close()
	_, err := c.tx.Send([]byte{0, 1, 0, 2})
	require.NoError(t, err)
	require.Equal(t, []byte{0, 1, 0, 2}, c.expectMessage(t).Data)
}

// corruptOneCopy flips a bit in the second copy of every triplet.
type corruptOneCopy struct {
	link.PacketWriter
}

func (c corruptOneCopy) WritePacket(pkt []byte) error {
	out := make([]byte, len(pkt))
	copy(out, pkt)
	for i := 1; i+1 < len(out); i += codec.Copies {
		out[i] ^= 0x40
	}
	return c.PacketWriter.WritePacket(out)
}

func TestBridgeCorrectsSingleCopyErrors(t *testing.T) {
	c := newBridgeTest(t, codec.FramingSentinel, func(w link.PacketWriter) link.PacketWriter {
		return corruptOneCopy{w}
	})
	defer c.close()
	_, err := c.tx.Send([]byte("noisy line"))
	require.NoError(t, err)
	msg := c.expectMessage(t)
	require.Equal(t, []byte("noisy line"), msg.Data)
	require.Equal(t, 10, msg.Result.CorrectedBits)
	require.Equal(t, 10, c.rx.File.Device().Stats().CorrectedBits)
}

func TestBridgeFramed(t *testing.T) {
	a, b := link.NewLoopback(4)
	tx := NewTransmitter(mustOpen(t, device.NewEncoder(codec.FramingSentinel)), msgs.NewFramed(a))
	rx := NewReceiver(mustOpen(t, device.NewDecoder(codec.FramingSentinel)), msgs.NewFramed(b), nil)
	_, err := tx.Send([]byte("framed"))
	require.NoError(t, err)
	msg, err := rx.Receive()
	require.NoError(t, err)
	require.Equal(t, []byte("framed"), msg.Data)
}

func TestReceiveEmptyPacket(t *testing.T) {
	a, b := link.NewLoopback(1)
	rx := NewReceiver(mustOpen(t, device.NewDecoder(codec.FramingSentinel)), b, nil)
	require.NoError(t, a.WritePacket([]byte("\x00")))
	msg, err := rx.Receive()
	require.NoError(t, err)
	require.Nil(t, msg)
}

func TestBridgeFramingMismatch(t *testing.T) {
	a, b := link.NewLoopback(4)
	framedTx := msgs.NewFramed(a)
	framedTx.Flags = msgs.FrameFlagLengthFraming
	tx := NewTransmitter(mustOpen(t, device.NewEncoder(codec.FramingLength)), framedTx)
	rx := NewReceiver(mustOpen(t, device.NewDecoder(codec.FramingSentinel)), msgs.NewFramed(b), nil)
	_, err := tx.Send([]byte("A\x00B"))
	require.NoError(t, err)
	msg, err := rx.Receive()
	require.True(t, errors.Is(err, msgs.ErrFramingMismatch))
	require.Nil(t, msg)
	require.Zero(t, rx.File.Device().Stats().Writes)
}
