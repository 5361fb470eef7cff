package msgs

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"

	"github.com/robotalks/repcode/pkg/link"
)

func TestFrameEncoding(t *testing.T) {
	data, err := (&Frame{Seq: 1, Payload: []byte("AAA\x00"), Flags: FrameFlagLengthFraming}).Encode()
	require.NoError(t, err)
	// seq=1, payload=4 bytes, flags=1
	require.Equal(t, []byte{0x08, 0x01, 0x12, 0x04, 'A', 'A', 'A', 0, 0x18, 0x01}, data)

	frame, err := DecodeFrame(data)
	require.NoError(t, err)
	require.Equal(t, uint32(1), frame.Seq)
	require.Equal(t, []byte("AAA\x00"), frame.Payload)
	require.Equal(t, FrameFlagLengthFraming, frame.Flags)

	_, err = DecodeFrame([]byte{0x12, 0x05, 'A'})
	require.Error(t, err)
}

func TestFramed(t *testing.T) {
	a, b := link.NewLoopback(8)
	tx, rx := NewFramed(a), NewFramed(b)

	require.NoError(t, tx.WritePacket([]byte("one")))
	pkt, err := rx.ReadPacket()
	require.NoError(t, err)
	require.Equal(t, []byte("one"), pkt)

	// lose two frames in between.
	require.NoError(t, tx.WritePacket([]byte("two")))
	require.NoError(t, tx.WritePacket([]byte("three")))
	_, err = b.ReadPacket()
	require.NoError(t, err)
	_, err = b.ReadPacket()
	require.NoError(t, err)
	require.NoError(t, tx.WritePacket([]byte("four")))

	frame, err := rx.ReadFrame()
	require.NoError(t, err)
	require.Equal(t, uint32(4), frame.Seq)
	require.Equal(t, []byte("four"), frame.Payload)
	require.Equal(t, uint64(2), rx.Lost())
	require.NoError(t, rx.Close())
}

func TestFramedFramingMismatch(t *testing.T) {
	a, b := link.NewLoopback(8)
	tx, rx := NewFramed(a), NewFramed(b)
	tx.Flags = FrameFlagLengthFraming

	require.NoError(t, tx.WritePacket([]byte("AAA\x00\x00\x00BBB")))
	_, err := rx.ReadPacket()
	require.True(t, errors.Is(err, ErrFramingMismatch))

	// the next matching frame is accepted, the rejected one isn't lost.
	rx.Flags = FrameFlagLengthFraming
	require.NoError(t, tx.WritePacket([]byte("CCC")))
	pkt, err := rx.ReadPacket()
	require.NoError(t, err)
	require.Equal(t, []byte("CCC"), pkt)
	require.Zero(t, rx.Lost())

	// and the other way around.
	tx.Flags = 0
	require.NoError(t, tx.WritePacket([]byte("DDD\x00")))
	_, err = rx.ReadFrame()
	require.True(t, errors.Is(err, ErrFramingMismatch))
}
