package link

import (
	"io"
	"math/bits"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoopback(t *testing.T) {
	a, b := NewLoopback(2)
	pkt := []byte{1, 2, 3}
	require.NoError(t, a.WritePacket(pkt))
	pkt[0] = 9
	require.NoError(t, b.WritePacket([]byte{4}))

	got, err := b.ReadPacket()
	require.NoError(t, err)
	require.Equal(t, []byte{1, 2, 3}, got)
	got, err = a.ReadPacket()
	require.NoError(t, err)
	require.Equal(t, []byte{4}, got)

	require.NoError(t, b.Close())
	_, err = a.ReadPacket()
	require.Equal(t, io.EOF, err)
	require.Equal(t, io.ErrClosedPipe, a.WritePacket(pkt))
}

func TestFlipBits(t *testing.T) {
	rnd := rand.New(rand.NewSource(3))
	p := make([]byte, 100)
	require.Zero(t, FlipBits(p, 0, rnd))
	require.Equal(t, make([]byte, 100), p)

	require.Equal(t, 800, FlipBits(p, 1, rnd))
	for _, b := range p {
		require.Equal(t, byte(0xff), b)
	}

	p = make([]byte, 1000)
	flipped := FlipBits(p, 0.01, rnd)
	var ones int
	for _, b := range p {
		ones += bits.OnesCount8(b)
	}
	require.Equal(t, flipped, ones)
	require.InDelta(t, 80, flipped, 40)
}

func TestNoisy(t *testing.T) {
	a, b := NewLoopback(1)
	noisy := NewNoisy(a, 1, 1)
	pkt := []byte{0x0f}
	require.NoError(t, noisy.WritePacket(pkt))
	require.Equal(t, []byte{0x0f}, pkt, "source packet must not be modified")
	got, err := b.ReadPacket()
	require.NoError(t, err)
	require.Equal(t, []byte{0xf0}, got)
}
