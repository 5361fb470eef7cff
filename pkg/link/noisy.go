package link

import (
	"math/rand"
	"sync"

	"github.com/golang/glog"
)

// Noisy flips bits of packets written through it, simulating a lossy
// serial line.
type Noisy struct {
	Writer PacketWriter
	// BitErrorRate is the probability of each bit being flipped.
	BitErrorRate float64

	rnd  *rand.Rand
	lock sync.Mutex
}

// NewNoisy creates a Noisy writer.
func NewNoisy(w PacketWriter, rate float64, seed int64) *Noisy {
	return &Noisy{Writer: w, BitErrorRate: rate, rnd: rand.New(rand.NewSource(seed))}
}

// WritePacket implements PacketWriter.
func (n *Noisy) WritePacket(pkt []byte) error {
	out := make([]byte, len(pkt))
	copy(out, pkt)
	n.lock.Lock()
	flipped := FlipBits(out, n.BitErrorRate, n.rnd)
	n.lock.Unlock()
	if flipped > 0 {
		glog.V(2).Infof("noise: flipped %d bit(s) in %d bytes", flipped, len(out))
	}
	return n.Writer.WritePacket(out)
}

// FlipBits flips every bit of p with probability rate, and returns the number
// of bits flipped.
func FlipBits(p []byte, rate float64, rnd *rand.Rand) (flipped int) {
	if rate <= 0 {
		return
	}
	for i := range p {
		for bit := uint(0); bit < 8; bit++ {
			if rnd.Float64() < rate {
				p[i] ^= 1 << bit
				flipped++
			}
		}
	}
	return
}
