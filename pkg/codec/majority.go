package codec

import (
	"math/bits"

	"golang.org/x/exp/constraints"
)

// Majority returns, for every bit position independently, the value held by
// at least two of a, b and c.
func Majority[T constraints.Unsigned](a, b, c T) T {
	return (a & b) | (b & c) | (a & c)
}

// Disagreement returns the mask of bit positions where a, b and c are not
// all equal.
func Disagreement[T constraints.Unsigned](a, b, c T) T {
	return (a ^ b) | (b ^ c)
}

// Vote majority-decodes a triplet of bytes and reports how many bit
// positions had a dissenting copy.
func Vote(a, b, c byte) (byte, int) {
	return Majority(a, b, c), bits.OnesCount8(Disagreement(a, b, c))
}
