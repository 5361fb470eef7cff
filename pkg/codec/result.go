package codec

import "strings"

// Flags records anomalies detected while transforming one payload.
type Flags int

const (
	// FlagTruncated means the input was longer than the capacity and the
	// excess was dropped.
	FlagTruncated Flags = 1 << iota
	// FlagSentinelStop means data following a sentinel byte was discarded.
	FlagSentinelStop
	// FlagPartialTriplet means 1 or 2 trailing bytes didn't form a complete
	// triplet and were dropped.
	FlagPartialTriplet
	// FlagEmpty means nothing was produced.
	FlagEmpty
)

var flagNames = []string{"truncated", "sentinel-stop", "partial-triplet", "empty"}

// IsTruncated indicates the input exceeded the capacity.
func (f Flags) IsTruncated() bool {
	return f&FlagTruncated != 0
}

// IsSentinelStop indicates data after an embedded sentinel was lost.
func (f Flags) IsSentinelStop() bool {
	return f&FlagSentinelStop != 0
}

// IsPartialTriplet indicates an incomplete trailing triplet was dropped.
func (f Flags) IsPartialTriplet() bool {
	return f&FlagPartialTriplet != 0
}

// IsEmpty indicates the transform produced no bytes.
func (f Flags) IsEmpty() bool {
	return f&FlagEmpty != 0
}

// Lossy indicates input data was dropped.
func (f Flags) Lossy() bool {
	return f&(FlagTruncated|FlagSentinelStop|FlagPartialTriplet) != 0
}

// String implements fmt.Stringer.
func (f Flags) String() string {
	if f == 0 {
		return "none"
	}
	var names []string
	for n, name := range flagNames {
		if f&(1<<uint(n)) != 0 {
			names = append(names, name)
		}
	}
	return strings.Join(names, "|")
}

// Result is the outcome of one transform.
type Result struct {
	// N is the number of bytes produced into dst.
	N int
	// Consumed is the number of input bytes that contributed to the output,
	// including a terminating sentinel.
	Consumed int
	Flags    Flags
	// CorrectedBits is the number of bit positions where a copy dissented
	// from the majority. Always 0 for encoding.
	CorrectedBits int
}
