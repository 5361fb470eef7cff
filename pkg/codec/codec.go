package codec

// Limits of the codec.
const (
	// Copies is the number of times each byte is repeated.
	Copies = 3
	// Sentinel terminates payloads with FramingSentinel.
	Sentinel byte = 0
	// MaxMessageSize is the capacity of data entering the Encoder.
	MaxMessageSize = 256
	// MaxEncodedSize is the capacity of data entering the Decoder:
	// MaxMessageSize triplets plus a terminator.
	MaxEncodedSize = Copies*MaxMessageSize + 1
)

// Transformer converts a payload into the content held by a device.
type Transformer interface {
	// Capacity is the maximum input length, the excess is dropped.
	Capacity() int
	// OutputSize is the minimum size of dst for Transform.
	OutputSize() int
	// Transform converts src into dst, which must have at least OutputSize
	// bytes.
	Transform(dst, src []byte) Result
}

// Encoder triplicates every byte.
type Encoder struct {
	Framing Framing
}

// Capacity implements Transformer.
func (e Encoder) Capacity() int { return MaxMessageSize }

// OutputSize implements Transformer.
func (e Encoder) OutputSize() int { return EncodedLen(MaxMessageSize, e.Framing) }

// Transform implements Transformer.
func (e Encoder) Transform(dst, src []byte) (r Result) {
	if len(src) > MaxMessageSize {
		src, r.Flags = src[:MaxMessageSize], FlagTruncated
	}
	data, terminated, flags := e.Framing.scan(src)
	r.Flags |= flags
	for k, b := range data {
		dst[Copies*k], dst[Copies*k+1], dst[Copies*k+2] = b, b, b
	}
	r.N, r.Consumed = Copies*len(data), len(data)
	if terminated {
		r.Consumed++
	}
	if r.N == 0 {
		// no terminator for an empty payload.
		r.Flags |= FlagEmpty
		return
	}
	if e.Framing == FramingSentinel {
		dst[r.N] = Sentinel
		r.N++
	}
	return
}

// Decoder recovers bytes by majority vote over triplets.
type Decoder struct {
	Framing Framing
}

// Capacity implements Transformer.
func (d Decoder) Capacity() int { return MaxEncodedSize }

// OutputSize implements Transformer.
func (d Decoder) OutputSize() int { return MaxMessageSize }

// Transform implements Transformer.
func (d Decoder) Transform(dst, src []byte) (r Result) {
	if len(src) > MaxEncodedSize {
		src, r.Flags = src[:MaxEncodedSize], FlagTruncated
	}
	data, terminated, flags := d.Framing.scan(src)
	r.Flags |= flags
	n := len(data) / Copies
	if rem := len(data) - n*Copies; rem != 0 {
		// never vote with bytes beyond the valid input.
		r.Flags |= FlagPartialTriplet
	}
	for k := 0; k < n; k++ {
		var corrected int
		dst[k], corrected = Vote(data[Copies*k], data[Copies*k+1], data[Copies*k+2])
		r.CorrectedBits += corrected
	}
	r.N, r.Consumed = n, n*Copies
	if terminated && !r.Flags.IsPartialTriplet() {
		r.Consumed++
	}
	if r.N == 0 {
		r.Flags |= FlagEmpty
	}
	return
}

// EncodedLen returns the encoded length of n data bytes.
func EncodedLen(n int, framing Framing) int {
	if n <= 0 {
		return 0
	}
	if framing == FramingSentinel {
		return Copies*n + 1
	}
	return Copies * n
}

// DecodedLen returns the number of data bytes carried by n encoded bytes.
func DecodedLen(n int) int {
	return n / Copies
}

// EncodeBytes encodes src into a new slice.
func EncodeBytes(src []byte, framing Framing) ([]byte, Result) {
	return transformBytes(Encoder{Framing: framing}, src)
}

// DecodeBytes decodes src into a new slice.
func DecodeBytes(src []byte, framing Framing) ([]byte, Result) {
	return transformBytes(Decoder{Framing: framing}, src)
}

func transformBytes(t Transformer, src []byte) ([]byte, Result) {
	dst := make([]byte, t.OutputSize())
	r := t.Transform(dst, src)
	return dst[:r.N], r
}
