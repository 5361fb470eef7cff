package codec

import "fmt"

// Framing defines how the logical end of a payload is determined.
type Framing int

const (
	// FramingSentinel treats input as terminated by the first Sentinel byte,
	// and the encoder appends one Sentinel after the triplicated data.
	// Payloads can't carry a genuine zero byte.
	FramingSentinel Framing = iota
	// FramingLength uses the length of the input as the end of data.
	// Zero bytes are data and no terminator is appended.
	FramingLength
)

// String implements fmt.Stringer.
func (f Framing) String() string {
	switch f {
	case FramingSentinel:
		return "sentinel"
	case FramingLength:
		return "length"
	}
	return fmt.Sprintf("framing(%d)", int(f))
}

// ParseFraming parses the name of a framing.
func ParseFraming(s string) (Framing, error) {
	switch s {
	case "", "sentinel", "text":
		return FramingSentinel, nil
	case "length", "binary":
		return FramingLength, nil
	}
	return FramingSentinel, fmt.Errorf("unknown framing %q", s)
}

// Set implements flag.Value.
func (f *Framing) Set(s string) (err error) {
	*f, err = ParseFraming(s)
	return
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (f *Framing) UnmarshalText(text []byte) error {
	return f.Set(string(text))
}

// MarshalText implements encoding.TextMarshaler.
func (f Framing) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// scan returns the logical data of src under the framing.
func (f Framing) scan(src []byte) (data []byte, terminated bool, flags Flags) {
	if f != FramingSentinel {
		return src, false, 0
	}
	for i, b := range src {
		if b != Sentinel {
			continue
		}
		for _, rest := range src[i+1:] {
			if rest != Sentinel {
				flags |= FlagSentinelStop
				break
			}
		}
		return src[:i], true, flags
	}
	return src, false, 0
}
