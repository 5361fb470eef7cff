package sh

import (
	"encoding/hex"
	"fmt"
	"math/rand"
	"strings"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/repcode/pkg/device"
	"github.com/robotalks/repcode/pkg/link"
)

var (
	// EncodeCmd writes text to the encoder.
	EncodeCmd = ishell.Cmd{
		Name:    "encode",
		Aliases: []string{"enc"},
		Help:    "TEXT",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			printTransfer(c, s.Encoder, []byte(strings.Join(c.Args, " ")))
		},
	}

	// DecodeCmd writes text to the decoder.
	DecodeCmd = ishell.Cmd{
		Name:    "decode",
		Aliases: []string{"dec"},
		Help:    "TEXT",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			printTransfer(c, s.Decoder, []byte(strings.Join(c.Args, " ")))
		},
	}

	// DecodeHexCmd writes hex encoded bytes to the decoder.
	DecodeHexCmd = ishell.Cmd{
		Name:    "decode.hex",
		Aliases: []string{"dx"},
		Help:    "HEX",
		Func: func(c *ishell.Context) {
			data, err := hex.DecodeString(strings.Join(c.Args, ""))
			if err != nil {
				c.Err(err)
				return
			}
			printTransfer(c, ShellFrom(c).Decoder, data)
		},
	}

	// ReadCmd drains a device.
	ReadCmd = ishell.Cmd{
		Name:    "read",
		Aliases: []string{"r"},
		Help:    "enc|dec",
		Func: func(c *ishell.Context) {
			if len(c.Args) != 1 {
				c.Err(fmt.Errorf("device expected"))
				return
			}
			f, err := ShellFrom(c).Device(c.Args[0])
			if err != nil {
				c.Err(err)
				return
			}
			out, err := f.Drain()
			if err != nil {
				c.Err(err)
				return
			}
			c.Printf("%s: %s\n", f.Device().Name, FormatPayload(out))
		},
	}

	// PipeCmd encodes text, corrupts it and decodes it locally.
	PipeCmd = ishell.Cmd{
		Name:    "pipe",
		Aliases: []string{"p"},
		Help:    "RATE TEXT",
		Func: func(c *ishell.Context) {
			if len(c.Args) < 1 {
				c.Err(fmt.Errorf("bit error rate expected"))
				return
			}
			rate, err := parseRate(c.Args[0])
			if err != nil {
				c.Err(err)
				return
			}
			s := ShellFrom(c)
			encoded, _, err := s.Encoder.Exchange([]byte(strings.Join(c.Args[1:], " ")))
			if err != nil {
				c.Err(err)
				return
			}
			flipped := link.FlipBits(encoded, rate, rand.New(rand.NewSource(s.Config.Seed)))
			c.Printf("LINE %s, %d bit(s) flipped\n", FormatPayload(encoded), flipped)
			decoded, r, err := s.Decoder.Exchange(encoded)
			if err != nil {
				c.Err(err)
				return
			}
			c.Printf("RECV %s (%s)\n", FormatPayload(decoded), FormatResult(r))
		},
	}

	// StatsCmd prints device counters.
	StatsCmd = ishell.Cmd{
		Name:    "stats",
		Aliases: []string{"s"},
		Help:    "",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			for _, f := range []*device.File{s.Encoder, s.Decoder} {
				dev := f.Device()
				st := dev.Stats()
				c.Printf("%s: state=%s opens=%d writes=%d reads=%d empty-reads=%d overwrites=%d truncations=%d sentinel-stops=%d partial-triplets=%d read-truncations=%d corrected-bits=%d\n",
					dev.Name, dev.State(), st.Opens, st.Writes, st.Reads, st.EmptyReads, st.Overwrites,
					st.Truncations, st.SentinelStops, st.PartialTriplets, st.ReadTruncations, st.CorrectedBits)
			}
		},
	}

	// ConnectCmd connects a link.
	ConnectCmd = ishell.Cmd{
		Name:    "connect",
		Aliases: []string{"c"},
		Help:    "[LINK_URL]",
		Func: func(c *ishell.Context) {
			var linkURL string
			if len(c.Args) > 0 {
				linkURL = c.Args[0]
			}
			if err := ShellFrom(c).Connect(linkURL); err != nil {
				c.Err(err)
			}
		},
	}

	// SendCmd encodes text and sends it over the link.
	SendCmd = ishell.Cmd{
		Name:    "send",
		Help:    "TEXT",
		Func: MustBeConnected(func(c *ishell.Context) {
			r, err := ShellFrom(c).Conn.Transmitter.Send([]byte(strings.Join(c.Args, " ")))
			if err != nil {
				c.Err(err)
				return
			}
			c.Printf("SENT %s\n", FormatResult(r))
		}),
	}

	// DisconnectCmd disconnects the current link.
	DisconnectCmd = ishell.Cmd{
		Name:    "disconnect",
		Aliases: []string{"d"},
		Help:    "",
		Func: func(c *ishell.Context) {
			ShellFrom(c).Disconnect()
		},
	}
)

// MustBeConnected wraps command func requires a connection.
func MustBeConnected(fn func(c *ishell.Context)) func(c *ishell.Context) {
	return func(c *ishell.Context) {
		if ShellFrom(c).Conn == nil {
			c.Err(fmt.Errorf("not connected"))
			return
		}
		fn(c)
	}
}
