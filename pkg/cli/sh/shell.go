package sh

import (
	"context"
	"encoding/hex"
	"flag"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/repcode/pkg/bridge"
	"github.com/robotalks/repcode/pkg/codec"
	"github.com/robotalks/repcode/pkg/device"
	"github.com/robotalks/repcode/pkg/env"
	fx "github.com/robotalks/repcode/pkg/framework"
)

// Shell provides ishell backed interactive shell over a local pair of
// encoder and decoder devices. The session holds one open file on each.
type Shell struct {
	Interactive bool

	Shell   *ishell.Shell
	Config  *env.Config
	Encoder *device.File
	Decoder *device.File
	Conn    *Conn
}

// Conn is a connected link with a running receiver.
type Conn struct {
	Link        *env.Link
	Transmitter *bridge.Transmitter
	Runner      *fx.Runner
}

const (
	shellKey          = "$shell"
	unconnectedPrompt = "[local] > "
)

var (
	evalOnly bool

	commands = []*ishell.Cmd{
		&EncodeCmd,
		&DecodeCmd,
		&DecodeHexCmd,
		&ReadCmd,
		&PipeCmd,
		&StatsCmd,
		&ConnectCmd,
		&SendCmd,
		&DisconnectCmd,
	}
)

func init() {
	flag.BoolVar(&evalOnly, "e", evalOnly, "Evaluation only, no interactive shell.")
}

// New creates a new shell.
func New(conf *env.Config) *Shell {
	s := &Shell{
		Interactive: !evalOnly,
		Shell:       ishell.New(),
		Config:      conf,
		Encoder:     openSession(conf.NewEncoder()),
		Decoder:     openSession(conf.NewDecoder()),
	}
	s.Shell.Set(shellKey, s)
	s.Shell.SetPrompt(unconnectedPrompt)
	for _, cmd := range commands {
		s.Shell.AddCmd(cmd)
	}
	return s
}

func openSession(dev *device.Device) *device.File {
	f, err := dev.Open()
	if err != nil {
		// a new device is never closed.
		panic(err)
	}
	return f
}

// ShellFrom gets Shell from ishell context.
func ShellFrom(c *ishell.Context) *Shell {
	return c.Get(shellKey).(*Shell)
}

// Device selects the opened device by name.
func (s *Shell) Device(name string) (*device.File, error) {
	switch strings.ToLower(name) {
	case "enc", "encoder", strings.ToLower(device.EncoderName):
		return s.Encoder, nil
	case "dec", "decoder", strings.ToLower(device.DecoderName):
		return s.Decoder, nil
	}
	return nil, fmt.Errorf("unknown device %q", name)
}

// FormatPayload prints a payload for display.
func FormatPayload(p []byte) string {
	return fmt.Sprintf("%d bytes %s %q", len(p), hex.EncodeToString(p), p)
}

// FormatResult prints a transform result for display.
func FormatResult(r codec.Result) string {
	msg := fmt.Sprintf("prepared %d bytes, consumed %d, flags %s", r.N, r.Consumed, r.Flags)
	if r.CorrectedBits > 0 {
		msg += fmt.Sprintf(", corrected %d bit(s)", r.CorrectedBits)
	}
	return msg
}

// Connect dials the link and starts receiving.
func (s *Shell) Connect(linkURL string) error {
	conf := *s.Config
	if linkURL != "" {
		conf.LinkURL = linkURL
	}
	runner := fx.NewRunner()
	l, err := conf.Dial(runner.Context())
	if err != nil {
		return err
	}
	rx := bridge.NewReceiver(s.Decoder, l, bridge.HandleMessageFunc(func(ctx context.Context, msg *bridge.Message) {
		s.Shell.Printf("\nRECV %s (%s)\n", FormatPayload(msg.Data), FormatResult(msg.Result))
	}))
	runner.Go(fx.NamedRun("link", l), fx.NamedRun("receiver", fx.WithCloser(rx, l)))
	s.Disconnect()
	s.Conn = &Conn{Link: l, Transmitter: bridge.NewTransmitter(s.Encoder, l), Runner: runner}
	s.Shell.SetPrompt(fmt.Sprintf("[%s] > ", conf.LinkURL))
	return nil
}

// Disconnect disconnects the current link.
func (s *Shell) Disconnect() {
	if s.Conn != nil {
		s.Conn.Runner.Stop()
		s.Conn.Runner.Wait()
		s.Conn = nil
		s.Shell.SetPrompt(unconnectedPrompt)
	}
}

// Close disconnects and closes the files of the session.
func (s *Shell) Close() {
	s.Disconnect()
	s.Encoder.Close()
	s.Decoder.Close()
}

// Run runs the shell.
func (s *Shell) Run(args ...string) {
	defer s.Close()
	if len(args) > 0 {
		if err := s.Shell.Process(args...); err != nil {
			log.Fatalln(err)
		}
		return
	}
	if s.Interactive {
		s.Shell.Run()
		return
	}
	log.Fatalln("command expected")
}

func printTransfer(c *ishell.Context, f *device.File, data []byte) {
	r, err := f.Transfer(data)
	if err != nil {
		c.Err(err)
		return
	}
	c.Printf("%s: %s\n", f.Device().Name, FormatResult(r))
}

func parseRate(s string) (float64, error) {
	rate, err := strconv.ParseFloat(s, 64)
	if err != nil || rate < 0 || rate > 1 {
		return 0, fmt.Errorf("invalid bit error rate %q", s)
	}
	return rate, nil
}

// Main is a helper to provide a single call in main.
func Main() {
	flag.Parse()
	New(env.MustLoad()).Run(flag.Args()...)
}
