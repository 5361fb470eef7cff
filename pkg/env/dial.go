package env

import (
	"context"
	"io"
	"net"
	"net/url"

	"github.com/cockroachdb/errors"
	"github.com/golang/glog"

	"github.com/robotalks/repcode/pkg/codec"
	"github.com/robotalks/repcode/pkg/device"
	"github.com/robotalks/repcode/pkg/link"
	"github.com/robotalks/repcode/pkg/link/msgs"
	"github.com/robotalks/repcode/pkg/link/mqtt"
	"github.com/robotalks/repcode/pkg/link/stream"
	"github.com/robotalks/repcode/pkg/link/uart"
	"github.com/robotalks/repcode/pkg/link/websocket"
)

// Link is a connected link.
type Link struct {
	Reader link.PacketReader
	Writer link.PacketWriter

	runnable func(context.Context) error
	closers  []io.Closer
}

// ReadPacket implements link.PacketReader.
func (l *Link) ReadPacket() ([]byte, error) {
	return l.Reader.ReadPacket()
}

// WritePacket implements link.PacketWriter.
func (l *Link) WritePacket(pkt []byte) error {
	return l.Writer.WritePacket(pkt)
}

// Run implements framework.Runnable, it keeps the link alive until ctx is
// done.
func (l *Link) Run(ctx context.Context) error {
	if l.runnable != nil {
		return l.runnable(ctx)
	}
	<-ctx.Done()
	return ctx.Err()
}

// Close implements io.Closer.
func (l *Link) Close() (err error) {
	for _, closer := range l.closers {
		if e := closer.Close(); e != nil && err == nil {
			err = e
		}
	}
	return
}

// NewEncoder creates the encoder device.
func (c *Config) NewEncoder() *device.Device {
	return device.NewEncoder(c.Framing)
}

// NewDecoder creates the decoder device.
func (c *Config) NewDecoder() *device.Device {
	return device.NewDecoder(c.Framing)
}

// Dial connects the link specified by LinkURL.
func (c *Config) Dial(ctx context.Context) (*Link, error) {
	u, err := url.Parse(c.LinkURL)
	if err != nil {
		return nil, errors.Wrap(err, "invalid link URL")
	}
	l := &Link{}
	var rw link.PacketReadWriter
	switch u.Scheme {
	case "loop":
		a, b := link.NewLoopback(16)
		l.Reader, l.Writer = b, a
		l.closers = append(l.closers, a)
	case "mqtt", "mqtts":
		opts, err := mqtt.ParseURL(c.LinkURL, c.ClientIDOrDefault())
		if err != nil {
			return nil, err
		}
		q := mqtt.NewQueue(opts)
		if err = q.Connect(); err != nil {
			return nil, err
		}
		mrw := mqtt.NewPacketReadWriter(q).ForPeers(c.Name, c.Peer)
		rw, l.runnable = mrw, mrw.Run
		l.closers = append(l.closers, mrw, q)
	case "ws", "wss":
		wrw, err := websocket.Dial(c.LinkURL, c.Origin)
		if err != nil {
			return nil, err
		}
		rw = wrw
		l.closers = append(l.closers, wrw)
	case "tcp":
		var dialer net.Dialer
		conn, err := dialer.DialContext(ctx, "tcp", u.Host)
		if err != nil {
			return nil, err
		}
		rw = stream.New(conn)
		l.closers = append(l.closers, conn)
	case "file":
		if c.Framed {
			return nil, errors.Newf("framed payloads can't be delimited on %q", c.LinkURL)
		}
		if c.Framing != codec.FramingSentinel {
			return nil, errors.Newf("%s framing can't be delimited on %q", c.Framing, c.LinkURL)
		}
		urw, err := uart.Open(u.Path)
		if err != nil {
			return nil, err
		}
		rw = urw
		l.closers = append(l.closers, urw)
	default:
		return nil, errors.Newf("unknown link URL scheme: %q", u.Scheme)
	}
	if rw != nil {
		l.Reader, l.Writer = rw, rw
		if c.Framed {
			framed := msgs.NewFramed(rw)
			if c.Framing == codec.FramingLength {
				framed.Flags |= msgs.FrameFlagLengthFraming
			}
			l.Reader, l.Writer = framed, framed
		}
	}
	if c.Noise > 0 {
		l.Writer = link.NewNoisy(l.Writer, c.Noise, c.Seed)
	}
	glog.Infof("link %s connected", u.Scheme)
	return l, nil
}
