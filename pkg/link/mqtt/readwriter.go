package mqtt

import (
	"context"
	"io"
	"sync"
)

// LineTopic is the topic suffix carrying encoded payloads sent by a peer.
const LineTopic = "line"

// ReadWriter implements link.PacketReadWriter over a pair of topics.
type ReadWriter struct {
	Queue    *Queue
	SubTopic string
	PubTopic string

	packetCh  chan []byte
	doneCh    chan struct{}
	closeOnce sync.Once
}

// NewPacketReadWriter creates the ReadWriter.
func NewPacketReadWriter(q *Queue) *ReadWriter {
	return &ReadWriter{Queue: q, packetCh: make(chan []byte, 16), doneCh: make(chan struct{})}
}

// WithTopics specifies the topics.
func (p *ReadWriter) WithTopics(sub, pub string) *ReadWriter {
	p.SubTopic, p.PubTopic = sub, pub
	return p
}

// ForPeers sets topics by convention:
// SubTopic = peer/line
// PubTopic = self/line
func (p *ReadWriter) ForPeers(self, peer string) *ReadWriter {
	return p.WithTopics(peer+"/"+LineTopic, self+"/"+LineTopic)
}

// ReadPacket implements link.PacketReader.
func (p *ReadWriter) ReadPacket() ([]byte, error) {
	select {
	case pkt := <-p.packetCh:
		return pkt, nil
	case <-p.doneCh:
		return nil, io.EOF
	}
}

// WritePacket implements link.PacketWriter.
func (p *ReadWriter) WritePacket(pkt []byte) error {
	return p.Queue.Pub(p.PubTopic, pkt)
}

// Run implements framework.Runnable. Packets are only received while
// running.
func (p *ReadWriter) Run(ctx context.Context) error {
	sub := p.Queue.Sub(p.SubTopic, p.handleMsg)
	defer sub.Close()
	select {
	case <-ctx.Done():
		p.Close()
		return ctx.Err()
	case <-p.doneCh:
		return nil
	}
}

// Close implements io.Closer.
func (p *ReadWriter) Close() error {
	p.closeOnce.Do(func() { close(p.doneCh) })
	return nil
}

func (p *ReadWriter) handleMsg(_ string, payload []byte) {
	pkt := make([]byte, len(payload))
	copy(pkt, payload)
	select {
	case p.packetCh <- pkt:
	case <-p.doneCh:
	}
}
