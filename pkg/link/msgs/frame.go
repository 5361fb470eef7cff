// Package msgs provides the Frame message wrapping encoded payloads on
// packet transports, and a PacketReadWriter detecting lost frames.
package msgs

import (
	"github.com/golang/protobuf/proto"
)

// Frame flags.
const (
	// FrameFlagLengthFraming marks payloads encoded with length framing.
	FrameFlagLengthFraming uint32 = 1 << iota
)

// Frame carries one encoded payload.
type Frame struct {
	Seq                  uint32   `protobuf:"varint,1,opt,name=seq,proto3" json:"seq,omitempty"`
	Payload              []byte   `protobuf:"bytes,2,opt,name=payload,proto3" json:"payload,omitempty"`
	Flags                uint32   `protobuf:"varint,3,opt,name=flags,proto3" json:"flags,omitempty"`
	XXX_NoUnkeyedLiteral struct{} `json:"-"`
	XXX_unrecognized     []byte   `json:"-"`
	XXX_sizecache        int32    `json:"-"`
}

// Reset implements proto.Message.
func (m *Frame) Reset() { *m = Frame{} }

// String implements proto.Message.
func (m *Frame) String() string { return proto.CompactTextString(m) }

// ProtoMessage implements proto.Message.
func (*Frame) ProtoMessage() {}

// Encode serializes the frame.
func (m *Frame) Encode() ([]byte, error) {
	return proto.Marshal(m)
}

// DecodeFrame parses a serialized frame.
func DecodeFrame(data []byte) (*Frame, error) {
	m := &Frame{}
	if err := proto.Unmarshal(data, m); err != nil {
		return nil, err
	}
	return m, nil
}
