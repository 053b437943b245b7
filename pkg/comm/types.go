// Package comm bridges remote send requests to a tower.
//
// A remote client writes one request per frame. Frames carry opcodes in a
// Codec specific form. Each request is answered with exactly one reply
// frame, produced locally once the packet left the serial line (or
// failed to); the brick itself never replies.
package comm

import (
	"context"

	"github.com/robotalks/rcx.go/pkg/rcx"
)

// PacketReader reads packets in bytes.
type PacketReader interface {
	ReadPacket() ([]byte, error)
}

// PacketWriter writes packets in bytes.
type PacketWriter interface {
	WritePacket([]byte) error
}

// PacketReadWriter reads/writes packets in bytes.
type PacketReadWriter interface {
	PacketReader
	PacketWriter
}

// Sender sends opcodes and returns the wire bytes, e.g. *tower.Tower.
type Sender interface {
	Send(ctx context.Context, ops rcx.Opcodes) ([]byte, error)
}

// Codec converts between frames and requests/replies.
type Codec interface {
	// DecodeRequest extracts opcodes from a request frame.
	DecodeRequest([]byte) (rcx.Opcodes, error)
	// EncodeRequest builds a request frame.
	EncodeRequest(rcx.Opcodes) ([]byte, error)
	// EncodeReply builds the reply for a sent packet or an error.
	EncodeReply(wire []byte, err error) ([]byte, error)
	// DecodeReply extracts the wire bytes or the remote error.
	DecodeReply([]byte) ([]byte, error)
}
