package comm

import (
	"fmt"
	"strings"

	"github.com/golang/protobuf/proto"
	"github.com/golang/protobuf/ptypes/wrappers"

	"github.com/robotalks/rcx.go/pkg/rcx"
)

const (
	replyOK  = "OK"
	replyErr = "ERR"
)

// RemoteError is an error reported by the bridge.
type RemoteError struct {
	Message string
}

// Error implements error.
func (e *RemoteError) Error() string {
	return "remote: " + e.Message
}

// TextCodec uses hex text: "51 01" in, "OK 55 ff 00 ..." or "ERR msg" out.
type TextCodec struct{}

// DecodeRequest implements Codec.
func (TextCodec) DecodeRequest(frame []byte) (rcx.Opcodes, error) {
	return rcx.ParseOpcodes(string(frame))
}

// EncodeRequest implements Codec.
func (TextCodec) EncodeRequest(ops rcx.Opcodes) ([]byte, error) {
	if len(ops) == 0 {
		return nil, rcx.ErrEmptySequence
	}
	return []byte(ops.String()), nil
}

// EncodeReply implements Codec.
func (TextCodec) EncodeReply(wire []byte, err error) ([]byte, error) {
	return []byte(formatReply(wire, err)), nil
}

// DecodeReply implements Codec.
func (TextCodec) DecodeReply(frame []byte) ([]byte, error) {
	return parseReply(string(frame))
}

func formatReply(wire []byte, err error) string {
	if err != nil {
		return replyErr + " " + err.Error()
	}
	return replyOK + " " + rcx.FormatHex(wire)
}

func parseReply(reply string) ([]byte, error) {
	status, rest := reply, ""
	if idx := strings.IndexByte(reply, ' '); idx >= 0 {
		status, rest = reply[:idx], reply[idx+1:]
	}
	switch status {
	case replyOK:
		wire, err := rcx.ParseOpcodes(rest)
		if err != nil {
			return nil, fmt.Errorf("malformed reply %q: %w", reply, err)
		}
		return wire, nil
	case replyErr:
		return nil, &RemoteError{Message: rest}
	}
	return nil, fmt.Errorf("malformed reply %q", reply)
}

// ProtoCodec carries raw opcodes in a protobuf BytesValue and replies
// with a StringValue holding the text reply.
type ProtoCodec struct{}

// DecodeRequest implements Codec.
func (ProtoCodec) DecodeRequest(frame []byte) (rcx.Opcodes, error) {
	var req wrappers.BytesValue
	if err := proto.Unmarshal(frame, &req); err != nil {
		return nil, err
	}
	if len(req.Value) == 0 {
		return nil, rcx.ErrEmptySequence
	}
	return rcx.Opcodes(req.Value), nil
}

// EncodeRequest implements Codec.
func (ProtoCodec) EncodeRequest(ops rcx.Opcodes) ([]byte, error) {
	if len(ops) == 0 {
		return nil, rcx.ErrEmptySequence
	}
	return proto.Marshal(&wrappers.BytesValue{Value: ops})
}

// EncodeReply implements Codec.
func (ProtoCodec) EncodeReply(wire []byte, err error) ([]byte, error) {
	return proto.Marshal(&wrappers.StringValue{Value: formatReply(wire, err)})
}

// DecodeReply implements Codec.
func (ProtoCodec) DecodeReply(frame []byte) ([]byte, error) {
	var reply wrappers.StringValue
	if err := proto.Unmarshal(frame, &reply); err != nil {
		return nil, err
	}
	return parseReply(reply.Value)
}
