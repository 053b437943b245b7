package rcx

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptySequence indicates no opcode was supplied.
	ErrEmptySequence = errors.New("empty opcode sequence")
	// ErrBadToken indicates an opcode token is not two hex digits.
	ErrBadToken = errors.New("opcode must be two hex digits")
	// ErrOutOfRange indicates an opcode value doesn't fit in a byte.
	ErrOutOfRange = errors.New("opcode out of range 0-255")
)

// InvalidOpcodeError reports the offending opcode and its position.
type InvalidOpcodeError struct {
	Index int
	Token string
	Value int
	Err   error
}

// Error implements error.
func (e *InvalidOpcodeError) Error() string {
	if e.Token != "" {
		return fmt.Sprintf("invalid opcode %q at %d: %v", e.Token, e.Index, e.Err)
	}
	return fmt.Sprintf("invalid opcode %d at %d: %v", e.Value, e.Index, e.Err)
}

// Unwrap returns the underlying reason.
func (e *InvalidOpcodeError) Unwrap() error {
	return e.Err
}

// FrameError indicates a malformed wire packet.
type FrameError struct {
	Offset int
	Reason string
}

// Error implements error.
func (e *FrameError) Error() string {
	return fmt.Sprintf("bad frame at offset %d: %s", e.Offset, e.Reason)
}
