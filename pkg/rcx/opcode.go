package rcx

import (
	"encoding/hex"
	"strings"
)

// Opcodes is an ordered sequence of command bytes.
type Opcodes []byte

// ParseOpcodes parses whitespace separated hex tokens like "51 01".
// Each token must be exactly two hex digits.
func ParseOpcodes(text string) (Opcodes, error) {
	tokens := strings.Fields(text)
	if len(tokens) == 0 {
		return nil, ErrEmptySequence
	}
	ops := make(Opcodes, len(tokens))
	for n, token := range tokens {
		if len(token) != 2 {
			return nil, &InvalidOpcodeError{Index: n, Token: token, Err: ErrBadToken}
		}
		b, err := hex.DecodeString(token)
		if err != nil {
			return nil, &InvalidOpcodeError{Index: n, Token: token, Err: ErrBadToken}
		}
		ops[n] = b[0]
	}
	return ops, nil
}

// MustParseOpcodes is ParseOpcodes which panics on error.
func MustParseOpcodes(text string) Opcodes {
	ops, err := ParseOpcodes(text)
	if err != nil {
		panic(err)
	}
	return ops
}

// FromInts converts untyped values, rejecting anything outside 0-255.
func FromInts(vals []int) (Opcodes, error) {
	if len(vals) == 0 {
		return nil, ErrEmptySequence
	}
	ops := make(Opcodes, len(vals))
	for n, v := range vals {
		if v < 0 || v > 0xff {
			return nil, &InvalidOpcodeError{Index: n, Value: v, Err: ErrOutOfRange}
		}
		ops[n] = byte(v)
	}
	return ops, nil
}

// String renders the opcodes in the form accepted by ParseOpcodes.
func (o Opcodes) String() string {
	return FormatHex(o)
}

// FormatHex renders bytes as space separated lower-case hex.
func FormatHex(b []byte) string {
	var sb strings.Builder
	for n, v := range b {
		if n > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(hex.EncodeToString([]byte{v}))
	}
	return sb.String()
}
