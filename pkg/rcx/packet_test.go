package rcx

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestComplement(t *testing.T) {
	for v := 0; v <= 0xff; v++ {
		b := byte(v)
		require.Equal(t, byte(255-v), Complement(b))
		require.Equal(t, b, Complement(Complement(b)))
	}
}

func TestEncode(t *testing.T) {
	testCases := []struct {
		name   string
		ops    Opcodes
		expect []byte
	}{
		{"51 01", Opcodes{0x51, 0x01}, []byte{0x55, 0xff, 0x00, 0x51, 0xae, 0x01, 0xfe, 0x52, 0xad}},
		{"21 81", Opcodes{0x21, 0x81}, []byte{0x55, 0xff, 0x00, 0x21, 0xde, 0x81, 0x7e, 0xa2, 0x5d}},
		{"10 10", Opcodes{0x10, 0x10}, []byte{0x55, 0xff, 0x00, 0x10, 0xef, 0x10, 0xef, 0x20, 0xdf}},
		{"ff", Opcodes{0xff}, []byte{0x55, 0xff, 0x00, 0xff, 0x00, 0xff, 0x00}},
		{"overflow", Opcodes{0xff, 0xff, 0xff}, []byte{0x55, 0xff, 0x00, 0xff, 0x00, 0xff, 0x00, 0xff, 0x00, 0xfd, 0x02}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			out, err := Encode(tc.ops)
			require.NoError(t, err)
			require.Equal(t, tc.expect, out)

			pkt := &Packet{Opcodes: tc.ops}
			require.Equal(t, tc.expect, pkt.Bytes())
			require.Equal(t, len(tc.expect), pkt.Len())
			var buf bytes.Buffer
			n, err := pkt.WriteTo(&buf)
			require.NoError(t, err)
			require.Equal(t, int64(len(tc.expect)), n)
			require.Equal(t, tc.expect, buf.Bytes())
		})
	}
}

func TestEncodeEmpty(t *testing.T) {
	_, err := Encode(nil)
	require.Equal(t, ErrEmptySequence, err)
	require.Equal(t, []byte{0x55, 0xff, 0x00, 0x00, 0xff}, (&Packet{}).Bytes())
}

func TestEncodeInvariants(t *testing.T) {
	for n := 1; n <= 300; n++ {
		ops := make(Opcodes, n)
		sum := 0
		for i := range ops {
			ops[i] = byte(i*37 + n)
			sum += int(ops[i])
		}
		out, err := Encode(ops)
		require.NoError(t, err)
		require.Len(t, out, 3+2*n+2)
		require.Equal(t, Preamble[:], out[:3])
		for off := 3; off < len(out); off += 2 {
			require.Equal(t, Complement(out[off]), out[off+1], "offset %d", off)
		}
		require.Equal(t, byte(sum&0xff), out[len(out)-2])
		again, err := Encode(ops)
		require.NoError(t, err)
		require.Equal(t, out, again)
	}
}

func TestEncodeDoesNotAliasInput(t *testing.T) {
	ops := Opcodes{0x51, 0x01}
	out, err := Encode(ops)
	require.NoError(t, err)
	out[3] = 0
	require.Equal(t, Opcodes{0x51, 0x01}, ops)
}

func TestVerify(t *testing.T) {
	good := []byte{0x55, 0xff, 0x00, 0x51, 0xae, 0x01, 0xfe, 0x52, 0xad}
	ops, err := Verify(good)
	require.NoError(t, err)
	require.Equal(t, Opcodes{0x51, 0x01}, ops)

	testCases := []struct {
		name   string
		wire   []byte
		offset int
	}{
		{"short", []byte{0x55, 0xff}, 2},
		{"preamble", []byte{0x55, 0xfe, 0x00, 0x00, 0xff}, 1},
		{"odd", []byte{0x55, 0xff, 0x00, 0x51, 0xae, 0x51}, 6},
		{"complement", []byte{0x55, 0xff, 0x00, 0x51, 0xaf, 0x51, 0xae}, 4},
		{"checksum", []byte{0x55, 0xff, 0x00, 0x51, 0xae, 0x50, 0xaf}, 5},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Verify(tc.wire)
			var fe *FrameError
			require.True(t, errors.As(err, &fe))
			require.Equal(t, tc.offset, fe.Offset)
		})
	}
}
