package rcx

import "io"

// Preamble starts every packet.
var Preamble = [3]byte{0x55, 0xff, 0x00}

// Overhead is the number of non-opcode bytes in a packet.
const Overhead = len(Preamble) + 2

// Complement returns the one's complement of v.
func Complement(v byte) byte {
	return ^v
}

// Checksum is the low byte of the sum of all opcodes.
// Accumulation is unmasked, only the final value is reduced.
func Checksum(ops Opcodes) byte {
	var sum uint
	for _, v := range ops {
		sum += uint(v)
	}
	return byte(sum & 0xff)
}

// Packet is a single transmission unit.
type Packet struct {
	Opcodes Opcodes
}

// Len is the encoded size.
func (p *Packet) Len() int {
	return Overhead + 2*len(p.Opcodes)
}

// Bytes returns encoded bytes for sending.
// An empty packet encodes to the preamble and a zero checksum pair.
func (p *Packet) Bytes() []byte {
	b := make([]byte, 0, p.Len())
	b = append(b, Preamble[:]...)
	for _, v := range p.Opcodes {
		b = append(b, v, Complement(v))
	}
	sum := Checksum(p.Opcodes)
	return append(b, sum, Complement(sum))
}

// WriteTo writes encoded bytes in a single Write.
func (p *Packet) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(p.Bytes())
	return int64(n), err
}

// Encode builds the wire packet for ops.
func Encode(ops Opcodes) ([]byte, error) {
	if len(ops) == 0 {
		return nil, ErrEmptySequence
	}
	return (&Packet{Opcodes: ops}).Bytes(), nil
}

// Verify checks wire against the packet layout and returns the opcodes
// it carries.
func Verify(wire []byte) (Opcodes, error) {
	if len(wire) < Overhead {
		return nil, &FrameError{Offset: len(wire), Reason: "too short"}
	}
	for n, b := range Preamble {
		if wire[n] != b {
			return nil, &FrameError{Offset: n, Reason: "bad preamble"}
		}
	}
	if (len(wire)-len(Preamble))%2 != 0 {
		return nil, &FrameError{Offset: len(wire), Reason: "odd payload length"}
	}
	for off := len(Preamble); off < len(wire); off += 2 {
		if wire[off+1] != Complement(wire[off]) {
			return nil, &FrameError{Offset: off + 1, Reason: "complement mismatch"}
		}
	}
	end := len(wire) - 2
	ops := make(Opcodes, 0, (end-len(Preamble))/2)
	for off := len(Preamble); off < end; off += 2 {
		ops = append(ops, wire[off])
	}
	if Checksum(ops) != wire[end] {
		return nil, &FrameError{Offset: end, Reason: "checksum mismatch"}
	}
	return ops, nil
}
