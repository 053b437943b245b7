// Package rcx encodes opcode sequences into RCX wire packets.
package rcx

// A wire packet carries a fixed preamble followed by every data byte
// paired with its one's complement:
//
//	55 FF 00 op0 ~op0 ... opN ~opN sum ~sum
//
// sum is the low byte of the sum of all raw opcode values. The complement
// pairs give the receiving brick a per-byte redundancy check on top of the
// odd parity configured on the serial port.
//
// The package is send-only and stateless. Everything here is safe for
// concurrent use.
