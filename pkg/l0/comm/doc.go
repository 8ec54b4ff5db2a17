// Package comm implements the L0 frame protocol between a host and
// the arm controller over a serial link.
//
// A frame is
//
//	[0xAA][Type][Length][OpCode][Status][Payload...][CK0][CK1]
//
// Type is 1 for requests and 2 for responses. Status is only present in
// responses. Length counts the bytes from OpCode to the end of Payload.
// CK0/CK1 XOR together the bytes at even/odd offsets of everything before
// them. The checksum is weak, two flips at the same parity cancel out,
// but it's kept as-is for wire compatibility.
//
// The receiver resynchronizes on the next sentinel after any framing
// error and never reports errors to the peer: a host detects failures
// by the absence of a response.
package comm
