// Package record frames small binary settings records.
//
// Frame layout:
//
//	[len:2 LE][payload:len][checksum:1]
//
// The checksum is the complement of the 16-bit byte sum of every preceding
// byte, folded to 8 bits. The length prefix, not the frame size, governs how
// much payload a reader takes.
package record

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// MaxPayload is the largest payload a frame can carry.
const MaxPayload = 0xffff

// Overhead is the number of framing bytes around a payload.
const Overhead = 3

var (
	// ErrShortRecord is returned for frames too small to hold a header and checksum.
	ErrShortRecord = errors.New("record: frame too short")

	// ErrChecksumMismatch is returned when the trailing checksum does not match.
	ErrChecksumMismatch = errors.New("record: checksum mismatch")

	// ErrLengthOverrun is returned when the length prefix points past the frame.
	ErrLengthOverrun = errors.New("record: declared length exceeds frame")

	// ErrPayloadTooLarge is returned by Encode for payloads over MaxPayload.
	ErrPayloadTooLarge = errors.New("record: payload too large")
)

// IsCorrupt reports whether err describes a damaged frame rather than an
// I/O failure.
func IsCorrupt(err error) bool {
	return errors.Is(err, ErrShortRecord) ||
		errors.Is(err, ErrChecksumMismatch) ||
		errors.Is(err, ErrLengthOverrun)
}

// Checksum computes the frame checksum over b.
func Checksum(b []byte) byte {
	var s uint16
	for _, c := range b {
		s += uint16(c)
	}
	s = (s >> 8) + (s & 0xff)
	s += s >> 8
	return ^byte(s)
}

// Encode frames payload.
func Encode(payload []byte) ([]byte, error) {
	if len(payload) > MaxPayload {
		return nil, fmt.Errorf("%w: %d bytes", ErrPayloadTooLarge, len(payload))
	}
	out := make([]byte, 2, len(payload)+Overhead)
	binary.LittleEndian.PutUint16(out, uint16(len(payload)))
	out = append(out, payload...)
	return append(out, Checksum(out)), nil
}

// Decode verifies frame and returns its payload. The returned slice aliases
// frame.
func Decode(frame []byte) ([]byte, error) {
	if len(frame) < Overhead {
		return nil, ErrShortRecord
	}
	body := frame[:len(frame)-1]
	if want, got := frame[len(frame)-1], Checksum(body); want != got {
		return nil, fmt.Errorf("%w: stored %02x, computed %02x", ErrChecksumMismatch, want, got)
	}
	n := int(binary.LittleEndian.Uint16(frame))
	if 2+n > len(body) {
		return nil, fmt.Errorf("%w: length %d, frame %d", ErrLengthOverrun, n, len(frame))
	}
	return body[2 : 2+n], nil
}
