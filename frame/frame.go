// Package frame implements the wire format of the frame protocol: encoding
// (Build) and the handful of header primitives the streaming parser needs
// to resynchronise on frame boundaries (DecodeLengthVersion,
// EncodeLengthVersion). It is a pure byte transformer with no global state.
package frame

import (
	"errors"
	"fmt"

	"github.com/armoryproto/rcproto/bitfield"
	"github.com/armoryproto/rcproto/checksum"
)

// ErrInvalidArgument is returned by Build when the caller's arguments
// cannot produce a valid frame: a nil output buffer, a nil payload with
// non-zero length, or a resulting frame that would exceed MaxLength or
// the caller's output capacity.
var ErrInvalidArgument = errors.New("frame: invalid argument")

// Sealer optionally transforms a payload before it is serialised, giving
// the builder's encryption-code field (byte 8 bits [2:0]) real effect. It
// is satisfied structurally by secure.Sealer; frame does not import
// secure, keeping the core framing layer free of any crypto dependency.
type Sealer interface {
	Seal(payload []byte) ([]byte, error)
}

// Fields collects the caller-supplied values Build assembles into a frame.
type Fields struct {
	SenderType      uint8
	SenderIndex     uint8
	ReceiverType    uint8
	ReceiverIndex   uint8
	Sequence        uint16
	PackType        uint8 // PackRequest or PackResponse
	Ack             uint8 // AckNone or AckAfterExec
	Encryption      uint8 // 0..7
	Class           uint8
	ID              uint8
	Payload         []byte
	Sealer          Sealer // optional, see Sealer
}

// EncodeLengthVersion packs a 10-bit total length and 6-bit version into
// the little-endian word stored at frame bytes 1..2.
func EncodeLengthVersion(length int, version uint8) uint16 {
	return uint16(length&0x03ff) | uint16(version)<<10
}

// DecodeLengthVersion unpacks the word at frame bytes 1..2 into its length
// and version components.
func DecodeLengthVersion(word uint16) (length int, version uint8) {
	return int(word & 0x03ff), uint8(word >> 10)
}

// Build serialises f into out, returning the number of bytes written.
//
// It fails with ErrInvalidArgument when out is nil, when f.Payload is nil
// with an implied non-zero length, or when the resulting frame would
// exceed MaxLength or len(out).
func Build(out []byte, f Fields) (int, error) {
	if out == nil {
		return 0, fmt.Errorf("%w: nil output buffer", ErrInvalidArgument)
	}

	payload := f.Payload

	if f.Sealer != nil && f.Encryption != 0 {
		sealed, err := f.Sealer.Seal(payload)
		if err != nil {
			return 0, fmt.Errorf("frame: seal payload: %w", err)
		}
		payload = sealed
	}

	total := payloadOffset + len(payload) + trailerLength

	if total > MaxLength {
		return 0, fmt.Errorf("%w: frame of %d bytes exceeds MaxLength %d", ErrInvalidArgument, total, MaxLength)
	}
	if total > len(out) {
		return 0, fmt.Errorf("%w: frame of %d bytes exceeds output capacity %d", ErrInvalidArgument, total, len(out))
	}
	// A nil []byte with a claimed non-zero length (a separate
	// pointer+length pair disagreeing, as in a C calling convention) has
	// no Go analogue: a slice's length and backing pointer cannot
	// disagree.

	out[0] = StartByte
	bitfield.PutUint16LE(out[1:3], EncodeLengthVersion(total, Version))
	out[3] = checksum.Header(out[0:HeaderLength])

	out[4] = (f.SenderType & 0x1f) | (f.SenderIndex&0x07)<<5
	out[5] = (f.ReceiverType & 0x1f) | (f.ReceiverIndex&0x07)<<5

	bitfield.PutUint16LE(out[6:8], f.Sequence)

	out[8] = (f.PackType&1)<<7 | (f.Ack&ackMask)<<5 | (f.Encryption & encryptedMask)
	out[9] = f.Class
	out[10] = f.ID

	copy(out[payloadOffset:payloadOffset+len(payload)], payload)

	trailerStart := total - trailerLength
	bitfield.PutUint16LE(out[trailerStart:total], checksum.Frame(out[0:trailerStart]))

	return total, nil
}
