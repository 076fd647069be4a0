// Package payload decodes the 17-byte RC-push payload into a
// ControllerState snapshot. It has no knowledge of the frame protocol
// that carries it; it operates on a raw payload slice.
package payload

import (
	"errors"

	"github.com/armoryproto/rcproto/bitfield"
)

// ErrShortPayload is returned by Decode when buf is shorter than Length.
var ErrShortPayload = errors.New("payload: buffer shorter than 17 bytes")

// Length is the size in bytes of a valid RC-push payload.
const Length = 17

// centerOffset is subtracted from each raw 16-bit analog reading before it
// is reinterpreted as signed; see Decode's wraparound note.
const centerOffset = 0x0400

// FlightMode enumerates the three-position flight-mode switch, plus the
// sentinel for the one encoding byte2 bits [1:0] cannot represent validly.
type FlightMode uint8

const (
	FlightModeSport FlightMode = iota
	FlightModeNormal
	FlightModeTripod
	FlightModeUnknown
)

func (m FlightMode) String() string {
	switch m {
	case FlightModeSport:
		return "sport"
	case FlightModeNormal:
		return "normal"
	case FlightModeTripod:
		return "tripod"
	default:
		return "unknown"
	}
}

// Stick is a pair of zero-centred analog axes.
type Stick struct {
	Horizontal int16
	Vertical   int16
}

// FiveWay is the directional pad; more than one direction may be
// simultaneously asserted.
type FiveWay struct {
	Up     bool
	Down   bool
	Left   bool
	Right  bool
	Centre bool
}

// ControllerState is a decoded RC-push snapshot. It is a plain value: the
// parser produces a fresh one per accepted frame and callers may copy it
// freely.
type ControllerState struct {
	Pause   bool
	GoHome  bool
	Shutter bool
	Record  bool

	Custom1 bool
	Custom2 bool
	Custom3 bool

	Pad FiveWay

	FlightMode FlightMode

	RightStick Stick
	LeftStick  Stick

	LeftWheel  int16
	RightWheel int16

	// RightWheelIncrement is the per-frame rotary delta for the right
	// wheel, range -31..+31. Magnitude 0 always yields 0, regardless of
	// the sign bit (no negative zero).
	RightWheelIncrement int8
}

// center maps a raw 16-bit unsigned analog reading to a zero-centred
// signed value: S = int16(U - centerOffset), evaluated modulo 2^16. This
// wraparound is intentional, not accidental: U=0 yields -1024, U=0xFFFF
// yields -1025, U=0x0400 yields 0.
func center(u uint16) int16 {
	return int16(u - centerOffset)
}

// Decode maps a 17-byte RC-push payload to a ControllerState. It fails with
// ErrShortPayload when buf is shorter than Length; buf may be longer, in
// which case only the first Length bytes are consulted.
func Decode(buf []byte) (ControllerState, error) {
	if len(buf) < Length {
		return ControllerState{}, ErrShortPayload
	}

	var s ControllerState

	s.Pause = bitfield.Bit(buf[0], 4)
	s.GoHome = bitfield.Bit(buf[0], 5)
	s.Shutter = bitfield.Bit(buf[0], 6)

	s.Record = bitfield.Bit(buf[1], 0)
	s.Pad.Right = bitfield.Bit(buf[1], 3)
	s.Pad.Up = bitfield.Bit(buf[1], 4)
	s.Pad.Down = bitfield.Bit(buf[1], 5)
	s.Pad.Left = bitfield.Bit(buf[1], 6)
	s.Pad.Centre = bitfield.Bit(buf[1], 7)

	s.FlightMode = FlightMode(bitfield.Get(buf[2], 0, 0x03))
	s.Custom1 = bitfield.Bit(buf[2], 2)
	s.Custom2 = bitfield.Bit(buf[2], 3)
	s.Custom3 = bitfield.Bit(buf[2], 4)

	// byte3 is reserved and must not influence any output field.

	magnitude := bitfield.Get(buf[4], 1, 0x1f)
	positive := bitfield.Bit(buf[4], 6)

	switch {
	case magnitude == 0:
		s.RightWheelIncrement = 0
	case positive:
		s.RightWheelIncrement = int8(magnitude)
	default:
		s.RightWheelIncrement = -int8(magnitude)
	}

	s.RightStick.Horizontal = center(bitfield.Uint16LE(buf[5:7]))
	s.RightStick.Vertical = center(bitfield.Uint16LE(buf[7:9]))
	s.LeftStick.Vertical = center(bitfield.Uint16LE(buf[9:11]))
	s.LeftStick.Horizontal = center(bitfield.Uint16LE(buf[11:13]))
	s.LeftWheel = center(bitfield.Uint16LE(buf[13:15]))
	s.RightWheel = center(bitfield.Uint16LE(buf[15:17]))

	return s, nil
}
