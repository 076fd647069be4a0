package payload

import "testing"

// centeredTail is bytes 5..16 of a payload encoding all sticks/wheels at
// zero (U=0x0400 for each 16-bit field).
func centeredTail() []byte {
	tail := make([]byte, 12)
	for i := 0; i < 6; i++ {
		tail[2*i] = 0x00
		tail[2*i+1] = 0x04
	}
	return tail
}

func buildPayload(b0, b1, b2, b3, b4 byte, tail []byte) []byte {
	buf := make([]byte, Length)
	buf[0], buf[1], buf[2], buf[3], buf[4] = b0, b1, b2, b3, b4
	copy(buf[5:], tail)
	return buf
}

func TestDecodeShortPayload(t *testing.T) {
	if _, err := Decode(nil); err != ErrShortPayload {
		t.Fatalf("Decode(nil) error = %v, want ErrShortPayload", err)
	}
	if _, err := Decode(make([]byte, 10)); err != ErrShortPayload {
		t.Fatalf("Decode(10 bytes) error = %v, want ErrShortPayload", err)
	}
}

// TestAllZeroPayload checks that an all-zero wire payload decodes to every
// button false, the sport flight mode, both sticks and wheels at -1024
// (raw 0 minus the 0x0400 centring offset), and a zero rotary increment
// -- the all-zero-bytes baseline.
func TestAllZeroPayload(t *testing.T) {
	s, err := Decode(make([]byte, Length))
	if err != nil {
		t.Fatal(err)
	}

	if s.Pause || s.GoHome || s.Shutter || s.Record || s.Custom1 || s.Custom2 || s.Custom3 {
		t.Fatalf("expected all buttons false, got %+v", s)
	}
	if s.Pad != (FiveWay{}) {
		t.Fatalf("expected all pad directions false, got %+v", s.Pad)
	}
	if s.FlightMode != FlightModeSport {
		t.Fatalf("FlightMode = %v, want Sport", s.FlightMode)
	}

	want := Stick{Horizontal: -1024, Vertical: -1024}
	if s.RightStick != want || s.LeftStick != want {
		t.Fatalf("sticks = %+v / %+v, want %+v", s.RightStick, s.LeftStick, want)
	}
	if s.LeftWheel != -1024 || s.RightWheel != -1024 {
		t.Fatalf("wheels = %d / %d, want -1024", s.LeftWheel, s.RightWheel)
	}
	if s.RightWheelIncrement != 0 {
		t.Fatalf("increment = %d, want 0", s.RightWheelIncrement)
	}
}

// TestCenteredPayload checks that the centred encoding (U=0x0400 on every
// analog field) decodes to zero on every stick and wheel, with all
// buttons false and the sport flight mode.
func TestCenteredPayload(t *testing.T) {
	buf := buildPayload(0, 0, 0, 0, 0, centeredTail())

	s, err := Decode(buf)
	if err != nil {
		t.Fatal(err)
	}

	zero := Stick{}
	if s.RightStick != zero || s.LeftStick != zero {
		t.Fatalf("sticks = %+v / %+v, want zero", s.RightStick, s.LeftStick)
	}
	if s.LeftWheel != 0 || s.RightWheel != 0 {
		t.Fatalf("wheels = %d / %d, want 0", s.LeftWheel, s.RightWheel)
	}
	if s.RightWheelIncrement != 0 {
		t.Fatalf("increment = %d, want 0", s.RightWheelIncrement)
	}
	if s.Pause || s.GoHome || s.Shutter || s.Record || s.Custom1 || s.Custom2 || s.Custom3 {
		t.Fatalf("expected all buttons false, got %+v", s)
	}
	if s.FlightMode != FlightModeSport {
		t.Fatalf("FlightMode = %v, want Sport", s.FlightMode)
	}
}

// TestAllPressedPayload checks that every button and pad direction
// decodes true, and the flight mode switch decodes correctly, when every
// corresponding bit is set on the wire.
func TestAllPressedPayload(t *testing.T) {
	buf := buildPayload(0x70, 0xf9, 0x1d, 0, 0, centeredTail())

	s, err := Decode(buf)
	if err != nil {
		t.Fatal(err)
	}

	if !(s.Pause && s.GoHome && s.Shutter && s.Record && s.Custom1 && s.Custom2 && s.Custom3) {
		t.Fatalf("expected all buttons true, got %+v", s)
	}
	if !(s.Pad.Up && s.Pad.Down && s.Pad.Left && s.Pad.Right && s.Pad.Centre) {
		t.Fatalf("expected all pad directions true, got %+v", s.Pad)
	}
	if s.FlightMode != FlightModeNormal {
		t.Fatalf("FlightMode = %v, want Normal", s.FlightMode)
	}
}

func TestFlightModeUnknownSentinel(t *testing.T) {
	buf := buildPayload(0, 0, 0x03, 0, 0, centeredTail())

	s, err := Decode(buf)
	if err != nil {
		t.Fatal(err)
	}
	if s.FlightMode != FlightModeUnknown {
		t.Fatalf("FlightMode = %v, want Unknown", s.FlightMode)
	}
}

func TestFlightModeUnaffectedByCustomBits(t *testing.T) {
	// byte2 = 0x07: mode bits [1:0] = 3 (Unknown), custom1 bit set too.
	buf := buildPayload(0, 0, 0x07, 0, 0, centeredTail())

	s, err := Decode(buf)
	if err != nil {
		t.Fatal(err)
	}
	if s.FlightMode != FlightModeUnknown {
		t.Fatalf("FlightMode = %v, want Unknown", s.FlightMode)
	}
	if !s.Custom1 {
		t.Fatalf("expected Custom1 true")
	}
}

// TestCenteringWraparound checks that for every raw U, decode maps U to
// int16(U - 0x0400) mod 2^16, across the full 16-bit domain.
func TestCenteringWraparound(t *testing.T) {
	cases := []struct {
		u    uint16
		want int16
	}{
		{0x0000, -1024},
		{0xffff, -1025},
		{0x0400, 0},
	}

	for _, c := range cases {
		got := center(c.u)
		if got != c.want {
			t.Errorf("center(0x%04x) = %d, want %d", c.u, got, c.want)
		}
	}

	// Exhaustive check across the full 16-bit domain.
	for u := 0; u <= 0xffff; u++ {
		want := int16(uint16(u) - centerOffset)
		if got := center(uint16(u)); got != want {
			t.Fatalf("center(0x%04x) = %d, want %d", u, got, want)
		}
	}
}

// TestIncrementSignAndZero checks that the rotary increment's sign bit is
// ignored whenever its magnitude is zero (no negative zero), and honoured
// for every nonzero magnitude.
func TestIncrementSignAndZero(t *testing.T) {
	for magnitude := uint8(0); magnitude <= 31; magnitude++ {
		for sign := 0; sign < 2; sign++ {
			b4 := (magnitude & 0x1f) << 1
			if sign == 1 {
				b4 |= 1 << 6
			}

			buf := buildPayload(0, 0, 0, 0, b4, centeredTail())
			s, err := Decode(buf)
			if err != nil {
				t.Fatal(err)
			}

			var want int8
			switch {
			case magnitude == 0:
				want = 0
			case sign == 1:
				want = int8(magnitude)
			default:
				want = -int8(magnitude)
			}

			if s.RightWheelIncrement != want {
				t.Errorf("magnitude=%d sign=%d: increment = %d, want %d", magnitude, sign, s.RightWheelIncrement, want)
			}
		}
	}
}

// TestBitIsolation checks that toggling any reserved bit never changes
// any decoded field.
func TestBitIsolation(t *testing.T) {
	base := buildPayload(0x70, 0xf9, 0x1d, 0xaa, 0x2a, centeredTail())

	baseState, err := Decode(base)
	if err != nil {
		t.Fatal(err)
	}

	reserved := map[int][]int{
		0: {0, 1, 2, 3, 7},
		1: {1, 2},
		2: {5, 6, 7},
		3: {0, 1, 2, 3, 4, 5, 6, 7},
		4: {0, 7},
	}

	for byteIdx, bits := range reserved {
		for _, bit := range bits {
			toggled := append([]byte(nil), base...)
			toggled[byteIdx] ^= 1 << uint(bit)

			got, err := Decode(toggled)
			if err != nil {
				t.Fatal(err)
			}

			if got != baseState {
				t.Errorf("toggling byte%d bit%d changed decode: %+v != %+v", byteIdx, bit, got, baseState)
			}
		}
	}
}

func TestDecodeIgnoresTrailingBytes(t *testing.T) {
	buf := append(buildPayload(0, 0, 0, 0, 0, centeredTail()), 0xff, 0xff, 0xff)

	s, err := Decode(buf)
	if err != nil {
		t.Fatal(err)
	}
	if s.FlightMode != FlightModeSport {
		t.Fatalf("trailing bytes affected decode: %+v", s)
	}
}
