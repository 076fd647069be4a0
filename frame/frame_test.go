package frame

import (
	"bytes"
	"testing"

	"github.com/armoryproto/rcproto/checksum"
)

func centeredPayload() []byte {
	tail := make([]byte, PushPayloadLength)
	for i := 0; i < 6; i++ {
		tail[5+2*i] = 0x00
		tail[5+2*i+1] = 0x04
	}
	return tail
}

// TestBuildCentredPushFrame builds a push frame carrying an all-centred
// payload and checks the resulting wire bytes against the format by hand:
// start byte, length/version word, header checksum, and trailer checksum.
func TestBuildCentredPushFrame(t *testing.T) {
	out := make([]byte, MaxLength)

	n, err := Build(out, Fields{
		SenderType:    DeviceRemoteController,
		SenderIndex:   0,
		ReceiverType:  DeviceApplicationHost,
		ReceiverIndex: 0,
		Sequence:      0x0001,
		PackType:      PackRequest,
		Ack:           AckNone,
		Encryption:    0,
		Class:         ClassRC,
		ID:            IDPush,
		Payload:       centeredPayload(),
	})
	if err != nil {
		t.Fatal(err)
	}

	if n != 30 {
		t.Fatalf("Build length = %d, want 30", n)
	}

	if out[0] != StartByte {
		t.Fatalf("byte0 = %#x, want StartByte", out[0])
	}

	length, version := DecodeLengthVersion(uint16(out[1]) | uint16(out[2])<<8)
	if length != 30 || version != Version {
		t.Fatalf("length/version = %d/%d, want 30/%d", length, version, Version)
	}

	if out[3] != checksum.Header(out[0:3]) {
		t.Fatalf("header checksum mismatch")
	}

	trailer := uint16(out[n-2]) | uint16(out[n-1])<<8
	if trailer != checksum.Frame(out[0:n-2]) {
		t.Fatalf("frame checksum mismatch")
	}
}

func TestBuildMinimumFrame(t *testing.T) {
	out := make([]byte, MinLength)

	n, err := Build(out, Fields{Class: ClassRC, ID: IDChannelPoll})
	if err != nil {
		t.Fatal(err)
	}
	if n != MinLength {
		t.Fatalf("Build length = %d, want %d", n, MinLength)
	}
}

func TestBuildRejectsNilOutput(t *testing.T) {
	if _, err := Build(nil, Fields{}); err == nil {
		t.Fatal("expected error for nil output")
	}
}

func TestBuildRejectsCapacityTooSmall(t *testing.T) {
	out := make([]byte, 5)
	if _, err := Build(out, Fields{Payload: make([]byte, 4)}); err == nil {
		t.Fatal("expected error for output too small")
	}
}

func TestBuildRejectsOversizeFrame(t *testing.T) {
	out := make([]byte, MaxLength+100)
	payload := make([]byte, MaxLength) // total would be 11+MaxLength+2 > MaxLength

	if _, err := Build(out, Fields{Payload: payload}); err == nil {
		t.Fatal("expected error for frame exceeding MaxLength")
	}
}

func TestBuildBoundary(t *testing.T) {
	// Largest payload that keeps total length exactly MaxLength.
	maxPayload := MaxLength - 13
	out := make([]byte, MaxLength)

	n, err := Build(out, Fields{Payload: make([]byte, maxPayload)})
	if err != nil {
		t.Fatal(err)
	}
	if n != MaxLength {
		t.Fatalf("Build length = %d, want %d", n, MaxLength)
	}

	// One byte more must fail.
	if _, err := Build(out, Fields{Payload: make([]byte, maxPayload+1)}); err == nil {
		t.Fatal("expected error for payload one byte over the limit")
	}
}

type stubSealer struct {
	seal func([]byte) ([]byte, error)
}

func (s stubSealer) Seal(payload []byte) ([]byte, error) {
	return s.seal(payload)
}

func TestBuildUsesSealerWhenEncryptionNonZero(t *testing.T) {
	called := false
	sealer := stubSealer{seal: func(p []byte) ([]byte, error) {
		called = true
		return append([]byte{0xff}, p...), nil
	}}

	out := make([]byte, MaxLength)
	n, err := Build(out, Fields{Encryption: 1, Payload: []byte{0x01}, Sealer: sealer})
	if err != nil {
		t.Fatal(err)
	}
	if !called {
		t.Fatal("expected Sealer.Seal to be invoked")
	}
	if out[11] != 0xff {
		t.Fatalf("sealed prefix byte missing, got frame %v", out[:n])
	}
}

func TestBuildSkipsSealerWhenEncryptionZero(t *testing.T) {
	called := false
	sealer := stubSealer{seal: func(p []byte) ([]byte, error) {
		called = true
		return p, nil
	}}

	out := make([]byte, MaxLength)
	if _, err := Build(out, Fields{Encryption: 0, Payload: []byte{0x01}, Sealer: sealer}); err != nil {
		t.Fatal(err)
	}
	if called {
		t.Fatal("Sealer.Seal must not be invoked when Encryption == 0")
	}
}

func TestEncodeDecodeLengthVersionRoundtrip(t *testing.T) {
	word := EncodeLengthVersion(1000, 7)
	length, version := DecodeLengthVersion(word)

	if length != 1000 || version != 7 {
		t.Fatalf("roundtrip = %d/%d, want 1000/7", length, version)
	}
}

func TestBuildPayloadCopiedVerbatim(t *testing.T) {
	payload := []byte{0xde, 0xad, 0xbe, 0xef}
	out := make([]byte, MaxLength)

	n, err := Build(out, Fields{Payload: payload})
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(out[11:11+len(payload)], payload) {
		t.Fatalf("payload not copied verbatim, got %v in frame of length %d", out[11:11+len(payload)], n)
	}
}
