// Package transport provides the byte sources a deployed receiver reads
// frames from -- a USB bulk character device, a Unix domain socket, a
// Linux input-event device, and a recorded-traffic replay source. Each is
// nothing more than an io.Reader; none of them import stream, and
// stream.Parser never imports transport. The wiring between the two
// happens in the cmd/ packages via a small pump loop.
package transport

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/sys/unix"
	"golang.org/x/time/rate"

	"github.com/armoryproto/rcproto/frame"
	"github.com/armoryproto/rcproto/payload"
)

// ErrClosed is returned by USBSource.Read and SocketSource.Read after
// Close has been called.
var ErrClosed = errors.New("transport: source closed")

// Pump reads from src in modest chunks and feeds every chunk to feed until
// src.Read returns an error. io.EOF is treated as a clean end of stream and
// returned as nil; any other error is returned to the caller. This is the
// entire adapter between an io.Reader and the parser -- stream.Parser has
// no knowledge of io.Reader at all.
func Pump(src io.Reader, feed func([]byte) int) error {
	buf := make([]byte, 4096)

	for {
		n, err := src.Read(buf)
		if n > 0 {
			feed(buf[:n])
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
	}
}

// USBSource reads from a USB bulk character device (e.g. a usbfs bulk
// endpoint node), configured non-blocking (O_NONBLOCK) so Read returns
// EAGAIN instead of stalling the caller's pump loop when the peer has
// nothing queued.
type USBSource struct {
	f      *os.File
	closed bool
}

// OpenUSBSource opens path and switches its underlying file descriptor to
// non-blocking mode.
func OpenUSBSource(path string) (*USBSource, error) {
	f, err := os.OpenFile(path, os.O_RDONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("transport: open %s: %w", path, err)
	}

	if err := unix.SetNonblock(int(f.Fd()), true); err != nil {
		f.Close()
		return nil, fmt.Errorf("transport: set non-blocking on %s: %w", path, err)
	}

	return &USBSource{f: f}, nil
}

// Read implements io.Reader. It returns ErrClosed once Close has been
// called, rather than whatever error the kernel happens to return on a
// closed file descriptor.
func (s *USBSource) Read(p []byte) (int, error) {
	if s.closed {
		return 0, ErrClosed
	}
	return s.f.Read(p)
}

// Close releases the underlying file descriptor.
func (s *USBSource) Close() error {
	s.closed = true
	return s.f.Close()
}

// SocketSource wraps an already-connected Unix domain stream socket.
// Transport discovery (dialing, accepting) is the caller's job -- this
// type only ever sees a connection that already exists.
type SocketSource struct {
	conn   io.ReadCloser
	closed bool
}

// NewSocketSource wraps an already-open connection.
func NewSocketSource(conn io.ReadCloser) *SocketSource {
	return &SocketSource{conn: conn}
}

// Read implements io.Reader. It returns ErrClosed once Close has been
// called, rather than whatever error the underlying connection happens to
// return after being closed.
func (s *SocketSource) Read(p []byte) (int, error) {
	if s.closed {
		return 0, ErrClosed
	}
	return s.conn.Read(p)
}

// Close releases the underlying connection.
func (s *SocketSource) Close() error {
	s.closed = true
	return s.conn.Close()
}

// evdevEventSize is sizeof(struct input_event) on a 64-bit Linux host
// (two 8-byte timeval fields, two uint16 fields, one int32 value).
const evdevEventSize = 24

// Linux input-event type/code constants this adapter understands. Anything
// else is read and discarded.
const (
	evKey = 0x01
	evAbs = 0x03

	// A minimal button/axis mapping sufficient to exercise frame.Build
	// from a generic gamepad without real RC hardware, for local testing
	// rather than a faithful HID mapping.
	keyPause = 0x120 // BTN_TRIGGER
	absX     = 0x00
	absY     = 0x01
)

// InputEventSource opens a Linux /dev/input/eventN node, grabs it
// exclusively via EVIOCGRAB, and translates native button/axis events into
// synthetic push frames it hands back through a provided frame.Sealer-free
// frame.Build call. It satisfies io.Reader by buffering the most recently
// built frame.
type InputEventSource struct {
	f       *os.File
	centre  payload.Stick
	pending []byte

	seq uint16
}

// OpenInputEventSource opens path and grabs exclusive access to it.
func OpenInputEventSource(path string) (*InputEventSource, error) {
	f, err := os.OpenFile(path, os.O_RDONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("transport: open %s: %w", path, err)
	}

	if err := unix.IoctlSetInt(int(f.Fd()), unix.EVIOCGRAB, 1); err != nil {
		f.Close()
		return nil, fmt.Errorf("transport: EVIOCGRAB %s: %w", path, err)
	}

	return &InputEventSource{f: f}, nil
}

// Close releases the grab and the underlying file descriptor.
func (s *InputEventSource) Close() error {
	_ = unix.IoctlSetInt(int(s.f.Fd()), unix.EVIOCGRAB, 0)
	return s.f.Close()
}

// Read drains any pending synthetic frame, then reads and translates one
// batch of raw input_event records into a fresh push frame. It never
// blocks on frame.Build failure: a build error is treated as "no frame
// this round" and Read returns 0 bytes with a nil error, so the next Read
// call reads fresh events, matching the parser's own "never
// surface malformed input as an error to the feeder" posture one layer
// up the stack.
func (s *InputEventSource) Read(p []byte) (int, error) {
	if len(s.pending) > 0 {
		n := copy(p, s.pending)
		s.pending = s.pending[n:]
		return n, nil
	}

	raw := make([]byte, evdevEventSize*16)
	n, err := s.f.Read(raw)
	if err != nil {
		return 0, err
	}
	raw = raw[:n]

	var f payload.ControllerState
	f.RightStick = s.centre

	for off := 0; off+evdevEventSize <= len(raw); off += evdevEventSize {
		evType := binary.LittleEndian.Uint16(raw[off+16 : off+18])
		evCode := binary.LittleEndian.Uint16(raw[off+18 : off+20])
		evValue := int32(binary.LittleEndian.Uint32(raw[off+20 : off+24]))

		switch evType {
		case evKey:
			if evCode == keyPause {
				f.Pause = evValue != 0
			}
		case evAbs:
			switch evCode {
			case absX:
				f.RightStick.Horizontal = int16(evValue)
			case absY:
				f.RightStick.Vertical = int16(evValue)
			}
		}
	}

	built := make([]byte, frame.MaxLength)
	m, err := frame.Build(built, frame.Fields{
		SenderType:   frame.DeviceRemoteController,
		ReceiverType: frame.DeviceApplicationHost,
		Sequence:     s.seq,
		Class:        frame.ClassRC,
		ID:           frame.IDPush,
		Payload:      encodeMinimalPush(f),
	})
	s.seq++
	if err != nil {
		return 0, nil
	}

	s.pending = built[:m]
	n2 := copy(p, s.pending)
	s.pending = s.pending[n2:]
	return n2, nil
}

// encodeMinimalPush serialises just enough of a ControllerState back into
// a 17-byte push payload to exercise the round trip; it is the inverse of
// payload.Decode's analog/Pause fields only, not a full re-encoder.
func encodeMinimalPush(s payload.ControllerState) []byte {
	buf := make([]byte, payload.Length)
	if s.Pause {
		buf[0] |= 1 << 4
	}

	putCentred := func(off int, v int16) {
		u := uint16(v) + 0x0400
		buf[off] = byte(u)
		buf[off+1] = byte(u >> 8)
	}

	putCentred(5, s.RightStick.Horizontal)
	putCentred(7, s.RightStick.Vertical)
	putCentred(9, s.LeftStick.Vertical)
	putCentred(11, s.LeftStick.Horizontal)
	putCentred(13, s.LeftWheel)
	putCentred(15, s.RightWheel)

	return buf
}

// ReplaySource replays a previously captured byte dump at a configurable
// rate, for deterministic integration tests and for re-running a captured
// session through the terminal emulator without live hardware.
type ReplaySource struct {
	data    []byte
	pos     int
	limiter *rate.Limiter
	chunk   int
}

// NewReplaySource returns a ReplaySource that serves data in chunks of
// chunkSize bytes (at least 1), releasing one chunk per limiter event.
// A nil limiter disables pacing; each Read still returns at most one chunk.
func NewReplaySource(data []byte, chunkSize int, limiter *rate.Limiter) *ReplaySource {
	if chunkSize < 1 {
		chunkSize = 1
	}
	return &ReplaySource{data: data, limiter: limiter, chunk: chunkSize}
}

// Read implements io.Reader, returning io.EOF once the recorded data is
// exhausted.
func (s *ReplaySource) Read(p []byte) (int, error) {
	if s.pos >= len(s.data) {
		return 0, io.EOF
	}

	if s.limiter != nil {
		if err := s.limiter.Wait(context.Background()); err != nil {
			return 0, fmt.Errorf("transport: replay rate limiter: %w", err)
		}
	}

	end := s.pos + s.chunk
	if end > len(s.data) {
		end = len(s.data)
	}
	if want := end - s.pos; want < len(p) {
		p = p[:want]
	}

	n := copy(p, s.data[s.pos:end])
	s.pos += n
	return n, nil
}

// Reset rewinds the replay to the beginning of the recorded data.
func (s *ReplaySource) Reset() {
	s.pos = 0
}
