// Package stream implements the streaming frame parser: a stateful object
// that accepts arbitrary byte chunks, resynchronises onto valid frame
// boundaries inside a bounded ring buffer, and delivers a decoded
// payload.ControllerState to a consumer callback for each successfully
// validated RC-push frame -- silently discarding everything else.
package stream

import (
	"github.com/armoryproto/rcproto/bitfield"
	"github.com/armoryproto/rcproto/checksum"
	"github.com/armoryproto/rcproto/frame"
	"github.com/armoryproto/rcproto/payload"
	"github.com/armoryproto/rcproto/ring"
)

// Callback is invoked synchronously from Feed, once per accepted push
// frame, in frame-completion order. The ControllerState is a value; the
// parser makes no further use of it once the callback returns.
type Callback func(ctx any, state payload.ControllerState)

// DropReason classifies why a candidate was not delivered to the
// Callback, for Counters. Feed never surfaces these to the feeder; they
// exist purely for optional diagnostics.
type DropReason int

const (
	DropBadStart DropReason = iota
	DropHeaderChecksum
	DropLengthRange
	DropFrameChecksum
	DropWrongMessage
	DropShortPayload
)

// Counters receives optional accounting events from Feed. A nil Counters
// is valid and costs nothing beyond the interface-nil check; Parser never
// requires one.
type Counters interface {
	Accepted()
	Dropped(reason DropReason)
	Overflowed()
}

// Opener reverses an optional payload seal applied by frame.Build's
// Sealer on the way out. It is satisfied structurally by secure.Opener;
// this package does not import secure, keeping the core parser free of
// any crypto dependency. A nil Opener (the default) means accepted
// frames whose encryption field is nonzero are decoded as-is, which only
// produces a meaningful ControllerState if the payload was never sealed
// in the first place.
type Opener interface {
	Open(ciphertext []byte) ([]byte, error)
}

type scanState int

const (
	seekingStart scanState = iota
	accumulatingFrame
)

// Parser is the stateful streaming frame parser. It is not safe for
// concurrent use by multiple goroutines feeding it at once -- it is meant
// to be owned exclusively by a single logical producer.
type Parser struct {
	callback Callback
	ctx      any
	counters Counters
	opener   Opener

	buf   *ring.Buffer
	state scanState

	// expected is the total frame length latched while accumulating,
	// valid only when state == accumulatingFrame.
	expected int
}

// New creates a Parser that invokes cb with ctx for each accepted push
// frame. It returns nil if cb is nil.
func New(cb Callback, ctx any) *Parser {
	if cb == nil {
		return nil
	}

	return &Parser{
		callback: cb,
		ctx:      ctx,
		buf:      ring.New(ring.Capacity),
		state:    seekingStart,
	}
}

// SetCounters attaches an optional diagnostics sink. Passing nil disables
// counting (the default).
func (p *Parser) SetCounters(c Counters) {
	if p == nil {
		return
	}
	p.counters = c
}

// SetOpener attaches an optional payload unsealer, reversing whatever a
// peer's frame.Build Sealer applied before framing. Passing nil (the
// default) leaves sealed payloads undecoded as ciphertext.
func (p *Parser) SetOpener(o Opener) {
	if p == nil {
		return
	}
	p.opener = o
}

// Reset discards any buffered bytes and returns the parser to its initial
// seeking state. A nil Parser is a no-op.
func (p *Parser) Reset() {
	if p == nil {
		return
	}
	p.buf.Reset()
	p.state = seekingStart
	p.expected = 0
}

func (p *Parser) drop(reason DropReason) {
	if p.counters != nil {
		p.counters.Dropped(reason)
	}
}

// Feed appends data to the parser's internal ring buffer and runs the
// resynchronisation/accumulation state machine until no further progress
// can be made, returning the number of push frames delivered to the
// callback during this call. Both p and data may be nil, in which case
// Feed is a no-op returning 0.
func (p *Parser) Feed(data []byte) int {
	if p == nil || len(data) == 0 {
		return 0
	}

	overflowed := p.buf.Write(data)
	if overflowed && p.counters != nil {
		p.counters.Overflowed()
	}

	delivered := 0

	for {
		switch p.state {
		case seekingStart:
			if !p.seek() {
				return delivered
			}
		case accumulatingFrame:
			if p.buf.Len() < p.expected {
				return delivered
			}
			if p.accumulate() {
				delivered++
			}
			p.state = seekingStart
		}
	}
}

// seek implements the SEEKING_START state: scanning for a byte that could
// start a valid frame and latching its declared length. Rejected bytes are
// discarded inside its own loop. It returns false when it must wait for
// more input (including when every buffered byte was discarded), true once
// it has transitioned to accumulatingFrame.
func (p *Parser) seek() bool {
	for p.buf.Len() > 0 {
		if p.buf.At(0) != frame.StartByte {
			p.buf.Discard(1)
			p.drop(DropBadStart)
			continue
		}

		if p.buf.Len() < 4 {
			return false
		}

		header := p.buf.Peek(frame.HeaderLength)
		if checksum.Header(header) != p.buf.At(3) {
			p.buf.Discard(1)
			p.drop(DropHeaderChecksum)
			continue
		}

		word := bitfield.Uint16LE(p.buf.Peek(3)[1:3])
		length, _ := frame.DecodeLengthVersion(word)

		if length < frame.MinLength || length > frame.MaxLength {
			p.buf.Discard(1)
			p.drop(DropLengthRange)
			continue
		}

		p.expected = length
		p.state = accumulatingFrame
		return true
	}

	return false
}

// accumulate implements the ACCUMULATING_FRAME state: validating a
// latched-length candidate's trailer checksum and message class/id, then
// decoding its payload. It always consumes p.expected bytes from the
// buffer and reports whether the callback fired.
func (p *Parser) accumulate() bool {
	candidate := p.buf.Peek(p.expected)
	p.buf.Discard(p.expected)

	trailerStart := p.expected - 2
	want := bitfield.Uint16LE(candidate[trailerStart:p.expected])
	got := checksum.Frame(candidate[0:trailerStart])

	if got != want {
		p.drop(DropFrameChecksum)
		return false
	}

	class := candidate[9]
	id := candidate[10]

	if class != frame.ClassRC || id != frame.IDPush {
		p.drop(DropWrongMessage)
		return false
	}

	payloadBytes := candidate[11:trailerStart]

	// Byte 8 bits [2:0] carry the encryption code frame.Build wrote; a
	// nonzero value means the payload was sealed before framing and must
	// be opened before it looks anything like a push payload.
	if encryption := candidate[8] & 0x07; encryption != 0 && p.opener != nil {
		opened, err := p.opener.Open(payloadBytes)
		if err != nil {
			p.drop(DropShortPayload)
			return false
		}
		payloadBytes = opened
	}

	if len(payloadBytes) < frame.PushPayloadLength {
		p.drop(DropShortPayload)
		return false
	}

	state, err := payload.Decode(payloadBytes)
	if err != nil {
		// unreachable: length was just checked above.
		p.drop(DropShortPayload)
		return false
	}

	if p.counters != nil {
		p.counters.Accepted()
	}

	p.callback(p.ctx, state)
	return true
}
