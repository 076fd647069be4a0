// Package ring implements the fixed-capacity circular byte buffer the
// streaming frame parser uses to accumulate input across arbitrarily
// chunked reads.
//
// It is a fixed-capacity arena with no pointer graph and no deallocation
// hazard, addressed by logical position rather than physical offset so
// callers never see the wraparound. It is not an allocator -- it has
// exactly one writer and one reader lane, sized once at construction,
// which is all the streaming parser needs.
package ring

// Capacity is the fixed size of the buffer the streaming parser uses.
const Capacity = 4096

// Buffer is a fixed-capacity circular byte buffer with overwrite-on-
// overflow semantics: writing past capacity silently discards the oldest
// bytes, which is the parser's recovery path after a slow consumer falls
// behind.
//
// The zero value is not usable; use New.
type Buffer struct {
	data []byte
	head int // physical offset of the oldest valid byte
	n    int // number of valid bytes currently buffered
}

// New returns an empty Buffer of the given capacity.
func New(capacity int) *Buffer {
	return &Buffer{data: make([]byte, capacity)}
}

// Len returns the number of valid buffered bytes.
func (b *Buffer) Len() int {
	return b.n
}

// Cap returns the buffer's fixed capacity.
func (b *Buffer) Cap() int {
	return len(b.data)
}

// Reset discards all buffered bytes.
func (b *Buffer) Reset() {
	b.head = 0
	b.n = 0
}

// Write appends p to the buffer, reporting whether any previously valid
// byte had to be overwritten to make room. If p is longer than the
// remaining free space, or longer than the buffer's entire capacity, the
// oldest bytes are silently overwritten -- Write never fails and never
// blocks.
func (b *Buffer) Write(p []byte) (overflowed bool) {
	cap := len(b.data)

	if cap == 0 {
		return false
	}

	// A write larger than the whole buffer: only the last `cap` bytes of
	// it can possibly survive; fast-forward head/n as if the earlier
	// bytes had already been overwritten one at a time.
	if len(p) >= cap {
		overflowed = len(p) > cap || b.n > 0
		p = p[len(p)-cap:]
		b.head = 0
		b.n = 0
	}

	tail := (b.head + b.n) % cap

	for _, c := range p {
		b.data[tail] = c
		tail = (tail + 1) % cap

		if b.n < cap {
			b.n++
		} else {
			// buffer was already full: the write position catching up to
			// head means the oldest byte was just overwritten.
			b.head = (b.head + 1) % cap
			overflowed = true
		}
	}

	return overflowed
}

// At returns the byte at logical position pos, where 0 is the oldest
// buffered byte. It panics if pos is out of [0, Len()) -- callers must
// check Len() first, matching this package's other bounds-checked-by-
// caller methods.
func (b *Buffer) At(pos int) byte {
	if pos < 0 || pos >= b.n {
		panic("ring: position out of range")
	}
	return b.data[(b.head+pos)%len(b.data)]
}

// Peek copies the first n logical bytes into a freshly allocated slice. It
// panics if n > Len().
func (b *Buffer) Peek(n int) []byte {
	out := make([]byte, n)
	for i := 0; i < n; i++ {
		out[i] = b.At(i)
	}
	return out
}

// Discard drops the first n logical bytes. It panics if n > Len().
func (b *Buffer) Discard(n int) {
	if n > b.n {
		panic("ring: discard exceeds buffered length")
	}
	b.head = (b.head + n) % len(b.data)
	b.n -= n
}
