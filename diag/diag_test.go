package diag

import (
	"expvar"
	"strings"
	"testing"

	"github.com/armoryproto/rcproto/stream"
)

func TestCountersAccepted(t *testing.T) {
	c := NewCounters("rctest1")
	c.Accepted()
	c.Accepted()

	if got := expvar.Get("rctest1.accepted").String(); got != "2" {
		t.Fatalf("accepted = %s, want 2", got)
	}
}

func TestCountersDropped(t *testing.T) {
	c := NewCounters("rctest2")
	c.Dropped(stream.DropHeaderChecksum)
	c.Dropped(stream.DropHeaderChecksum)
	c.Dropped(stream.DropBadStart)

	got := expvar.Get("rctest2.dropped").String()
	if !strings.Contains(got, `"header_checksum": 2`) {
		t.Fatalf("dropped map missing header_checksum:2, got %s", got)
	}
	if !strings.Contains(got, `"bad_start": 1`) {
		t.Fatalf("dropped map missing bad_start:1, got %s", got)
	}
}

func TestCountersOverflowed(t *testing.T) {
	c := NewCounters("rctest3")
	c.Overflowed()

	if got := expvar.Get("rctest3.overflowed").String(); got != "1" {
		t.Fatalf("overflowed = %s, want 1", got)
	}
}
