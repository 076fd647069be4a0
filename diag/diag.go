// Package diag is the optional diagnostics layer that sits one level above
// stream.Parser: an expvar-backed counter set satisfying stream.Counters,
// plus an HTTP server exposing those counters at /debug/vars and
// github.com/mkevac/debugcharts's live runtime charts at /debug/charts.
// The parser itself never imports net/http or expvar; this package is
// where that wiring happens, so the parser's blocking-free core stays
// free of it.
package diag

import (
	"expvar"
	"log"
	"net/http"

	_ "github.com/mkevac/debugcharts"

	"github.com/armoryproto/rcproto/stream"
)

// Counters is an expvar-backed implementation of stream.Counters. The zero
// value is not usable; construct one with NewCounters.
type Counters struct {
	accepted   *expvar.Int
	overflowed *expvar.Int
	dropped    *expvar.Map
}

// NewCounters registers a fresh set of expvar variables under prefix and
// returns a Counters backed by them. Calling NewCounters twice with the
// same prefix panics, matching expvar.Publish's own behaviour; callers
// should construct exactly one Counters per process.
func NewCounters(prefix string) *Counters {
	c := &Counters{
		accepted:   expvar.NewInt(prefix + ".accepted"),
		overflowed: expvar.NewInt(prefix + ".overflowed"),
		dropped:    expvar.NewMap(prefix + ".dropped"),
	}

	for _, reason := range []stream.DropReason{
		stream.DropBadStart,
		stream.DropHeaderChecksum,
		stream.DropLengthRange,
		stream.DropFrameChecksum,
		stream.DropWrongMessage,
		stream.DropShortPayload,
	} {
		c.dropped.Add(reasonLabel(reason), 0)
	}

	return c
}

func reasonLabel(reason stream.DropReason) string {
	switch reason {
	case stream.DropBadStart:
		return "bad_start"
	case stream.DropHeaderChecksum:
		return "header_checksum"
	case stream.DropLengthRange:
		return "length_range"
	case stream.DropFrameChecksum:
		return "frame_checksum"
	case stream.DropWrongMessage:
		return "wrong_message"
	case stream.DropShortPayload:
		return "short_payload"
	default:
		return "unknown"
	}
}

// Accepted implements stream.Counters.
func (c *Counters) Accepted() { c.accepted.Add(1) }

// Dropped implements stream.Counters.
func (c *Counters) Dropped(reason stream.DropReason) { c.dropped.Add(reasonLabel(reason), 1) }

// Overflowed implements stream.Counters.
func (c *Counters) Overflowed() { c.overflowed.Add(1) }

// Server exposes expvar's default /debug/vars handler and debugcharts'
// /debug/charts handler (registered on http.DefaultServeMux by its import
// side effect) on a dedicated listener. Both handlers live on
// http.DefaultServeMux, and the listener serves that mux, so anything else
// registered on DefaultServeMux is served there too.
type Server struct {
	addr   string
	logger *log.Logger
}

// NewServer returns a Server that will listen on addr when started.
func NewServer(addr string, logger *log.Logger) *Server {
	return &Server{addr: addr, logger: logger}
}

// ListenAndServe starts the diagnostics HTTP server. It blocks until
// http.ListenAndServe returns and hands back its error; the caller decides
// whether that error is fatal rather than this package calling log.Fatal
// itself.
func (s *Server) ListenAndServe() error {
	s.logger.Printf("diag: serving /debug/vars and /debug/charts on %s", s.addr)
	return http.ListenAndServe(s.addr, nil)
}
