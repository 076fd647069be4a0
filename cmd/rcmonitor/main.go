// Command rcmonitor reads frame-protocol traffic from a byte source (a USB
// bulk device, a Unix domain socket, or a recorded replay file), feeds it
// through a stream.Parser, and prints each decoded payload.ControllerState
// it receives. It optionally exposes parser counters via the diag package.
package main

import (
	"flag"
	"fmt"
	"log"
	"net"
	"os"

	"github.com/armoryproto/rcproto/diag"
	"github.com/armoryproto/rcproto/payload"
	"github.com/armoryproto/rcproto/stream"
	"github.com/armoryproto/rcproto/transport"
)

func main() {
	log.SetFlags(0)

	var (
		usbPath    = flag.String("usb", "", "path to a USB bulk character device")
		socketPath = flag.String("socket", "", "path to a Unix domain socket to dial")
		replayPath = flag.String("replay", "", "path to a recorded byte dump to replay instead of a live source")
		diagAddr   = flag.String("diag", "", "if set, serve /debug/vars and /debug/charts on this address")
	)
	flag.Parse()

	logger := log.New(os.Stderr, "rcmonitor: ", log.LstdFlags)

	src, c, err := openSource(*usbPath, *socketPath, *replayPath)
	if err != nil {
		log.Fatalf("rcmonitor: %v", err)
	}
	if c != nil {
		defer c.Close()
	}

	parser := stream.New(func(_ any, state payload.ControllerState) {
		fmt.Printf("%+v\n", state)
	}, nil)

	if *diagAddr != "" {
		counters := diag.NewCounters("rcmonitor")
		parser.SetCounters(counters)

		server := diag.NewServer(*diagAddr, logger)
		go func() {
			if err := server.ListenAndServe(); err != nil {
				logger.Printf("diagnostics server exited: %v", err)
			}
		}()
	}

	if err := transport.Pump(src, parser.Feed); err != nil {
		log.Fatalf("rcmonitor: %v", err)
	}
}

type closer interface {
	Close() error
}

func openSource(usbPath, socketPath, replayPath string) (interface {
	Read([]byte) (int, error)
}, closer, error) {
	switch {
	case replayPath != "":
		data, err := os.ReadFile(replayPath)
		if err != nil {
			return nil, nil, fmt.Errorf("read replay file: %w", err)
		}
		return transport.NewReplaySource(data, 64, nil), nil, nil

	case usbPath != "":
		src, err := transport.OpenUSBSource(usbPath)
		if err != nil {
			return nil, nil, err
		}
		return src, src, nil

	case socketPath != "":
		conn, err := net.Dial("unix", socketPath)
		if err != nil {
			return nil, nil, fmt.Errorf("dial %s: %w", socketPath, err)
		}
		src := transport.NewSocketSource(conn)
		return src, src, nil

	default:
		return nil, nil, fmt.Errorf("one of -usb, -socket, or -replay is required")
	}
}
