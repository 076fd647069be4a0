// Command rcemu is a terminal-based emulator for the frame protocol. It
// synthesises a sweeping stick input, builds a wire frame with
// frame.Build at a configurable rate, and feeds that frame straight back
// through a stream.Parser running in the same process -- a loopback --
// printing the decoded payload.ControllerState it gets back. There is no
// real RC hardware involved; this exists to see what the wire format
// round-trips into, paced by the same golang.org/x/time/rate limiter a
// live sender would use.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"golang.org/x/time/rate"

	"github.com/armoryproto/rcproto/frame"
	"github.com/armoryproto/rcproto/payload"
	"github.com/armoryproto/rcproto/secure"
	"github.com/armoryproto/rcproto/stream"
)

func main() {
	log.SetFlags(0)

	var (
		hz      = flag.Float64("hz", 50, "synthetic transmitter frame rate, in frames per second")
		count   = flag.Int("count", 10, "number of synthetic frames to send")
		sealKey = flag.String("seal-key", "", "32-byte hex key; if set, payloads are sealed with secure.Sealer before framing")
	)
	flag.Parse()

	parser := stream.New(func(_ any, state payload.ControllerState) {
		fmt.Printf("loopback received: %+v\n", state)
	}, nil)

	var sealer frame.Sealer
	if *sealKey != "" {
		key, err := decodeHexKey(*sealKey)
		if err != nil {
			log.Fatalf("rcemu: %v", err)
		}
		s, err := secure.NewSealer(key)
		if err != nil {
			log.Fatalf("rcemu: %v", err)
		}
		sealer = s

		opener, err := secure.NewOpener(key)
		if err != nil {
			log.Fatalf("rcemu: %v", err)
		}
		parser.SetOpener(opener)
	}

	limiter := rate.NewLimiter(rate.Limit(*hz), 1)
	out := make([]byte, frame.MaxLength)
	ctx := context.Background()

	for i := 0; i < *count; i++ {
		if err := limiter.Wait(ctx); err != nil {
			log.Fatalf("rcemu: rate limiter: %v", err)
		}

		encryption := uint8(0)
		if sealer != nil {
			encryption = 1
		}

		n, err := frame.Build(out, frame.Fields{
			SenderType:   frame.DeviceRemoteController,
			ReceiverType: frame.DeviceApplicationHost,
			Sequence:     uint16(i),
			Class:        frame.ClassRC,
			ID:           frame.IDPush,
			Encryption:   encryption,
			Payload:      sampleStick(i),
			Sealer:       sealer,
		})
		if err != nil {
			log.Fatalf("rcemu: build frame %d: %v", i, err)
		}

		parser.Feed(out[:n])
	}
}

// sampleStick produces a deterministic, slowly-sweeping push payload for
// frame i, standing in for a live operator's stick input.
func sampleStick(i int) []byte {
	buf := make([]byte, payload.Length)

	sweep := uint16(0x0400 + int16(i%64-32)*8)
	buf[5], buf[6] = byte(sweep), byte(sweep>>8)
	buf[7], buf[8] = 0x00, 0x04
	buf[9], buf[10] = 0x00, 0x04
	buf[11], buf[12] = 0x00, 0x04
	buf[13], buf[14] = 0x00, 0x04
	buf[15], buf[16] = 0x00, 0x04

	return buf
}

func decodeHexKey(s string) ([]byte, error) {
	if len(s) != secure.KeySize*2 {
		return nil, fmt.Errorf("seal-key must be %d hex characters", secure.KeySize*2)
	}

	key := make([]byte, secure.KeySize)
	for i := range key {
		var b int
		if _, err := fmt.Sscanf(s[2*i:2*i+2], "%02x", &b); err != nil {
			return nil, fmt.Errorf("decode seal-key: %w", err)
		}
		key[i] = byte(b)
	}
	return key, nil
}
