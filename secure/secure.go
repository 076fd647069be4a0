// Package secure is an optional helper layered above the frame protocol
// that gives the builder's per-frame encryption-code field real effect. It
// has no bearing on the wire format itself -- the frame and payload layouts
// are unchanged by its presence or absence -- and exists for senders and
// receivers that have already agreed on a shared key out of band, such as
// through a prior pairing handshake.
package secure

import (
	"crypto/rand"
	"errors"
	"fmt"

	"golang.org/x/crypto/nacl/secretbox"
)

// KeySize is the length in bytes of the shared symmetric key.
const KeySize = 32

// ErrShortCiphertext is returned by Open when the input is too short to
// contain a nonce and authentication tag.
var ErrShortCiphertext = errors.New("secure: ciphertext shorter than nonce+overhead")

// ErrAuthenticationFailed is returned by Open when the ciphertext does not
// authenticate under the configured key.
var ErrAuthenticationFailed = errors.New("secure: message authentication failed")

// Sealer seals payloads before they are serialised by frame.Build. It
// satisfies frame.Sealer structurally.
type Sealer struct {
	key [KeySize]byte
}

// Opener reverses a Sealer's transformation on a received payload.
type Opener struct {
	key [KeySize]byte
}

// NewSealer returns a Sealer keyed with key, which must be KeySize bytes.
func NewSealer(key []byte) (*Sealer, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("secure: key must be %d bytes, got %d", KeySize, len(key))
	}
	s := &Sealer{}
	copy(s.key[:], key)
	return s, nil
}

// NewOpener returns an Opener keyed with key, which must be KeySize bytes.
func NewOpener(key []byte) (*Opener, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("secure: key must be %d bytes, got %d", KeySize, len(key))
	}
	o := &Opener{}
	copy(o.key[:], key)
	return o, nil
}

// Seal authenticates and encrypts payload, prefixing the result with a
// fresh random nonce.
func (s *Sealer) Seal(payload []byte) ([]byte, error) {
	var nonce [24]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return nil, fmt.Errorf("secure: generate nonce: %w", err)
	}

	out := make([]byte, 0, len(nonce)+len(payload)+secretbox.Overhead)
	out = append(out, nonce[:]...)
	return secretbox.Seal(out, payload, &nonce, &s.key), nil
}

// Open reverses Seal, verifying the authentication tag.
func (o *Opener) Open(sealed []byte) ([]byte, error) {
	if len(sealed) < 24+secretbox.Overhead {
		return nil, ErrShortCiphertext
	}

	var nonce [24]byte
	copy(nonce[:], sealed[:24])

	out, ok := secretbox.Open(nil, sealed[24:], &nonce, &o.key)
	if !ok {
		return nil, ErrAuthenticationFailed
	}

	return out, nil
}
