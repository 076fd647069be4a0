// Package bitfield provides primitives for extracting masked bit ranges out
// of byte buffers.
//
// It applies the masked-register-access idiom to ordinary byte slices,
// because the values it operates on arrive over a wire rather than a bus.
package bitfield

// Bit reports whether bit pos (0 = LSB) is set in b.
func Bit(b byte, pos int) bool {
	return (b>>uint(pos))&1 != 0
}

// Get extracts mask-wide bits starting at pos (0 = LSB) from b.
func Get(b byte, pos int, mask int) uint8 {
	return uint8((int(b) >> uint(pos)) & mask)
}

// Uint16LE decodes a little-endian 16-bit unsigned value from buf[0:2].
func Uint16LE(buf []byte) uint16 {
	return uint16(buf[0]) | uint16(buf[1])<<8
}

// PutUint16LE encodes v into buf[0:2] little-endian.
func PutUint16LE(buf []byte, v uint16) {
	buf[0] = byte(v)
	buf[1] = byte(v >> 8)
}
