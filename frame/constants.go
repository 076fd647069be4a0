package frame

// Wire-format bounds.
const (
	// StartByte marks a candidate frame boundary.
	StartByte = 0x55

	// Version is the only protocol version this package produces. It is
	// read back out of received frames by DecodeLengthVersion but never
	// compared against on ingress: an unrecognised version does not by
	// itself cause the streaming parser to drop a frame.
	Version = 1

	// HeaderLength is the number of bytes the header checksum (byte 3)
	// guards: the start byte and the length/version word.
	HeaderLength = 3

	// MinLength and MaxLength bound the 10-bit total-length field.
	MinLength = 13
	MaxLength = 1400

	// payloadOffset is the index of the first payload byte in a
	// serialised frame.
	payloadOffset = 11

	// trailerLength is the size of the trailing full-frame checksum.
	trailerLength = 2
)

// Device-type constants (5-bit, packed into the routing bytes). These are
// protocol data, not behaviour.
const (
	DeviceAny              = 0
	DeviceCamera           = 1
	DeviceApplicationHost  = 2
	DeviceFlightController = 3
	DeviceGimbal           = 4
	DeviceRemoteController = 6
	DeviceWorkstation      = 10
)

// Pack-type codes (byte 8, bit 7).
const (
	PackRequest  = 0
	PackResponse = 1
)

// Ack codes (byte 8, bits [6:5]).
const (
	AckNone       = 0
	AckAfterExec  = 2
	ackMask       = 0x03
	encryptedMask = 0x07
)

// Message class/id constants. The RC-push message is the only one this
// package's parser decodes; the other two are recognised only to the
// extent that the parser must not emit callbacks for them.
const (
	ClassRC = 0x06

	IDPush          = 0x05
	IDChannelEnable = 0x24
	IDChannelPoll   = 0x01
)

// PushPayloadLength is the minimum payload length for a push frame: the
// payload region of an accepted push frame must be at least this long.
const PushPayloadLength = 17
