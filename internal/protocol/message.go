// Package protocol defines the wire format shared by the server and
// remote-control clients: magic tags, big-endian integer encoding, and
// length-prefixed frame reading.
package protocol

import "math"

// Version is the protocol version reported in reply to a VERSION command.
const Version = 2

// TagLen is the length of every magic tag on the wire.
const TagLen = 4

// Magic tags. The handshake payload is the connect tag itself; command
// payloads are prefixed by their tag.
var (
	TagConnect   = [TagLen]byte{0x4D, 0x41, 0x41, 0x00} // "MAA\x00"
	TagScreencap = [TagLen]byte{'S', 'C', 'R', 'N'}
	TagSize      = [TagLen]byte{'S', 'I', 'Z', 'E'}
	TagTerminate = [TagLen]byte{'T', 'E', 'R', 'M'}
	TagTouch     = [TagLen]byte{'T', 'U', 'C', 'H'}
	TagVersion   = [TagLen]byte{'V', 'E', 'R', 'N'}
)

// HandshakeReply is sent after a valid connect tag.
var HandshakeReply = []byte("OKAY")

// TouchPhase is the one-byte phase field of a TOUCH command.
type TouchPhase byte

// Touch phases. Phase 2 is reserved and ignored on receipt.
const (
	TouchDown TouchPhase = 0
	TouchMove TouchPhase = 1
	TouchUp   TouchPhase = 3
)

// PutU16 appends v as a big-endian 16-bit integer.
func PutU16(b []byte, v int) []byte {
	return append(b, byte(v>>8), byte(v))
}

// PutU32 appends v as a big-endian 32-bit integer.
func PutU32(b []byte, v int) []byte {
	return append(b, byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
}

// U16At decodes a big-endian 16-bit integer at off. Returns 0 when fewer
// than two bytes remain — truncated payloads read as zero, they do not fail.
func U16At(b []byte, off int) int {
	if off < 0 || off+2 > len(b) {
		return 0
	}
	return int(b[off])<<8 | int(b[off+1])
}

// DivRound converts a device-pixel coordinate to a logical coordinate by
// dividing by the display scale and rounding to the nearest integer.
func DivRound(raw int, scale float64) int {
	if scale == 0 {
		return raw
	}
	return int(math.Round(float64(raw) / scale))
}

// HasTag reports whether payload begins with the given magic tag.
func HasTag(payload []byte, tag [TagLen]byte) bool {
	if len(payload) < TagLen {
		return false
	}
	return payload[0] == tag[0] && payload[1] == tag[1] &&
		payload[2] == tag[2] && payload[3] == tag[3]
}
