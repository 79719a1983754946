// Package encode implements protocol header encoding for synthesized packets.
package encode

import (
	"encoding/binary"
	"net/netip"

	"github.com/squadnox/gamedig/internal/core"
)

const (
	// IPv4HeaderLen is 20 fixed bytes plus the 4-byte stream-id option.
	IPv4HeaderLen = 24
	// IPv6HeaderLen is the fixed IPv6 header size.
	IPv6HeaderLen = 40

	// Protocol numbers
	ProtoTCP = 6
	ProtoUDP = 17

	// ipv4OptionStreamID is the option type byte for the stream-id option:
	// copied flag set, class 0, number 8 (Stream ID).
	ipv4OptionStreamID = 0x88
)

// IPv4 encodes an IPv4 header plus payload.
//
// The header carries a 4-byte Stream ID option holding the truncated stream
// counter so capture tools can separate logical flows; it has no protocol
// meaning. The header checksum is computed over the completed 24-byte header.
func IPv4(buf []byte, src, dst netip.Addr, proto uint8, streamID uint32, payload []byte) (int, error) {
	total := IPv4HeaderLen + len(payload)
	if len(buf) < total {
		return 0, core.ErrShortBuffer
	}

	// Version (4 bits) + IHL (4 bits, in 32-bit words)
	buf[0] = 4<<4 | IPv4HeaderLen/4

	// DSCP/ECN (1 byte at offset 1)
	buf[1] = 0

	// Total Length (2 bytes at offset 2)
	binary.BigEndian.PutUint16(buf[2:4], uint16(total))

	// Identification (2 bytes at offset 4) stays zero.
	buf[4], buf[5] = 0, 0

	// Flags + Fragment Offset (2 bytes at offset 6): don't fragment
	binary.BigEndian.PutUint16(buf[6:8], 0x4000)

	// TTL (1 byte at offset 8)
	buf[8] = 64

	// Protocol (1 byte at offset 9)
	buf[9] = proto

	// Header Checksum (2 bytes at offset 10) is filled in last.
	buf[10], buf[11] = 0, 0

	// Source IP (4 bytes at offset 12)
	srcBytes := src.As4()
	copy(buf[12:16], srcBytes[:])

	// Destination IP (4 bytes at offset 16)
	dstBytes := dst.As4()
	copy(buf[16:20], dstBytes[:])

	// Stream ID option (4 bytes at offset 20): type, length, 16-bit stream id
	buf[20] = ipv4OptionStreamID
	buf[21] = 4
	binary.BigEndian.PutUint16(buf[22:24], uint16(streamID))

	binary.BigEndian.PutUint16(buf[10:12], headerChecksum(buf[:IPv4HeaderLen]))

	copy(buf[IPv4HeaderLen:], payload)
	return total, nil
}

// IPv6 encodes an IPv6 header plus payload.
// The flow label carries the low 20 bits of the stream counter; IPv6 has no
// header checksum.
func IPv6(buf []byte, src, dst netip.Addr, next uint8, streamID uint32, payload []byte) (int, error) {
	total := IPv6HeaderLen + len(payload)
	if len(buf) < total {
		return 0, core.ErrShortBuffer
	}

	// Version (4 bits) + Traffic Class (8 bits) + Flow Label (20 bits)
	binary.BigEndian.PutUint32(buf[0:4], 6<<28|streamID&0x000FFFFF)

	// Payload Length (2 bytes at offset 4)
	binary.BigEndian.PutUint16(buf[4:6], uint16(len(payload)))

	// Next Header (1 byte at offset 6)
	buf[6] = next

	// Hop Limit (1 byte at offset 7)
	buf[7] = 64

	// Source IP (16 bytes at offset 8)
	srcBytes := src.As16()
	copy(buf[8:24], srcBytes[:])

	// Destination IP (16 bytes at offset 24)
	dstBytes := dst.As16()
	copy(buf[24:40], dstBytes[:])

	copy(buf[IPv6HeaderLen:], payload)
	return total, nil
}

// headerChecksum computes the RFC 791 one's-complement header checksum.
// The checksum field must be zero when called.
func headerChecksum(header []byte) uint16 {
	var sum uint32
	for i := 0; i+1 < len(header); i += 2 {
		sum += uint32(binary.BigEndian.Uint16(header[i : i+2]))
	}
	for sum > 0xFFFF {
		sum = sum>>16 + sum&0xFFFF
	}
	return ^uint16(sum)
}
