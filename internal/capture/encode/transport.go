// Package encode implements protocol header encoding for synthesized packets.
package encode

import (
	"encoding/binary"

	"github.com/squadnox/gamedig/internal/core"
)

const (
	// TCPHeaderLen is the TCP header size with data offset 5 (no options).
	TCPHeaderLen = 20
	// UDPHeaderLen is the fixed UDP header size.
	UDPHeaderLen = 8

	// tcpWindow is the advertised window on every synthesized segment.
	tcpWindow = 43440
)

// TCP flag bits (byte 13 of the header).
const (
	FlagFIN = 1 << iota
	FlagSYN
	FlagRST
	FlagPSH
	FlagACK
)

// TCPFields holds the caller-chosen fields of a synthesized TCP segment.
// Sequence and acknowledgement numbers come from the session state; ports
// depend on the packet direction.
type TCPFields struct {
	SrcPort uint16
	DstPort uint16
	Seq     uint32
	Ack     uint32
	Flags   uint8
}

// TCP encodes a TCP segment with data offset 5, window 43440 and a zero
// checksum.
func TCP(buf []byte, f TCPFields, payload []byte) (int, error) {
	total := TCPHeaderLen + len(payload)
	if len(buf) < total {
		return 0, core.ErrShortBuffer
	}

	// Source Port (2 bytes at offset 0)
	binary.BigEndian.PutUint16(buf[0:2], f.SrcPort)

	// Destination Port (2 bytes at offset 2)
	binary.BigEndian.PutUint16(buf[2:4], f.DstPort)

	// Sequence Number (4 bytes at offset 4)
	binary.BigEndian.PutUint32(buf[4:8], f.Seq)

	// Acknowledgment Number (4 bytes at offset 8)
	binary.BigEndian.PutUint32(buf[8:12], f.Ack)

	// Data Offset (upper 4 bits, in 32-bit words) + reserved
	buf[12] = TCPHeaderLen / 4 << 4

	// Flags (1 byte at offset 13)
	buf[13] = f.Flags

	// Window (2 bytes at offset 14)
	binary.BigEndian.PutUint16(buf[14:16], tcpWindow)

	// Checksum (2 bytes at offset 16) and Urgent Pointer stay zero.
	buf[16], buf[17], buf[18], buf[19] = 0, 0, 0, 0

	copy(buf[TCPHeaderLen:], payload)
	return total, nil
}

// UDP encodes a UDP datagram with a zero checksum.
// The length field counts a 4-byte header plus payload.
func UDP(buf []byte, srcPort, dstPort uint16, payload []byte) (int, error) {
	total := UDPHeaderLen + len(payload)
	if len(buf) < total {
		return 0, core.ErrShortBuffer
	}

	// Source Port (2 bytes at offset 0)
	binary.BigEndian.PutUint16(buf[0:2], srcPort)

	// Destination Port (2 bytes at offset 2)
	binary.BigEndian.PutUint16(buf[2:4], dstPort)

	// Length (2 bytes at offset 4)
	binary.BigEndian.PutUint16(buf[4:6], uint16(len(payload)+4))

	// Checksum (2 bytes at offset 6) stays zero.
	buf[6], buf[7] = 0, 0

	copy(buf[UDPHeaderLen:], payload)
	return total, nil
}
