// Package encode implements protocol header encoding for synthesized packets.
//
// Every function writes a complete header plus payload into a caller-supplied
// buffer and returns the total encoded length. The buffer must be sized by the
// caller from the exported header-length constants; a short buffer is a
// contract violation reported as core.ErrShortBuffer.
package encode

import (
	"encoding/binary"

	"github.com/squadnox/gamedig/internal/core"
)

const (
	// EthernetHeaderLen is the fixed Ethernet II header size.
	EthernetHeaderLen = 14

	// EtherType values
	EtherTypeIPv4 = 0x0800
	EtherTypeIPv6 = 0x86DD
)

// Ethernet encodes an Ethernet II frame around payload.
// Both MAC addresses stay zero: the frame never existed on a real link.
func Ethernet(buf []byte, etherType uint16, payload []byte) (int, error) {
	total := EthernetHeaderLen + len(payload)
	if len(buf) < total {
		return 0, core.ErrShortBuffer
	}

	// Destination MAC (6 bytes) and Source MAC (6 bytes) stay zero.
	clear(buf[0:12])

	// EtherType (2 bytes at offset 12)
	binary.BigEndian.PutUint16(buf[12:14], etherType)

	copy(buf[EthernetHeaderLen:], payload)
	return total, nil
}
