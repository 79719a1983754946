// Package pcapng emits minimal pcapng streams: one section header, one
// Ethernet interface description, then enhanced packet blocks. It exists
// because the capture writer must attach per-packet comment options to
// synthesized records, which stock pcapng writers do not expose.
package pcapng

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"time"
)

// LinkTypeEthernet is the pcapng link type for Ethernet frames.
const LinkTypeEthernet uint16 = 1

const (
	blockTypeSectionHeader  = 0x0A0D0D0A
	blockTypeInterfaceDesc  = 0x00000001
	blockTypeEnhancedPacket = 0x00000006

	byteOrderMagic = 0x1A2B3C4D
	versionMajor   = 1
	versionMinor   = 0

	optEndOfOptions = 0
	optComment      = 1
)

var (
	// ErrHeaderWritten indicates the section header has already been emitted.
	ErrHeaderWritten = errors.New("pcapng: header blocks already written")
	// ErrHeaderNotWritten indicates a packet was written before the header.
	ErrHeaderNotWritten = errors.New("pcapng: header blocks not written")
)

// Writer emits pcapng blocks to an underlying stream.
// It performs no buffering of its own; every block is a single Write call.
type Writer struct {
	w             io.Writer
	headerWritten bool
}

// NewWriter wraps out. WriteHeader must be called once before any packets.
func NewWriter(out io.Writer) *Writer {
	return &Writer{w: out}
}

// WriteHeader writes the section header block and one interface description
// block declaring linkType and snapLen. Interface timestamps use the default
// microsecond resolution.
func (w *Writer) WriteHeader(linkType uint16, snapLen uint32) error {
	if w.headerWritten {
		return ErrHeaderWritten
	}

	// Section Header Block: magic, version, unspecified section length.
	shb := make([]byte, 28)
	binary.LittleEndian.PutUint32(shb[0:4], blockTypeSectionHeader)
	binary.LittleEndian.PutUint32(shb[4:8], 28)
	binary.LittleEndian.PutUint32(shb[8:12], byteOrderMagic)
	binary.LittleEndian.PutUint16(shb[12:14], versionMajor)
	binary.LittleEndian.PutUint16(shb[14:16], versionMinor)
	binary.LittleEndian.PutUint64(shb[16:24], 0xFFFFFFFFFFFFFFFF)
	binary.LittleEndian.PutUint32(shb[24:28], 28)

	// Interface Description Block: link type, reserved, snap length.
	idb := make([]byte, 20)
	binary.LittleEndian.PutUint32(idb[0:4], blockTypeInterfaceDesc)
	binary.LittleEndian.PutUint32(idb[4:8], 20)
	binary.LittleEndian.PutUint16(idb[8:10], linkType)
	binary.LittleEndian.PutUint32(idb[12:16], snapLen)
	binary.LittleEndian.PutUint32(idb[16:20], 20)

	if _, err := w.w.Write(shb); err != nil {
		return fmt.Errorf("pcapng: write section header: %w", err)
	}
	if _, err := w.w.Write(idb); err != nil {
		return fmt.Errorf("pcapng: write interface description: %w", err)
	}

	w.headerWritten = true
	return nil
}

// WritePacket appends one enhanced packet block for interface 0.
// elapsed is the capture timestamp, measured from the start of the capture;
// origLen is the packet's true length on the synthetic wire. A non-empty
// comment is attached as an opt_comment option.
func (w *Writer) WritePacket(elapsed time.Duration, origLen uint32, data []byte, comment string) error {
	if !w.headerWritten {
		return ErrHeaderNotWritten
	}

	optLen := 0
	if comment != "" {
		// Comment option + end-of-options marker, both 32-bit aligned.
		optLen = 4 + pad4(len(comment)) + 4
	}
	total := 32 + pad4(len(data)) + optLen

	block := make([]byte, total)
	binary.LittleEndian.PutUint32(block[0:4], blockTypeEnhancedPacket)
	binary.LittleEndian.PutUint32(block[4:8], uint32(total))

	// Interface ID (4 bytes at offset 8) stays zero.

	// Timestamp (8 bytes at offset 12), microseconds split high/low.
	usec := uint64(elapsed.Microseconds())
	binary.LittleEndian.PutUint32(block[12:16], uint32(usec>>32))
	binary.LittleEndian.PutUint32(block[16:20], uint32(usec))

	// Captured and original packet lengths
	binary.LittleEndian.PutUint32(block[20:24], uint32(len(data)))
	binary.LittleEndian.PutUint32(block[24:28], origLen)

	copy(block[28:], data)

	if comment != "" {
		off := 28 + pad4(len(data))
		binary.LittleEndian.PutUint16(block[off:off+2], optComment)
		binary.LittleEndian.PutUint16(block[off+2:off+4], uint16(len(comment)))
		copy(block[off+4:], comment)
		off += 4 + pad4(len(comment))
		binary.LittleEndian.PutUint16(block[off:off+2], optEndOfOptions)
		binary.LittleEndian.PutUint16(block[off+2:off+4], 0)
	}

	binary.LittleEndian.PutUint32(block[total-4:], uint32(total))

	if _, err := w.w.Write(block); err != nil {
		return fmt.Errorf("pcapng: write packet block: %w", err)
	}
	return nil
}

// pad4 rounds n up to the next multiple of four.
func pad4(n int) int {
	return (n + 3) &^ 3
}
