// Package capture mirrors socket I/O into a synthetic packet-capture file.
//
// The client performs plain socket exchanges; this package reconstructs the
// Ethernet/IP/TCP-or-UDP layering those exchanges would have shown on the
// wire and appends the result to a pcapng stream. TCP sessions get a
// synthesized three-way handshake and per-segment peer acknowledgements so
// the capture is coherent when opened in analysis tools.
package capture

import "github.com/squadnox/gamedig/internal/core"

// Writer receives one call per logical socket event, in the order the events
// actually occurred. Implementations must be safe for concurrent use.
type Writer interface {
	// Write records one send or receive of payload described by ev.
	Write(ev core.PacketEvent, payload []byte) error
	// NewConnect records the establishment of a new logical connection.
	NewConnect(ev core.PacketEvent) error
}

// NopWriter discards every event. It is installed when capture is disabled.
type NopWriter struct{}

func (NopWriter) Write(core.PacketEvent, []byte) error { return nil }
func (NopWriter) NewConnect(core.PacketEvent) error    { return nil }
