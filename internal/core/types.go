// Package core defines core types with zero external dependencies.
package core

import "net/netip"

// Direction tells whether a packet left this client or arrived from a server.
type Direction uint8

const (
	// DirectionSend marks a packet going from us to a server.
	DirectionSend Direction = iota
	// DirectionReceive marks a packet a server sent to us.
	DirectionReceive
)

// String returns the direction name.
func (d Direction) String() string {
	switch d {
	case DirectionSend:
		return "send"
	case DirectionReceive:
		return "receive"
	}
	return "unknown"
}

// Protocol is the transport protocol of a socket exchange.
type Protocol uint8

const (
	ProtocolTCP Protocol = iota
	ProtocolUDP
)

// String returns the protocol name.
func (p Protocol) String() string {
	switch p {
	case ProtocolTCP:
		return "tcp"
	case ProtocolUDP:
		return "udp"
	}
	return "unknown"
}

// PacketEvent describes one logical socket send or receive.
// It is built by the socket layer per I/O event and never stored beyond the call.
type PacketEvent struct {
	Direction Direction
	Protocol  Protocol
	Local     netip.AddrPort // Our side of the connection
	Remote    netip.AddrPort // The server's side
}
