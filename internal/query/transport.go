// Package query implements the shared socket transport that game protocol
// clients exchange bytes through. Every connection, send and receive is
// mirrored into a capture writer before the event is acted on, so an
// installed recorder sees the exact application exchange in order.
package query

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/netip"
	"time"

	"github.com/squadnox/gamedig/internal/capture"
	"github.com/squadnox/gamedig/internal/core"
)

// maxResponse bounds a single read. Game query responses fit comfortably in
// one datagram or segment.
const maxResponse = 65536

// Transport is one dialed connection to a game server.
type Transport struct {
	conn     net.Conn
	protocol core.Protocol
	local    netip.AddrPort
	remote   netip.AddrPort
	cap      capture.Writer
}

// Dial opens a TCP or UDP connection to address and reports the new
// connection to cw. Capture failures are logged and ignored: capture is
// best-effort instrumentation, not part of the query.
func Dial(ctx context.Context, protocol core.Protocol, address string, cw capture.Writer) (*Transport, error) {
	var network string
	switch protocol {
	case core.ProtocolTCP:
		network = "tcp"
	case core.ProtocolUDP:
		network = "udp"
	default:
		return nil, core.ErrUnsupportedProto
	}

	var d net.Dialer
	conn, err := d.DialContext(ctx, network, address)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s %s: %w", network, address, err)
	}

	local, err := addrPort(conn.LocalAddr())
	if err != nil {
		conn.Close()
		return nil, err
	}
	remote, err := addrPort(conn.RemoteAddr())
	if err != nil {
		conn.Close()
		return nil, err
	}

	t := &Transport{
		conn:     conn,
		protocol: protocol,
		local:    local,
		remote:   remote,
		cap:      cw,
	}
	if err := cw.NewConnect(t.event(core.DirectionSend)); err != nil {
		slog.Warn("capture new-connect failed", "remote", remote, "error", err)
	}
	return t, nil
}

// Send writes payload to the server, mirroring it into the capture first.
func (t *Transport) Send(payload []byte) error {
	if err := t.cap.Write(t.event(core.DirectionSend), payload); err != nil {
		slog.Warn("capture write failed", "direction", "send", "error", err)
	}
	if _, err := t.conn.Write(payload); err != nil {
		return fmt.Errorf("failed to send query: %w", err)
	}
	return nil
}

// Recv reads one response within timeout and mirrors it into the capture.
func (t *Transport) Recv(timeout time.Duration) ([]byte, error) {
	if timeout > 0 {
		if err := t.conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
			return nil, err
		}
	}
	buf := make([]byte, maxResponse)
	n, err := t.conn.Read(buf)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	payload := buf[:n]
	if err := t.cap.Write(t.event(core.DirectionReceive), payload); err != nil {
		slog.Warn("capture write failed", "direction", "receive", "error", err)
	}
	return payload, nil
}

// Close closes the underlying connection.
func (t *Transport) Close() error {
	return t.conn.Close()
}

func (t *Transport) event(d core.Direction) core.PacketEvent {
	return core.PacketEvent{
		Direction: d,
		Protocol:  t.protocol,
		Local:     t.local,
		Remote:    t.remote,
	}
}

func addrPort(a net.Addr) (netip.AddrPort, error) {
	switch a := a.(type) {
	case *net.UDPAddr:
		return a.AddrPort(), nil
	case *net.TCPAddr:
		return a.AddrPort(), nil
	}
	return netip.ParseAddrPort(a.String())
}
