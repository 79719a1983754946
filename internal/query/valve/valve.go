// Package valve implements the Source engine A2S_INFO query.
package valve

import (
	"context"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/squadnox/gamedig/internal/capture"
	"github.com/squadnox/gamedig/internal/core"
	"github.com/squadnox/gamedig/internal/query"
)

// DefaultPort is the standard Source engine query port.
const DefaultPort = 27015

const (
	typeInfoRequest   = 0x54
	typeInfoResponse  = 0x49
	typeChallenge     = 0x41
	infoRequestString = "Source Engine Query\x00"
)

// simplePacketHeader prefixes every non-split query packet.
var simplePacketHeader = []byte{0xFF, 0xFF, 0xFF, 0xFF}

// Info is the parsed A2S_INFO response.
type Info struct {
	Protocol    uint8
	Name        string
	Map         string
	Folder      string
	Game        string
	AppID       uint16
	Players     uint8
	MaxPlayers  uint8
	Bots        uint8
	ServerType  byte
	Environment byte
	Password    bool
	VAC         bool
}

// Query performs an A2S_INFO exchange with the server at address, retrying
// once with the server's challenge if it demands one. ctx bounds the dial;
// timeout bounds each read.
func Query(ctx context.Context, address string, timeout time.Duration, cw capture.Writer) (*Info, error) {
	t, err := query.Dial(ctx, core.ProtocolUDP, address, cw)
	if err != nil {
		return nil, err
	}
	defer t.Close()

	if err := t.Send(infoRequest(nil)); err != nil {
		return nil, err
	}
	resp, err := t.Recv(timeout)
	if err != nil {
		return nil, err
	}

	kind, body, err := splitResponse(resp)
	if err != nil {
		return nil, err
	}
	if kind == typeChallenge {
		if len(body) < 4 {
			return nil, fmt.Errorf("%w: challenge too short", core.ErrMalformedResponse)
		}
		if err := t.Send(infoRequest(body[:4])); err != nil {
			return nil, err
		}
		if resp, err = t.Recv(timeout); err != nil {
			return nil, err
		}
		if kind, body, err = splitResponse(resp); err != nil {
			return nil, err
		}
	}
	if kind != typeInfoResponse {
		return nil, fmt.Errorf("%w: unexpected packet type 0x%02x", core.ErrMalformedResponse, kind)
	}

	return parseInfo(body)
}

// infoRequest builds the A2S_INFO request, with the server challenge
// appended when one was demanded.
func infoRequest(challenge []byte) []byte {
	req := make([]byte, 0, len(simplePacketHeader)+1+len(infoRequestString)+len(challenge))
	req = append(req, simplePacketHeader...)
	req = append(req, typeInfoRequest)
	req = append(req, infoRequestString...)
	return append(req, challenge...)
}

// splitResponse strips the simple-packet header and returns the packet type
// byte and its body.
func splitResponse(data []byte) (byte, []byte, error) {
	if len(data) < len(simplePacketHeader)+1 {
		return 0, nil, fmt.Errorf("%w: response too short", core.ErrMalformedResponse)
	}
	for i, b := range simplePacketHeader {
		if data[i] != b {
			return 0, nil, fmt.Errorf("%w: bad packet header", core.ErrMalformedResponse)
		}
	}
	return data[4], data[5:], nil
}

func parseInfo(body []byte) (*Info, error) {
	c := cursor{data: body}
	info := &Info{
		Protocol: c.byte(),
		Name:     c.cstring(),
		Map:      c.cstring(),
		Folder:   c.cstring(),
		Game:     c.cstring(),
		AppID:    c.uint16(),
	}
	info.Players = c.byte()
	info.MaxPlayers = c.byte()
	info.Bots = c.byte()
	info.ServerType = c.byte()
	info.Environment = c.byte()
	info.Password = c.byte() != 0
	info.VAC = c.byte() != 0
	if c.failed {
		return nil, fmt.Errorf("%w: truncated info payload", core.ErrMalformedResponse)
	}
	return info, nil
}

// cursor walks a response payload, latching the first underflow instead of
// returning an error from every read.
type cursor struct {
	data   []byte
	off    int
	failed bool
}

func (c *cursor) byte() byte {
	if c.off+1 > len(c.data) {
		c.failed = true
		return 0
	}
	b := c.data[c.off]
	c.off++
	return b
}

func (c *cursor) uint16() uint16 {
	if c.off+2 > len(c.data) {
		c.failed = true
		return 0
	}
	v := binary.LittleEndian.Uint16(c.data[c.off : c.off+2])
	c.off += 2
	return v
}

func (c *cursor) cstring() string {
	for i := c.off; i < len(c.data); i++ {
		if c.data[i] == 0 {
			s := string(c.data[c.off:i])
			c.off = i + 1
			return s
		}
	}
	c.failed = true
	return ""
}
