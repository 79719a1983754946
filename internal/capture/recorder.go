package capture

import (
	"io"
	"sync"
	"time"

	"github.com/squadnox/gamedig/internal/capture/encode"
	"github.com/squadnox/gamedig/internal/core"
	"github.com/squadnox/gamedig/internal/pcapng"
)

// Sequence number bases after the synthesized handshake. Fixed values keep
// captures reproducible across runs.
const (
	sendSeqBase uint32 = 500
	recvSeqBase uint32 = 1000
)

// snapLen is the snap length declared in the capture header.
const snapLen = 0xFFFF

const (
	commentHandshake = "Generated TCP handshake"
	commentAck       = "Generated TCP ack"
)

// Recorder synthesizes layered packets from socket events and appends them to
// a pcapng stream. It tracks one logical session's TCP sequence state at a
// time; the mutex makes it shareable between goroutines, with events recorded
// in lock-acquisition order.
type Recorder struct {
	mu  sync.Mutex
	out *pcapng.Writer

	start         time.Time
	sendSeq       uint32
	recvSeq       uint32
	handshakeSent bool
	streamID      uint32
}

// NewRecorder writes the capture header blocks to out and returns a recorder
// whose timestamps are measured from this moment.
func NewRecorder(out io.Writer) (*Recorder, error) {
	w := pcapng.NewWriter(out)
	if err := w.WriteHeader(pcapng.LinkTypeEthernet, snapLen); err != nil {
		return nil, err
	}
	return &Recorder{out: w, start: time.Now()}, nil
}

// Write records one send or receive event.
//
// TCP events emit a PSH|ACK data segment followed by a synthesized peer
// acknowledgement, preceded by a synthesized handshake if the session has not
// sent one yet. UDP events emit a single datagram and touch no session state.
func (r *Recorder) Write(ev core.PacketEvent, payload []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch ev.Protocol {
	case core.ProtocolTCP:
		return r.writeTCP(ev, payload)
	case core.ProtocolUDP:
		return r.writeUDP(ev, payload)
	}
	return core.ErrUnsupportedProto
}

// NewConnect marks the start of a new logical connection. The stream counter
// always advances; for TCP the handshake is synthesized if this session has
// not produced one yet, so repeated calls within a session have no further
// effect.
func (r *Recorder) NewConnect(ev core.PacketEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.streamID++
	if ev.Protocol == core.ProtocolTCP && !r.handshakeSent {
		return r.writeTCPHandshake(ev)
	}
	return nil
}

func (r *Recorder) writeTCP(ev core.PacketEvent, payload []byte) error {
	if !r.handshakeSent {
		if err := r.writeTCPHandshake(ev); err != nil {
			return err
		}
	}

	srcPort, dstPort := transportPorts(ev)
	fields := encode.TCPFields{
		SrcPort: srcPort,
		DstPort: dstPort,
		Flags:   encode.FlagPSH | encode.FlagACK,
	}
	switch ev.Direction {
	case core.DirectionSend:
		fields.Seq, fields.Ack = r.sendSeq, r.recvSeq
		r.sendSeq += uint32(len(payload))
	case core.DirectionReceive:
		fields.Seq, fields.Ack = r.recvSeq, r.sendSeq
		r.recvSeq += uint32(len(payload))
	}

	seg := make([]byte, encode.TCPHeaderLen+len(payload))
	n, err := encode.TCP(seg, fields, payload)
	if err != nil {
		return err
	}
	if err := r.writeLayered(ev, encode.ProtoTCP, seg[:n], ""); err != nil {
		return err
	}

	// Synthesize the peer's acknowledgement in the opposite direction.
	ackEv := ev
	ackFields := encode.TCPFields{
		SrcPort: dstPort,
		DstPort: srcPort,
		Flags:   encode.FlagACK,
	}
	switch ev.Direction {
	case core.DirectionSend:
		ackEv.Direction = core.DirectionReceive
		ackFields.Seq, ackFields.Ack = r.recvSeq, r.sendSeq
	case core.DirectionReceive:
		ackEv.Direction = core.DirectionSend
		ackFields.Seq, ackFields.Ack = r.sendSeq, r.recvSeq
	}

	ack := make([]byte, encode.TCPHeaderLen)
	n, err = encode.TCP(ack, ackFields, nil)
	if err != nil {
		return err
	}
	return r.writeLayered(ackEv, encode.ProtoTCP, ack[:n], commentAck)
}

func (r *Recorder) writeUDP(ev core.PacketEvent, payload []byte) error {
	srcPort, dstPort := transportPorts(ev)
	seg := make([]byte, encode.UDPHeaderLen+len(payload))
	n, err := encode.UDP(seg, srcPort, dstPort, payload)
	if err != nil {
		return err
	}
	return r.writeLayered(ev, encode.ProtoUDP, seg[:n], "")
}

// writeTCPHandshake emits the SYN, SYN+ACK, ACK exchange that opens the
// session and resets the sequence counters to their post-handshake bases.
func (r *Recorder) writeTCPHandshake(ev core.PacketEvent) error {
	localPort, remotePort := ev.Local.Port(), ev.Remote.Port()
	buf := make([]byte, encode.TCPHeaderLen)

	// SYN
	syn := ev
	syn.Direction = core.DirectionSend
	r.sendSeq = sendSeqBase
	n, err := encode.TCP(buf, encode.TCPFields{
		SrcPort: localPort,
		DstPort: remotePort,
		Seq:     r.sendSeq,
		Flags:   encode.FlagSYN,
	}, nil)
	if err != nil {
		return err
	}
	if err := r.writeLayered(syn, encode.ProtoTCP, buf[:n], commentHandshake); err != nil {
		return err
	}

	// SYN+ACK
	synAck := ev
	synAck.Direction = core.DirectionReceive
	r.sendSeq++
	r.recvSeq = recvSeqBase
	n, err = encode.TCP(buf, encode.TCPFields{
		SrcPort: remotePort,
		DstPort: localPort,
		Seq:     r.recvSeq,
		Ack:     r.sendSeq,
		Flags:   encode.FlagSYN | encode.FlagACK,
	}, nil)
	if err != nil {
		return err
	}
	if err := r.writeLayered(synAck, encode.ProtoTCP, buf[:n], commentHandshake); err != nil {
		return err
	}

	// ACK
	ack := ev
	ack.Direction = core.DirectionSend
	r.recvSeq++
	n, err = encode.TCP(buf, encode.TCPFields{
		SrcPort: localPort,
		DstPort: remotePort,
		Seq:     r.sendSeq,
		Ack:     r.recvSeq,
		Flags:   encode.FlagACK,
	}, nil)
	if err != nil {
		return err
	}
	if err := r.writeLayered(ack, encode.ProtoTCP, buf[:n], commentHandshake); err != nil {
		return err
	}

	r.handshakeSent = true
	return nil
}

// writeLayered wraps a transport segment in IP and Ethernet and appends the
// frame as one capture record timestamped against the recorder start.
func (r *Recorder) writeLayered(ev core.PacketEvent, proto uint8, segment []byte, comment string) error {
	src := ev.Local.Addr().Unmap()
	dst := ev.Remote.Addr().Unmap()
	if ev.Direction == core.DirectionReceive {
		src, dst = dst, src
	}

	var (
		ipBuf     []byte
		n         int
		err       error
		etherType uint16
	)
	switch {
	case src.Is4() && dst.Is4():
		ipBuf = make([]byte, encode.IPv4HeaderLen+len(segment))
		n, err = encode.IPv4(ipBuf, src, dst, proto, r.streamID, segment)
		etherType = encode.EtherTypeIPv4
	case src.Is6() && dst.Is6():
		ipBuf = make([]byte, encode.IPv6HeaderLen+len(segment))
		n, err = encode.IPv6(ipBuf, src, dst, proto, r.streamID, segment)
		etherType = encode.EtherTypeIPv6
	default:
		return core.ErrMixedAddressFamily
	}
	if err != nil {
		return err
	}

	frame := make([]byte, encode.EthernetHeaderLen+n)
	fn, err := encode.Ethernet(frame, etherType, ipBuf[:n])
	if err != nil {
		return err
	}

	return r.out.WritePacket(time.Since(r.start), uint32(fn), frame[:fn], comment)
}

// transportPorts returns the (source, destination) ports for ev: sends
// originate from the local endpoint, receives from the remote one.
func transportPorts(ev core.PacketEvent) (uint16, uint16) {
	if ev.Direction == core.DirectionSend {
		return ev.Local.Port(), ev.Remote.Port()
	}
	return ev.Remote.Port(), ev.Local.Port()
}
