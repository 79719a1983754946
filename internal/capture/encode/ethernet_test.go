package encode

import (
	"bytes"
	"errors"
	"testing"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"

	"github.com/squadnox/gamedig/internal/core"
)

func TestEncodeEthernet(t *testing.T) {
	payload := []byte{0x45, 0x00, 0x00, 0x1c}
	buf := make([]byte, EthernetHeaderLen+len(payload))

	n, err := Ethernet(buf, EtherTypeIPv4, payload)
	if err != nil {
		t.Fatalf("Ethernet failed: %v", err)
	}
	if n != EthernetHeaderLen+len(payload) {
		t.Fatalf("Expected length %d, got %d", EthernetHeaderLen+len(payload), n)
	}

	var eth layers.Ethernet
	if err := eth.DecodeFromBytes(buf[:n], gopacket.NilDecodeFeedback); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if eth.EthernetType != layers.EthernetTypeIPv4 {
		t.Errorf("Expected EtherType IPv4, got %v", eth.EthernetType)
	}
	// Synthesized frames carry zero MACs.
	// SrcMAC/DstMAC alias buf; copy before appending so we don't clobber it.
	for _, b := range append(append([]byte(nil), eth.SrcMAC...), eth.DstMAC...) {
		if b != 0 {
			t.Fatalf("Expected zero MACs, got src=%v dst=%v", eth.SrcMAC, eth.DstMAC)
		}
	}
	if !bytes.Equal(eth.Payload, payload) {
		t.Errorf("Expected payload %x, got %x", payload, eth.Payload)
	}
}

func TestEncodeEthernetShortBuffer(t *testing.T) {
	buf := make([]byte, EthernetHeaderLen-1)
	if _, err := Ethernet(buf, EtherTypeIPv4, nil); !errors.Is(err, core.ErrShortBuffer) {
		t.Errorf("Expected ErrShortBuffer, got %v", err)
	}

	buf = make([]byte, EthernetHeaderLen+1)
	if _, err := Ethernet(buf, EtherTypeIPv6, []byte{1, 2}); !errors.Is(err, core.ErrShortBuffer) {
		t.Errorf("Expected ErrShortBuffer for payload overflow, got %v", err)
	}
}
