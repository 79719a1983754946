package pcapng

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/gopacket/pcapgo"
)

func TestWriteHeaderLayout(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	if err := w.WriteHeader(LinkTypeEthernet, 0xFFFF); err != nil {
		t.Fatalf("WriteHeader failed: %v", err)
	}

	data := buf.Bytes()
	if len(data) != 48 {
		t.Fatalf("Expected 48 header bytes, got %d", len(data))
	}

	// Section header block
	if got := binary.LittleEndian.Uint32(data[0:4]); got != 0x0A0D0D0A {
		t.Errorf("Expected SHB type 0x0A0D0D0A, got 0x%08x", got)
	}
	if got := binary.LittleEndian.Uint32(data[4:8]); got != 28 {
		t.Errorf("Expected SHB length 28, got %d", got)
	}
	if got := binary.LittleEndian.Uint32(data[8:12]); got != 0x1A2B3C4D {
		t.Errorf("Expected byte-order magic, got 0x%08x", got)
	}

	// Interface description block
	idb := data[28:]
	if got := binary.LittleEndian.Uint32(idb[0:4]); got != 1 {
		t.Errorf("Expected IDB type 1, got %d", got)
	}
	if got := binary.LittleEndian.Uint16(idb[8:10]); got != uint16(LinkTypeEthernet) {
		t.Errorf("Expected link type %d, got %d", LinkTypeEthernet, got)
	}
	if got := binary.LittleEndian.Uint32(idb[12:16]); got != 0xFFFF {
		t.Errorf("Expected snap length 65535, got %d", got)
	}
}

func TestWriteHeaderTwice(t *testing.T) {
	w := NewWriter(io.Discard)
	if err := w.WriteHeader(LinkTypeEthernet, 0xFFFF); err != nil {
		t.Fatalf("WriteHeader failed: %v", err)
	}
	if err := w.WriteHeader(LinkTypeEthernet, 0xFFFF); !errors.Is(err, ErrHeaderWritten) {
		t.Errorf("Expected ErrHeaderWritten, got %v", err)
	}
}

func TestWritePacketBeforeHeader(t *testing.T) {
	w := NewWriter(io.Discard)
	if err := w.WritePacket(0, 0, nil, ""); !errors.Is(err, ErrHeaderNotWritten) {
		t.Errorf("Expected ErrHeaderNotWritten, got %v", err)
	}
}

func TestReadBackWithGopacket(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	if err := w.WriteHeader(LinkTypeEthernet, 0xFFFF); err != nil {
		t.Fatalf("WriteHeader failed: %v", err)
	}

	first := bytes.Repeat([]byte{0xAB}, 60)
	second := []byte{0x01, 0x02} // forces block padding

	if err := w.WritePacket(1500*time.Microsecond, 60, first, "synthesized segment"); err != nil {
		t.Fatalf("WritePacket failed: %v", err)
	}
	if err := w.WritePacket(2*time.Millisecond, 2, second, ""); err != nil {
		t.Fatalf("WritePacket failed: %v", err)
	}

	r, err := pcapgo.NewNgReader(bytes.NewReader(buf.Bytes()), pcapgo.DefaultNgReaderOptions)
	if err != nil {
		t.Fatalf("NewNgReader failed: %v", err)
	}

	data, ci, err := r.ReadPacketData()
	if err != nil {
		t.Fatalf("ReadPacketData failed: %v", err)
	}
	if !bytes.Equal(data, first) {
		t.Errorf("First packet data mismatch")
	}
	if ci.CaptureLength != 60 || ci.Length != 60 {
		t.Errorf("Expected lengths 60/60, got %d/%d", ci.CaptureLength, ci.Length)
	}
	if got := ci.Timestamp.UnixMicro(); got != 1500 {
		t.Errorf("Expected timestamp 1500us, got %d", got)
	}

	data, ci, err = r.ReadPacketData()
	if err != nil {
		t.Fatalf("ReadPacketData failed: %v", err)
	}
	if !bytes.Equal(data, second) {
		t.Errorf("Second packet data mismatch")
	}
	if got := ci.Timestamp.UnixMicro(); got != 2000 {
		t.Errorf("Expected timestamp 2000us, got %d", got)
	}

	if _, _, err := r.ReadPacketData(); err != io.EOF {
		t.Errorf("Expected EOF, got %v", err)
	}

	// The comment option must survive in the stream.
	if !bytes.Contains(buf.Bytes(), []byte("synthesized segment")) {
		t.Errorf("Comment option missing from stream")
	}
}
