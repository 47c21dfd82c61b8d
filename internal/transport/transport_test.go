package transport

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"syscall"
	"testing"

	"github.com/muurk/budsctl/internal/profile"
	"github.com/muurk/budsctl/internal/protocol"
)

func TestParseAddress(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"AA:BB:CC:DD:EE:FF", "AA:BB:CC:DD:EE:FF", false},
		{"aa-bb-cc-dd-ee-ff", "AA:BB:CC:DD:EE:FF", false},
		{" 001122334455 ", "00:11:22:33:44:55", false},
		{"AA:BB:CC", "", true},
		{"ZZ:BB:CC:DD:EE:FF", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseAddress(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseAddress(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if err == nil && got.String() != tt.want {
				t.Errorf("ParseAddress(%q) = %s, want %s", tt.in, got, tt.want)
			}
		})
	}
}

func TestAddressReversed(t *testing.T) {
	a, _ := ParseAddress("01:02:03:04:05:06")
	if got := a.reversed(); got != [6]byte{6, 5, 4, 3, 2, 1} {
		t.Errorf("reversed() = % x", got)
	}
	if a.IsZero() || !(Address{}).IsZero() {
		t.Error("IsZero() mismatch")
	}
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantKind  ErrorKind
		retryable bool
	}{
		{"refused", os.NewSyscallError("connect", syscall.ECONNREFUSED), ErrKindRefused, true},
		{"host down", os.NewSyscallError("connect", syscall.EHOSTDOWN), ErrKindHostDown, true},
		{"unreachable", os.NewSyscallError("connect", syscall.EHOSTUNREACH), ErrKindUnreachable, true},
		{"timeout", os.NewSyscallError("connect", syscall.ETIMEDOUT), ErrKindTimeout, true},
		{"deadline", os.ErrDeadlineExceeded, ErrKindTimeout, true},
		{"busy", syscall.EBUSY, ErrKindBusy, true},
		{"permission", os.NewSyscallError("socket", syscall.EACCES), ErrKindPermission, false},
		{"no bluetooth family", os.NewSyscallError("socket", syscall.EAFNOSUPPORT), ErrKindUnsupported, false},
		{"unsupported platform", ErrUnsupported, ErrKindUnsupported, false},
		{"eof", io.EOF, ErrKindClosed, true},
		{"reset", fmt.Errorf("read: %w", syscall.ECONNRESET), ErrKindClosed, true},
		{"unknown", errors.New("strange"), ErrKindUnknown, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ce := ClassifyError("connect", "AA:BB:CC:DD:EE:FF", tt.err)
			if ce.Kind != tt.wantKind {
				t.Errorf("Kind = %v, want %v", ce.Kind, tt.wantKind)
			}
			if ce.Retryable != tt.retryable || IsRetryable(ce) != tt.retryable {
				t.Errorf("Retryable = %v, want %v", ce.Retryable, tt.retryable)
			}
			if !errors.Is(ce, tt.err) {
				t.Error("ConnectionError does not unwrap to the cause")
			}
			if hint := GetTroubleshootingHint(ce); hint == "" {
				t.Error("empty troubleshooting hint")
			}
			if msg := GetShortErrorMessage(ce); msg == "" {
				t.Error("empty short message")
			}
		})
	}

	if ClassifyError("read", "", nil) != nil {
		t.Error("ClassifyError(nil) != nil")
	}
	first := ClassifyError("connect", "", syscall.ECONNREFUSED)
	if again := ClassifyError("read", "", fmt.Errorf("wrapped: %w", first)); again != first {
		t.Error("ClassifyError reclassified an existing ConnectionError")
	}
}

func TestHandshakeErrorHelpers(t *testing.T) {
	err := fmt.Errorf("session: %w", &HandshakeError{Reason: "no reply", Err: os.ErrDeadlineExceeded})
	if !IsHandshakeError(err) || !IsRetryable(err) {
		t.Error("wrapped HandshakeError not recognized")
	}
	if IsConnectionError(err) {
		t.Error("HandshakeError reported as ConnectionError")
	}
	if !strings.Contains(GetTroubleshootingHint(err), "handshake") {
		t.Errorf("hint = %q", GetTroubleshootingHint(err))
	}
	if IsRetryable(errors.New("other")) {
		t.Error("unclassified error reported retryable")
	}
}

func TestFramedCodec(t *testing.T) {
	c := NewCodec(profile.RFCOMM)
	pkt := protocol.NewPacket(protocol.Framed(0x01, 0x08), protocol.NewTLV(1, 80))
	frame, err := c.Encode(pkt)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	stream := append([]byte{0x00, 0x5A, 0x00, 0x00}, frame...)
	stream = append(stream, frame...)

	var (
		got  []protocol.Packet
		errs []error
	)
	for _, chunk := range [][]byte{stream[:6], stream[6:13], stream[13:]} {
		p, e := c.Decode(chunk)
		got = append(got, p...)
		errs = append(errs, e...)
	}

	if len(got) != 2 {
		t.Fatalf("decoded %d packets, want 2", len(got))
	}
	if got[1].String() != pkt.String() {
		t.Errorf("packet = %s, want %s", got[1], pkt)
	}
	if len(errs) == 0 {
		t.Error("garbage before the first frame produced no error")
	}
	if fc := c.(*FramedCodec); fc.Buffered() != 0 {
		t.Errorf("Buffered() = %d, want 0", fc.Buffered())
	}
}

func TestAccessoryCodec(t *testing.T) {
	c := NewCodec(profile.L2CAP)
	cmd := protocol.ControlCommand(protocol.CtrlListeningMode, 2)

	raw, err := c.Encode(cmd)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	want := []byte{0x04, 0x00, 0x04, 0x00, 0x09, 0x00, 0x0D, 0x02, 0x00, 0x00, 0x00}
	if !bytes.Equal(raw, want) {
		t.Errorf("Encode() = % x, want % x", raw, want)
	}

	pkts, errs := c.Decode(raw)
	if len(errs) != 0 || len(pkts) != 1 || pkts[0].ID != cmd.ID {
		t.Errorf("Decode() = %v, %v", pkts, errs)
	}

	_, errs = c.Decode([]byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06})
	if len(errs) != 1 || protocol.KindOf(errs[0]) != protocol.BadPreamble {
		t.Errorf("Decode(bad preamble) errs = %v", errs)
	}

	if _, err := c.Encode(protocol.NewPacket(protocol.Framed(1, 8))); !protocol.IsEncodingError(err) {
		t.Errorf("Encode(framed) error = %v, want EncodingError", err)
	}
}
