package transport

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"testing"
	"time"

	"github.com/muurk/budsctl/internal/protocol"
)

// readDatagram reads one write from the other end of a net.Pipe.
func readDatagram(t *testing.T, c net.Conn) []byte {
	t.Helper()
	buf := make([]byte, 256)
	n, err := c.Read(buf)
	if err != nil {
		t.Errorf("device read error = %v", err)
		return nil
	}
	return buf[:n]
}

func TestHandshake(t *testing.T) {
	host, dev := net.Pipe()
	defer host.Close()
	defer dev.Close()

	got := make(chan [][]byte, 1)
	go func() {
		var seen [][]byte
		seen = append(seen, readDatagram(t, dev))
		dev.Write([]byte{0x01, 0x00, 0x04, 0x00, 0x00})
		seen = append(seen, readDatagram(t, dev))
		seen = append(seen, readDatagram(t, dev))
		got <- seen
	}()

	if err := Handshake(context.Background(), host, time.Second); err != nil {
		t.Fatalf("Handshake() error = %v", err)
	}

	seen := <-got
	want := [][]byte{
		protocol.HandshakePacket(),
		protocol.FeatureFlagsPacket(),
		protocol.NotificationRequestPacket(),
	}
	for i := range want {
		if !bytes.Equal(seen[i], want[i]) {
			t.Errorf("datagram %d = % x, want % x", i, seen[i], want[i])
		}
	}
}

func TestHandshake_NoReply(t *testing.T) {
	host, dev := net.Pipe()
	defer host.Close()
	defer dev.Close()

	go io.Copy(io.Discard, dev)

	start := time.Now()
	err := Handshake(context.Background(), host, 50*time.Millisecond)
	if !IsHandshakeError(err) {
		t.Fatalf("Handshake() error = %v, want HandshakeError", err)
	}
	var he *HandshakeError
	errors.As(err, &he)
	if he.Reason != "no reply" {
		t.Errorf("Reason = %q, want no reply", he.Reason)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("Handshake() took %v with a 50ms timeout", elapsed)
	}
}

func TestHandshake_Cancelled(t *testing.T) {
	host, dev := net.Pipe()
	defer host.Close()
	defer dev.Close()

	go io.Copy(io.Discard, dev)

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)

	if err := Handshake(ctx, host, 10*time.Second); !errors.Is(err, context.Canceled) {
		t.Errorf("Handshake() error = %v, want context.Canceled", err)
	}
}

func TestHandshake_WriteFails(t *testing.T) {
	host, dev := net.Pipe()
	dev.Close()
	defer host.Close()

	err := Handshake(context.Background(), host, time.Second)
	var he *HandshakeError
	if !errors.As(err, &he) || he.Reason != "send handshake" {
		t.Errorf("Handshake() error = %v, want send handshake failure", err)
	}
}
