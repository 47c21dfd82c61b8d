//go:build integration

package transport

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/muurk/budsctl/internal/profile"
)

// Run with: BUDSCTL_TEST_ADDRESS=AA:BB:CC:DD:EE:FF go test -tags integration ./internal/transport
func TestBluetoothDialer_RealDevice(t *testing.T) {
	raw := os.Getenv("BUDSCTL_TEST_ADDRESS")
	if raw == "" {
		t.Skip("BUDSCTL_TEST_ADDRESS not set")
	}
	addr, err := ParseAddress(raw)
	if err != nil {
		t.Fatalf("ParseAddress() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	link, err := NewBluetoothDialer().Dial(ctx, addr, profile.Transport{Kind: profile.RFCOMM, Channel: profile.ChannelSecondary})
	if err != nil {
		t.Fatalf("Dial() error = %v\n%s", err, GetTroubleshootingHint(err))
	}
	defer link.Close()

	if err := link.SetReadDeadline(time.Now().Add(100 * time.Millisecond)); err != nil {
		t.Errorf("SetReadDeadline() error = %v, want a pollable socket", err)
	}
}
