package transport

import (
	"context"
	"time"

	"github.com/muurk/budsctl/internal/logging"
	"github.com/muurk/budsctl/internal/protocol"
	"go.uber.org/zap"
)

// HandshakeTimeout bounds the wait for the handshake reply.
const HandshakeTimeout = 3 * time.Second

// Handshake opens an accessory session: it sends the handshake, waits for
// one reply, then enables feature flags and subscribes to notifications.
// Cancelling ctx closes nothing; the caller owns the link.
func Handshake(ctx context.Context, link Link, timeout time.Duration) error {
	if err := writeStep(link, "send handshake", protocol.HandshakePacket()); err != nil {
		return err
	}

	deadline := time.Now().Add(timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := link.SetReadDeadline(deadline); err != nil {
		return &HandshakeError{Reason: "set deadline", Err: err}
	}

	// Unblock the read if ctx ends first.
	stop := context.AfterFunc(ctx, func() {
		link.SetReadDeadline(time.Now())
	})
	defer stop()

	buf := make([]byte, ReadBufferSize)
	n, err := link.Read(buf)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &HandshakeError{Reason: "no reply", Err: err}
	}
	if err := link.SetReadDeadline(time.Time{}); err != nil {
		return &HandshakeError{Reason: "clear deadline", Err: err}
	}
	logging.LogRawBytes("Handshake reply", buf[:n])

	if err := writeStep(link, "send feature flags", protocol.FeatureFlagsPacket()); err != nil {
		return err
	}
	if err := writeStep(link, "request notifications", protocol.NotificationRequestPacket()); err != nil {
		return err
	}

	logging.Debug("Accessory session opened", zap.Int("reply_bytes", n))
	return nil
}

func writeStep(link Link, reason string, data []byte) error {
	if _, err := link.Write(data); err != nil {
		return &HandshakeError{Reason: reason, Err: err}
	}
	return nil
}
