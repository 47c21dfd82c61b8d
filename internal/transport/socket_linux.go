//go:build linux

package transport

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/muurk/budsctl/internal/logging"
	"github.com/muurk/budsctl/internal/profile"
	"go.uber.org/zap"
	"golang.org/x/sys/unix"
)

func dialSocket(ctx context.Context, addr Address, t profile.Transport, timeout time.Duration) (Link, error) {
	var (
		sotype, proto int
		sa            unix.Sockaddr
	)
	switch t.Kind {
	case profile.RFCOMM:
		sotype, proto = unix.SOCK_STREAM, unix.BTPROTO_RFCOMM
		sa = &unix.SockaddrRFCOMM{Addr: addr.reversed(), Channel: t.Channel}
	case profile.L2CAP:
		sotype, proto = unix.SOCK_SEQPACKET, unix.BTPROTO_L2CAP
		sa = &unix.SockaddrL2{Addr: addr.reversed(), PSM: t.PSM}
	default:
		return nil, fmt.Errorf("unknown transport %v", t.Kind)
	}

	fd, err := unix.Socket(unix.AF_BLUETOOTH, sotype|unix.SOCK_CLOEXEC, proto)
	if err != nil {
		return nil, os.NewSyscallError("socket", err)
	}

	// The kernel bounds a blocking Bluetooth connect by SO_SNDTIMEO.
	tv := unix.NsecToTimeval(timeout.Nanoseconds())
	if err := unix.SetsockoptTimeval(fd, unix.SOL_SOCKET, unix.SO_SNDTIMEO, &tv); err != nil {
		unix.Close(fd)
		return nil, os.NewSyscallError("setsockopt", err)
	}

	logging.Debug("Connecting socket",
		zap.String("address", addr.String()),
		zap.String("transport", t.String()),
		zap.Duration("timeout", timeout),
	)

	done := make(chan error, 1)
	go func() {
		done <- unix.Connect(fd, sa)
	}()

	select {
	case err = <-done:
	case <-ctx.Done():
		// Shutdown aborts the pending connect; wait for it before closing.
		unix.Shutdown(fd, unix.SHUT_RDWR)
		<-done
		unix.Close(fd)
		return nil, ctx.Err()
	}
	if err != nil {
		unix.Close(fd)
		return nil, os.NewSyscallError("connect", err)
	}

	// A non-blocking descriptor lets os.File use the runtime poller, which
	// gives us read deadlines and lets Close unblock a pending Read.
	if err := unix.SetNonblock(fd, true); err != nil {
		unix.Close(fd)
		return nil, os.NewSyscallError("setnonblock", err)
	}
	return os.NewFile(uintptr(fd), fmt.Sprintf("bt:%s:%s", addr, t)), nil
}
