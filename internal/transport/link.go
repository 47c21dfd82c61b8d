package transport

import (
	"context"
	"io"
	"time"

	"github.com/muurk/budsctl/internal/profile"
)

// Connect timeouts applied through socket options.
const (
	RFCOMMConnectTimeout = 5 * time.Second
	L2CAPConnectTimeout  = 10 * time.Second
)

// ReadBufferSize fits the largest frame plus slack. Accessory datagrams
// are much smaller.
const ReadBufferSize = 4096

// Link is a connected Bluetooth socket.
type Link interface {
	io.ReadWriteCloser
	SetReadDeadline(t time.Time) error
}

// Dialer opens links. BluetoothDialer is the real implementation.
type Dialer interface {
	Dial(ctx context.Context, addr Address, t profile.Transport) (Link, error)
}

// DialerFunc adapts a function to the Dialer interface.
type DialerFunc func(ctx context.Context, addr Address, t profile.Transport) (Link, error)

func (f DialerFunc) Dial(ctx context.Context, addr Address, t profile.Transport) (Link, error) {
	return f(ctx, addr, t)
}

// BluetoothDialer opens AF_BLUETOOTH sockets.
type BluetoothDialer struct {
	RFCOMMTimeout time.Duration
	L2CAPTimeout  time.Duration
}

// NewBluetoothDialer returns a dialer with the default timeouts.
func NewBluetoothDialer() *BluetoothDialer {
	return &BluetoothDialer{
		RFCOMMTimeout: RFCOMMConnectTimeout,
		L2CAPTimeout:  L2CAPConnectTimeout,
	}
}

// Dial connects to addr and classifies any failure as a ConnectionError.
func (d *BluetoothDialer) Dial(ctx context.Context, addr Address, t profile.Transport) (Link, error) {
	timeout := d.RFCOMMTimeout
	if t.Kind == profile.L2CAP {
		timeout = d.L2CAPTimeout
	}
	link, err := dialSocket(ctx, addr, t, timeout)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, ClassifyError("connect", addr.String(), err)
	}
	return link, nil
}
