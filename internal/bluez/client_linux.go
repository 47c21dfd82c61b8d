//go:build linux

package bluez

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/muurk/budsctl/internal/logging"
	"go.uber.org/zap"
)

// ResetDelay separates Disconnect and Connect in ResetLink.
const ResetDelay = time.Second

// Client is a connection to BlueZ on the system bus.
type Client struct {
	conn    *dbus.Conn
	adapter string
}

// Dial opens a private system bus connection.
func Dial() (*Client, error) {
	conn, err := dbus.ConnectSystemBus()
	if err != nil {
		return nil, fmt.Errorf("bluez: connect system bus: %w", err)
	}
	return &Client{conn: conn, adapter: defaultAdapter}, nil
}

func (c *Client) Close() error {
	return c.conn.Close()
}

// PairedDevices lists the devices BlueZ has paired.
func (c *Client) PairedDevices(ctx context.Context) ([]Device, error) {
	var objects map[dbus.ObjectPath]map[string]map[string]dbus.Variant
	call := c.conn.Object(serviceName, "/").CallWithContext(ctx, objManagerIface+".GetManagedObjects", 0)
	if call.Err != nil {
		return nil, fmt.Errorf("bluez: GetManagedObjects: %w", call.Err)
	}
	if err := call.Store(&objects); err != nil {
		return nil, fmt.Errorf("bluez: decode managed objects: %w", err)
	}
	return pairedFromObjects(objects), nil
}

// ResetLink disconnects the device, waits ResetDelay, and connects it
// again. Disconnect failures are logged and do not stop the reconnect.
func (c *Client) ResetLink(ctx context.Context, address string) error {
	obj := c.conn.Object(serviceName, DevicePath(c.adapter, address))

	logging.Info("Resetting Bluetooth link", zap.String("address", address))
	if call := obj.CallWithContext(ctx, deviceIface+".Disconnect", 0); call.Err != nil {
		if isUnknownObject(call.Err) {
			return fmt.Errorf("%w: %s", ErrNotFound, address)
		}
		logging.Warn("Disconnect failed", zap.String("address", address), zap.Error(call.Err))
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(ResetDelay):
	}

	if call := obj.CallWithContext(ctx, deviceIface+".Connect", 0); call.Err != nil {
		return fmt.Errorf("bluez: connect %s: %w", address, call.Err)
	}
	return nil
}

func isUnknownObject(err error) bool {
	var name string
	var value dbus.Error
	var ptr *dbus.Error
	switch {
	case errors.As(err, &value):
		name = value.Name
	case errors.As(err, &ptr):
		name = ptr.Name
	}
	return name == "org.freedesktop.DBus.Error.UnknownObject" ||
		name == "org.freedesktop.DBus.Error.UnknownMethod"
}
