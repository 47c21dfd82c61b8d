package connection

import (
	"context"
	"errors"
	"fmt"

	"github.com/muurk/budsctl/internal/bluez"
	"github.com/muurk/budsctl/internal/logging"
	"github.com/muurk/budsctl/internal/profile"
	"github.com/muurk/budsctl/internal/transport"
	"go.uber.org/zap"
)

// ErrNoTarget is returned when no paired device matches a known profile.
var ErrNoTarget = errors.New("connection: no supported paired device")

// DeviceLister lists paired Bluetooth devices.
type DeviceLister interface {
	PairedDevices(ctx context.Context) ([]bluez.Device, error)
}

// Target is the device a manager connects to.
type Target struct {
	Address transport.Address
	Name    string
}

// ResolveTarget picks the first paired device whose name is known to reg.
// A device named preferred wins over the others when it is paired.
func ResolveTarget(ctx context.Context, lister DeviceLister, reg *profile.Registry, preferred string) (Target, error) {
	devices, err := lister.PairedDevices(ctx)
	if err != nil {
		return Target{}, fmt.Errorf("list paired devices: %w", err)
	}

	var best *bluez.Device
	for i := range devices {
		dev := &devices[i]
		if !reg.Known(dev.Name) {
			logging.Debug("Skipping unsupported device", zap.String("name", dev.Name), zap.String("address", dev.Address))
			continue
		}
		if preferred != "" && dev.Name == preferred {
			best = dev
			break
		}
		if best == nil {
			best = dev
		}
	}
	if best == nil {
		return Target{}, ErrNoTarget
	}

	addr, err := transport.ParseAddress(best.Address)
	if err != nil {
		return Target{}, fmt.Errorf("device %q: %w", best.Name, err)
	}
	logging.Info("Selected device", zap.String("name", best.Name), zap.String("address", addr.String()))
	return Target{Address: addr, Name: best.Name}, nil
}
