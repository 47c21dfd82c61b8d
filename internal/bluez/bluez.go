package bluez

import (
	"errors"
	"sort"
	"strings"

	"github.com/godbus/dbus/v5"
)

const (
	serviceName      = "org.bluez"
	deviceIface      = "org.bluez.Device1"
	objManagerIface  = "org.freedesktop.DBus.ObjectManager"
	defaultAdapter   = "hci0"
	devicePathPrefix = "/dev_"
)

// ErrUnsupported is returned on platforms without BlueZ.
var ErrUnsupported = errors.New("bluez: not supported on this platform")

// ErrNotFound is returned when BlueZ does not know the device.
var ErrNotFound = errors.New("bluez: device not found")

// Device is a paired Bluetooth device.
type Device struct {
	Path      dbus.ObjectPath
	Address   string
	Name      string
	Connected bool
}

// DevicePath returns the BlueZ object path of a device on adapter.
func DevicePath(adapter, address string) dbus.ObjectPath {
	if adapter == "" {
		adapter = defaultAdapter
	}
	mac := strings.ToUpper(strings.NewReplacer(":", "_", "-", "_").Replace(address))
	return dbus.ObjectPath("/org/bluez/" + adapter + devicePathPrefix + mac)
}

// macFromPath extracts "AA:BB:CC:DD:EE:FF" from a device object path.
func macFromPath(p dbus.ObjectPath) string {
	s := string(p)
	idx := strings.LastIndex(s, devicePathPrefix)
	if idx < 0 {
		return ""
	}
	return strings.ReplaceAll(s[idx+len(devicePathPrefix):], "_", ":")
}

// pairedFromObjects filters a GetManagedObjects reply down to paired
// devices, sorted connected first, then by name.
func pairedFromObjects(objects map[dbus.ObjectPath]map[string]map[string]dbus.Variant) []Device {
	var out []Device
	for path, ifaces := range objects {
		props, ok := ifaces[deviceIface]
		if !ok {
			continue
		}
		if paired, _ := variant[bool](props, "Paired"); !paired {
			continue
		}

		dev := Device{Path: path}
		dev.Address, _ = variant[string](props, "Address")
		if dev.Address == "" {
			dev.Address = macFromPath(path)
		}
		dev.Name, _ = variant[string](props, "Name")
		if dev.Name == "" {
			dev.Name, _ = variant[string](props, "Alias")
		}
		dev.Connected, _ = variant[bool](props, "Connected")
		out = append(out, dev)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Connected != out[j].Connected {
			return out[i].Connected
		}
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].Address < out[j].Address
	})
	return out
}

func variant[T any](props map[string]dbus.Variant, key string) (T, bool) {
	var zero T
	v, ok := props[key]
	if !ok {
		return zero, false
	}
	t, ok := v.Value().(T)
	return t, ok
}
