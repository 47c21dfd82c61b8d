package bluez

import (
	"testing"

	"github.com/godbus/dbus/v5"
)

func TestDevicePath(t *testing.T) {
	tests := []struct {
		adapter string
		address string
		want    dbus.ObjectPath
	}{
		{"", "aa:bb:cc:dd:ee:ff", "/org/bluez/hci0/dev_AA_BB_CC_DD_EE_FF"},
		{"hci1", "00-11-22-33-44-55", "/org/bluez/hci1/dev_00_11_22_33_44_55"},
	}
	for _, tt := range tests {
		if got := DevicePath(tt.adapter, tt.address); got != tt.want {
			t.Errorf("DevicePath(%q, %q) = %s, want %s", tt.adapter, tt.address, got, tt.want)
		}
		if got := macFromPath(DevicePath(tt.adapter, tt.address)); len(got) != 17 {
			t.Errorf("macFromPath round trip = %q", got)
		}
	}
	if got := macFromPath("/org/bluez/hci0"); got != "" {
		t.Errorf("macFromPath(adapter) = %q, want empty", got)
	}
}

func TestPairedFromObjects(t *testing.T) {
	props := func(kv ...interface{}) map[string]dbus.Variant {
		m := make(map[string]dbus.Variant)
		for i := 0; i < len(kv); i += 2 {
			m[kv[i].(string)] = dbus.MakeVariant(kv[i+1])
		}
		return m
	}
	objects := map[dbus.ObjectPath]map[string]map[string]dbus.Variant{
		"/org/bluez/hci0": {
			"org.bluez.Adapter1": props("Address", "00:00:00:00:00:01"),
		},
		"/org/bluez/hci0/dev_AA_AA_AA_AA_AA_AA": {
			deviceIface: props("Address", "AA:AA:AA:AA:AA:AA", "Name", "HUAWEI FreeBuds Pro 3", "Paired", true, "Connected", false),
		},
		"/org/bluez/hci0/dev_BB_BB_BB_BB_BB_BB": {
			deviceIface: props("Alias", "AirPods Pro", "Paired", true, "Connected", true),
		},
		"/org/bluez/hci0/dev_CC_CC_CC_CC_CC_CC": {
			deviceIface: props("Address", "CC:CC:CC:CC:CC:CC", "Name", "Keyboard", "Paired", false),
		},
	}

	got := pairedFromObjects(objects)
	if len(got) != 2 {
		t.Fatalf("pairedFromObjects() = %d devices, want 2", len(got))
	}
	if got[0].Name != "AirPods Pro" || !got[0].Connected {
		t.Errorf("first device = %+v, want connected AirPods Pro", got[0])
	}
	if got[0].Address != "BB:BB:BB:BB:BB:BB" {
		t.Errorf("address from path = %q", got[0].Address)
	}
	if got[1].Name != "HUAWEI FreeBuds Pro 3" {
		t.Errorf("second device = %+v", got[1])
	}
}
