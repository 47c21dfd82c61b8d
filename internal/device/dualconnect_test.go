package device

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/muurk/budsctl/internal/protocol"
	"github.com/muurk/budsctl/internal/store"
)

func dualConnectEntryPacket(count, index byte, mac []byte, name string, status []byte, preferred, auto byte) protocol.Packet {
	return protocol.WriteRequest(CmdDualConnectEnumerate,
		protocol.NewTLV(2, count),
		protocol.NewTLV(3, index),
		protocol.NewTLV(4, mac...),
		protocol.NewTLV(5, append([]byte(name), 0)...),
		protocol.NewTLV(6, status...),
		protocol.NewTLV(7, preferred),
		protocol.NewTLV(8, auto),
	)
}

func TestDualConnect_Enumeration(t *testing.T) {
	st := store.New()
	h := NewDualConnect()
	h.Init()

	phone := []byte{0x00, 0x11, 0x22, 0x33, 0x44, 0x55}
	laptop := []byte{0xAA, 0xBB, 0xCC, 0xDD, 0xEE, 0xFF}

	mustHandle(t, h, st, dualConnectEntryPacket(2, 0, phone, "Phone", []byte{1, 1}, 1, 1))
	if _, ok := st.Get("dual_connect", "devices"); ok {
		t.Fatal("devices published before every entry arrived")
	}
	mustHandle(t, h, st, dualConnectEntryPacket(2, 1, laptop, "Laptop", []byte{0, 0}, 0, 0))

	raw, ok := st.Get("dual_connect", "devices")
	if !ok {
		t.Fatal("devices not published")
	}
	var devices map[string]PairedDevice
	if err := json.Unmarshal([]byte(raw), &devices); err != nil {
		t.Fatalf("devices is not JSON: %v", err)
	}
	want := map[string]PairedDevice{
		"001122334455": {Name: "Phone", Connected: true, Playing: true, AutoConnect: true},
		"aabbccddeeff": {Name: "Laptop"},
	}
	if len(devices) != len(want) {
		t.Fatalf("devices = %v, want %v", devices, want)
	}
	for mac, w := range want {
		if got := devices[mac]; got != w {
			t.Errorf("devices[%s] = %+v, want %+v", mac, got, w)
		}
	}
	expectProps(t, st, "dual_connect", map[string]string{"preferred_device": "001122334455"})

	mustHandle(t, h, st, protocol.WriteRequest(CmdDualConnectEnabledRead, protocol.NewTLV(1, 1)))
	expectProps(t, st, "dual_connect", map[string]string{"enabled": "true"})

	out := mustHandle(t, h, st, protocol.NewPacket(CmdDualConnectChanged))
	if len(out) != 1 || out[0].ID != CmdDualConnectEnumerate {
		t.Errorf("change notification replies = %v, want re-enumeration", out)
	}

	if _, err := h.HandlePacket(protocol.WriteRequest(CmdDualConnectEnumerate, protocol.NewTLV(4, 1, 2)), st); !errors.Is(err, ErrMalformed) {
		t.Errorf("short mac error = %v, want ErrMalformed", err)
	}
}

func TestDualConnect_SetProperty(t *testing.T) {
	mac := []byte{0xAA, 0xBB, 0xCC, 0xDD, 0xEE, 0xFF}

	tests := []struct {
		name    string
		prop    string
		value   string
		wantID  protocol.CommandID
		wantTag byte
		wantVal []byte
		wantErr error
	}{
		{"enable", "enabled", "true", CmdDualConnectEnabledWrite, 1, []byte{1}, nil},
		{"preferred", "preferred_device", "AA:BB:CC:DD:EE:FF", CmdDualConnectPreferred, 1, mac, nil},
		{"action", "aabbccddeeff", "disconnect", CmdDualConnectExecute, dualConnectDisconnect, mac, nil},
		{"connected toggle", "aa:bb:cc:dd:ee:ff:connected", "true", CmdDualConnectExecute, dualConnectConnect, mac, nil},
		{"auto connect off", "aabbccddeeff:auto_connect", "false", CmdDualConnectExecute, dualConnectDisableAuto, mac, nil},
		{"unpair by name", "aabbccddeeff:name", "", CmdDualConnectExecute, dualConnectUnpair, mac, nil},
		{"rename unsupported", "aabbccddeeff:name", "Work", protocol.CommandID{}, 0, nil, ErrInvalidValue},
		{"unknown action", "aabbccddeeff", "explode", protocol.CommandID{}, 0, nil, ErrInvalidValue},
		{"bad preferred", "preferred_device", "phone", protocol.CommandID{}, 0, nil, ErrInvalidValue},
		{"not a mac", "volume", "1", protocol.CommandID{}, 0, nil, ErrUnknownProperty},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := NewDualConnect().SetProperty(tt.prop, tt.value, store.New())
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("SetProperty() error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr != nil {
				return
			}
			if len(out) != 1 || out[0].ID != tt.wantID {
				t.Fatalf("SetProperty() = %v, want one %s", out, tt.wantID)
			}
			if v, _ := out[0].Param(tt.wantTag); !bytes.Equal(v, tt.wantVal) {
				t.Errorf("p%d = % x, want % x", tt.wantTag, v, tt.wantVal)
			}
		})
	}
}

func TestParseMAC(t *testing.T) {
	tests := []struct {
		in      string
		wantErr bool
	}{
		{"aabbccddeeff", false},
		{"AA:BB:CC:DD:EE:FF", false},
		{"aa-bb-cc-dd-ee-ff", false},
		{"aa:bb:cc", true},
		{"gg:bb:cc:dd:ee:ff", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			mac, err := ParseMAC(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseMAC(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if err == nil && !bytes.Equal(mac, []byte{0xAA, 0xBB, 0xCC, 0xDD, 0xEE, 0xFF}) {
				t.Errorf("ParseMAC(%q) = % x", tt.in, mac)
			}
		})
	}
}
