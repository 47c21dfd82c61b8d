package device

import (
	"errors"
	"testing"

	"github.com/muurk/budsctl/internal/protocol"
	"github.com/muurk/budsctl/internal/store"
)

func accessoryPacket(t *testing.T, datagram ...byte) protocol.Packet {
	t.Helper()
	pkt, err := protocol.DecodeAccessory(datagram)
	if err != nil {
		t.Fatalf("DecodeAccessory(% x) error = %v", datagram, err)
	}
	return pkt
}

func TestAccessoryBattery(t *testing.T) {
	tests := []struct {
		name    string
		payload []byte
		want    map[string]string
		absent  []string
	}{
		{
			name: "both buds and case",
			payload: []byte{3,
				0x04, 0x01, 80, 0x01, 0x01,
				0x02, 0x01, 70, 0x02, 0x01,
				0x08, 0x01, 50, 0x02, 0x01,
			},
			want: map[string]string{
				"left": "80", "right": "70", "case": "50", "global": "75",
				"left_charging": "true", "right_charging": "false", "is_charging": "true",
			},
		},
		{
			name: "right bud disconnected",
			payload: []byte{2,
				0x04, 0x01, 60, 0x02, 0x01,
				0x02, 0x01, 0, 0x04, 0x01,
			},
			want:   map[string]string{"left": "60", "is_charging": "false"},
			absent: []string{"right", "global"},
		},
		{
			name:    "truncated entry",
			payload: []byte{2, 0x04, 0x01, 55, 0x02, 0x01, 0x02, 0x01},
			want:    map[string]string{"left": "55"},
			absent:  []string{"right"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := store.New()
			datagram := append([]byte{0x04, 0x00, 0x04, 0x00, protocol.OpBatteryInfo, 0x00}, tt.payload...)
			mustHandle(t, NewAccessoryBattery(), st, accessoryPacket(t, datagram...))
			expectProps(t, st, "battery", tt.want)
			for _, k := range tt.absent {
				if v, ok := st.Get("battery", k); ok {
					t.Errorf("battery.%s = %q, want absent", k, v)
				}
			}
		})
	}
}

func TestAccessoryEarDetection(t *testing.T) {
	st := store.New()
	h := NewAccessoryEarDetection()

	mustHandle(t, h, st, accessoryPacket(t, 0x04, 0x00, 0x04, 0x00, protocol.OpEarDetection, 0x00, 0x00, 0x02))
	mustHandle(t, h, st, protocol.ControlCommand(protocol.CtrlEarDetectionConfig, 0x02))
	expectProps(t, st, "ear_detection", map[string]string{
		"primary": "in_ear", "secondary": "in_case", "enabled": "false",
	})

	out, err := h.SetProperty("enabled", "true", st)
	if err != nil || len(out) != 1 {
		t.Fatalf("SetProperty() = %v, %v", out, err)
	}
	if v, _ := out[0].Param(0); v[0] != 0x01 {
		t.Errorf("enable value = %02x, want 01", v[0])
	}
}

func TestAccessoryANC(t *testing.T) {
	st := store.New()
	h := NewAccessoryANC(false)

	mustHandle(t, h, st, accessoryPacket(t, 0x04, 0x00, 0x04, 0x00, 0x09, 0x00, protocol.CtrlListeningMode, 0x02, 0x00, 0x00, 0x00))
	mustHandle(t, h, st, protocol.ControlCommand(protocol.CtrlAutoANCStrength, 40))
	mustHandle(t, h, st, protocol.ControlCommand(protocol.CtrlOneBudANC, 0x01))
	expectProps(t, st, "anc", map[string]string{
		"mode":         "anc",
		"mode_options": "off,anc,transparency",
		"anc_strength": "40",
		"one_bud_anc":  "true",
	})

	tests := []struct {
		name    string
		h       *AccessoryANC
		prop    string
		value   string
		wantSub byte
		wantVal byte
		wantErr error
	}{
		{"transparency", h, "mode", "transparency", protocol.CtrlListeningMode, 3, nil},
		{"adaptive supported", NewAccessoryANC(true), "mode", "adaptive", protocol.CtrlListeningMode, 4, nil},
		{"adaptive unsupported", h, "mode", "adaptive", 0, 0, ErrInvalidValue},
		{"strength", h, "anc_strength", "100", protocol.CtrlAutoANCStrength, 100, nil},
		{"strength too high", h, "anc_strength", "101", 0, 0, ErrInvalidValue},
		{"one bud off", h, "one_bud_anc", "false", protocol.CtrlOneBudANC, 0x02, nil},
		{"unknown", h, "volume", "1", 0, 0, ErrUnknownProperty},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := tt.h.SetProperty(tt.prop, tt.value, st)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("SetProperty() error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr != nil {
				return
			}
			if out[0].ID != protocol.Control(tt.wantSub) {
				t.Errorf("id = %s, want %s", out[0].ID, protocol.Control(tt.wantSub))
			}
			if v, _ := out[0].Param(0); v[0] != tt.wantVal {
				t.Errorf("value = %d, want %d", v[0], tt.wantVal)
			}
		})
	}
}

func TestAccessoryConversationAndVolume(t *testing.T) {
	st := store.New()
	conv := NewAccessoryConversation()
	vol := NewAccessoryPersonalizedVolume()

	mustHandle(t, conv, st, protocol.ControlCommand(protocol.CtrlConversationDetect, 0x01))
	mustHandle(t, conv, st, accessoryPacket(t, 0x04, 0x00, 0x04, 0x00, protocol.OpConversationAwareness, 0x00, 0x02, 0x00, 0x01))
	mustHandle(t, vol, st, protocol.ControlCommand(protocol.CtrlAdaptiveVolume, 0x02))

	expectProps(t, st, "conversation_awareness", map[string]string{"enabled": "true", "speaking": "true"})
	expectProps(t, st, "personalized_volume", map[string]string{"enabled": "false"})

	mustHandle(t, conv, st, accessoryPacket(t, 0x04, 0x00, 0x04, 0x00, protocol.OpConversationAwareness, 0x00, 0x02, 0x00, 0x08))
	expectProps(t, st, "conversation_awareness", map[string]string{"speaking": "false"})

	out, err := vol.SetProperty("enabled", "true", st)
	if err != nil || out[0].ID != protocol.Control(protocol.CtrlAdaptiveVolume) {
		t.Errorf("SetProperty() = %v, %v", out, err)
	}
}

func TestAccessoryInfo(t *testing.T) {
	st := store.New()
	payload := []byte("AirPods Pro\x00A2084\x00Apple Inc.\x00GX1234\x006.8.8\x006.8.8\x001.0.0\x00\x00\x00upd\x00L123\x00R456\x00extra\x00")
	datagram := append([]byte{0x04, 0x00, 0x04, 0x00, protocol.OpDeviceInfo, 0x00}, payload...)

	mustHandle(t, NewAccessoryInfo(), st, accessoryPacket(t, datagram...))
	expectProps(t, st, "info", map[string]string{
		"device_name":         "AirPods Pro",
		"device_model":        "A2084",
		"manufacturer":        "Apple Inc.",
		"serial_number":       "GX1234",
		"firmware_ver_1":      "6.8.8",
		"software_ver":        "6.8.8",
		"hardware_ver":        "1.0.0",
		"updater_id":          "upd",
		"left_serial_number":  "L123",
		"right_serial_number": "R456",
	})
}
