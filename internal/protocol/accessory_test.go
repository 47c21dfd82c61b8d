package protocol

import (
	"bytes"
	"testing"
)

func TestDecodeAccessory(t *testing.T) {
	tests := []struct {
		name      string
		datagram  []byte
		wantID    CommandID
		wantValue []byte
	}{
		{
			name:      "battery",
			datagram:  []byte{0x04, 0x00, 0x04, 0x00, 0x04, 0x00, 0x01, 0x02, 0x01, 0x50, 0x02, 0x01},
			wantID:    General(OpBatteryInfo),
			wantValue: []byte{0x01, 0x02, 0x01, 0x50, 0x02, 0x01},
		},
		{
			name:      "listening mode control",
			datagram:  []byte{0x04, 0x00, 0x04, 0x00, 0x09, 0x00, 0x0D, 0x02, 0x00, 0x00, 0x00},
			wantID:    Control(CtrlListeningMode),
			wantValue: []byte{0x02, 0x00, 0x00, 0x00},
		},
		{
			name:      "header only",
			datagram:  []byte{0x04, 0x00, 0x04, 0x00, 0x06, 0x00},
			wantID:    General(OpEarDetection),
			wantValue: []byte{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pkt, err := DecodeAccessory(tt.datagram)
			if err != nil {
				t.Fatalf("DecodeAccessory() error = %v", err)
			}
			if pkt.ID != tt.wantID {
				t.Errorf("ID = %s, want %s", pkt.ID, tt.wantID)
			}
			got, ok := pkt.Param(0)
			if !ok || !bytes.Equal(got, tt.wantValue) {
				t.Errorf("Param(0) = % x, want % x", got, tt.wantValue)
			}

			back, err := EncodeAccessory(pkt)
			if err != nil {
				t.Fatalf("EncodeAccessory() error = %v", err)
			}
			if !bytes.Equal(back, tt.datagram) {
				t.Errorf("EncodeAccessory() = % x, want % x", back, tt.datagram)
			}
		})
	}
}

func TestDecodeAccessory_Errors(t *testing.T) {
	tests := []struct {
		name     string
		datagram []byte
		want     ErrorKind
	}{
		{"wrong preamble", []byte{0x05, 0x00, 0x04, 0x00, 0x04, 0x00}, BadPreamble},
		{"handshake preamble", HandshakePacket(), BadPreamble},
		{"short", []byte{0x04, 0x00, 0x04, 0x00, 0x04}, Truncated},
		{"empty", nil, Truncated},
		{"control without subtype", []byte{0x04, 0x00, 0x04, 0x00, 0x09, 0x00}, Truncated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := DecodeAccessory(tt.datagram); KindOf(err) != tt.want {
				t.Errorf("DecodeAccessory() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestEncodeAccessory_Errors(t *testing.T) {
	tests := []struct {
		name string
		id   CommandID
	}{
		{"framed id", Framed(0xAA, 0x04)},
		{"general control opcode", General(OpControlCommand)},
		{"unknown namespace", CommandID{Family: FamilyAccessory, Hi: 0x01, Lo: 0x04}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := EncodeAccessory(NewPacket(tt.id)); !IsEncodingError(err) {
				t.Errorf("EncodeAccessory() error = %v, want *EncodingError", err)
			}
		})
	}
}

func TestRemapBijective(t *testing.T) {
	seen := make(map[CommandID]bool)

	for op := 0; op < 256; op++ {
		if op == OpControlCommand {
			continue
		}
		id := Remap(byte(op), 0)
		gotOp, _, ok := Unmap(id)
		if !ok || gotOp != byte(op) {
			t.Errorf("Unmap(Remap(0x%02x)) = 0x%02x, %v", op, gotOp, ok)
		}
		seen[id] = true
	}
	for sub := 0; sub < 256; sub++ {
		id := Remap(OpControlCommand, byte(sub))
		gotOp, gotSub, ok := Unmap(id)
		if !ok || gotOp != OpControlCommand || gotSub != byte(sub) {
			t.Errorf("Unmap(Remap(0x09, 0x%02x)) = 0x%02x 0x%02x, %v", sub, gotOp, gotSub, ok)
		}
		seen[id] = true
	}

	if len(seen) != 255+256 {
		t.Errorf("distinct ids = %d, want %d", len(seen), 255+256)
	}

	for hi := 0; hi < 256; hi++ {
		for lo := 0; lo < 256; lo++ {
			if seen[Framed(byte(hi), byte(lo))] {
				t.Fatalf("framed id %02X:%02X collides with an accessory id", hi, lo)
			}
		}
	}
}

func TestControlCommand(t *testing.T) {
	got, err := EncodeAccessory(ControlCommand(CtrlListeningMode, 0x03))
	if err != nil {
		t.Fatalf("EncodeAccessory() error = %v", err)
	}
	want := []byte{0x04, 0x00, 0x04, 0x00, 0x09, 0x00, 0x0D, 0x03, 0x00, 0x00, 0x00}
	if !bytes.Equal(got, want) {
		t.Errorf("EncodeAccessory() = % x, want % x", got, want)
	}
}

func TestFixedPackets(t *testing.T) {
	tests := []struct {
		name string
		got  []byte
		want []byte
	}{
		{"handshake", HandshakePacket(), []byte{0x00, 0x00, 0x04, 0x00, 0x01, 0x00, 0x02, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00}},
		{"feature flags", FeatureFlagsPacket(), []byte{0x04, 0x00, 0x04, 0x00, 0x4D, 0x00, 0xFF, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00}},
		{"notifications", NotificationRequestPacket(), []byte{0x04, 0x00, 0x04, 0x00, 0x0F, 0x00, 0xFF, 0xFF, 0xFE, 0xFF}},
	}

	for _, tt := range tests {
		if !bytes.Equal(tt.got, tt.want) {
			t.Errorf("%s = % x, want % x", tt.name, tt.got, tt.want)
		}
	}
}
