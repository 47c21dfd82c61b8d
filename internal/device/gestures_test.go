package device

import (
	"bytes"
	"errors"
	"testing"

	"github.com/muurk/budsctl/internal/protocol"
	"github.com/muurk/budsctl/internal/store"
)

func TestTapAction(t *testing.T) {
	st := store.New()
	h := NewDoubleTap(true)

	mustHandle(t, h, st, protocol.WriteRequest(CmdDoubleTapRead,
		protocol.NewTLV(1, 1),
		protocol.NewTLV(2, 0xFF),
		protocol.NewTLV(3, 0xFF, 0, 1, 2, 7),
		protocol.NewTLV(4, 0),
	))
	expectProps(t, st, "action", map[string]string{
		"double_tap_left":            "tap_action_pause",
		"double_tap_right":           "tap_action_off",
		"double_tap_options":         "tap_action_off,tap_action_assistant,tap_action_pause,tap_action_next,tap_action_prev",
		"double_tap_in_call":         "tap_action_answer",
		"double_tap_in_call_options": "tap_action_off,tap_action_answer",
	})

	if out, err := h.HandlePacket(protocol.NewPacket(CmdDoubleTapWrite), st); out != nil || err != nil {
		t.Errorf("write ack = %v, %v; want nothing", out, err)
	}
}

func TestTapAction_SetProperty(t *testing.T) {
	tests := []struct {
		name    string
		handler *TapAction
		prop    string
		value   string
		wantID  protocol.CommandID
		wantTag byte
		wantVal byte
		wantErr error
	}{
		{"double right", NewDoubleTap(true), "double_tap_right", "tap_action_next", CmdDoubleTapWrite, 2, 2, nil},
		{"double off", NewDoubleTap(false), "double_tap_left", "tap_action_off", CmdDoubleTapWrite, 1, 0xFF, nil},
		{"double in call", NewDoubleTap(true), "double_tap_in_call", "tap_action_answer", CmdDoubleTapWrite, 4, 0, nil},
		{"triple left", NewTripleTap(), "triple_tap_left", "tap_action_prev", CmdTripleTapWrite, 1, 7, nil},
		{"triple in call unsupported", NewTripleTap(), "triple_tap_in_call", "tap_action_answer", protocol.CommandID{}, 0, 0, ErrUnknownProperty},
		{"unknown action", NewTripleTap(), "triple_tap_left", "tap_action_dance", protocol.CommandID{}, 0, 0, ErrInvalidValue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := store.New()
			out, err := tt.handler.SetProperty(tt.prop, tt.value, st)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("SetProperty() error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr != nil {
				return
			}
			if len(out) != 1 || out[0].ID != tt.wantID {
				t.Fatalf("SetProperty() = %v, want one %s write", out, tt.wantID)
			}
			if v, _ := out[0].Param(tt.wantTag); !bytes.Equal(v, []byte{tt.wantVal}) {
				t.Errorf("p%d = % x, want %02x", tt.wantTag, v, tt.wantVal)
			}
			expectProps(t, st, "action", map[string]string{tt.prop: tt.value})
		})
	}
}

func TestLongTapSplit(t *testing.T) {
	st := store.New()
	h := NewLongTapSplit(LongTapOptions{Left: true, Right: true, ANC: true})

	if n := len(h.Init()); n != 2 {
		t.Errorf("Init() = %d packets, want 2", n)
	}

	mustHandle(t, h, st, protocol.WriteRequest(CmdLongTapRead,
		protocol.NewTLV(1, 10),
		protocol.NewTLV(2, 0xFF),
		protocol.NewTLV(4, 0),
	))
	mustHandle(t, h, st, protocol.WriteRequest(CmdLongTapANCRead,
		protocol.NewTLV(1, 2),
		protocol.NewTLV(2, 3),
	))
	expectProps(t, st, "action", map[string]string{
		"long_tap_left":         "tap_action_switch_anc",
		"long_tap_right":        "tap_action_off",
		"long_tap_options":      "tap_action_off,tap_action_switch_anc",
		"noise_control_left":    "noise_control_off_on_aw",
		"noise_control_right":   "noise_control_on_aw",
		"noise_control_options": "noise_control_off_on,noise_control_off_on_aw,noise_control_on_aw,noise_control_off_aw",
	})
	if _, ok := st.Get("action", "long_tap_in_call"); ok {
		t.Error("long_tap_in_call stored without in-call support")
	}

	out, err := h.SetProperty("noise_control_right", "noise_control_on_aw", st)
	if err != nil {
		t.Fatalf("SetProperty() error = %v", err)
	}
	if out[0].ID != CmdLongTapANCWrite {
		t.Errorf("write id = %s, want %s", out[0].ID, CmdLongTapANCWrite)
	}
	if v, _ := out[0].Param(2); !bytes.Equal(v, []byte{3}) {
		t.Errorf("p2 = % x, want 03", v)
	}

	if _, err := h.HandlePacket(protocol.WriteRequest(CmdLongTapRead, protocol.NewTLV(1, 1, 2)), st); !errors.Is(err, ErrMalformed) {
		t.Errorf("two-byte action error = %v, want ErrMalformed", err)
	}
}

func TestSwipe(t *testing.T) {
	st := store.New()
	h := NewSwipe()

	mustHandle(t, h, st, protocol.WriteRequest(CmdSwipeRead, protocol.NewTLV(1, 0)))
	expectProps(t, st, "action", map[string]string{
		"swipe_gesture":         "tap_action_change_volume",
		"swipe_gesture_options": "tap_action_off,tap_action_change_volume",
	})

	out, err := h.SetProperty("swipe_gesture", "tap_action_off", st)
	if err != nil {
		t.Fatalf("SetProperty() error = %v", err)
	}
	for _, tag := range []byte{1, 2} {
		if v, _ := out[0].Param(tag); !bytes.Equal(v, []byte{0xFF}) {
			t.Errorf("p%d = % x, want ff", tag, v)
		}
	}
}
