package device

import (
	"strings"

	"github.com/muurk/budsctl/internal/protocol"
	"github.com/muurk/budsctl/internal/store"
)

var (
	tapActions = options{
		{-1, "tap_action_off"},
		{0, "tap_action_assistant"},
		{1, "tap_action_pause"},
		{2, "tap_action_next"},
		{7, "tap_action_prev"},
	}
	callActions = options{
		{-1, "tap_action_off"},
		{0, "tap_action_answer"},
	}
	longTapActions = options{
		{-1, "tap_action_off"},
		{10, "tap_action_switch_anc"},
	}
	ancCycles = options{
		{1, "noise_control_off_on"},
		{2, "noise_control_off_on_aw"},
		{3, "noise_control_on_aw"},
		{4, "noise_control_off_aw"},
	}
	swipeActions = options{
		{-1, "tap_action_off"},
		{0, "tap_action_change_volume"},
	}
)

// TapAction configures a multi-tap gesture (double or triple tap).
type TapAction struct {
	name       string
	prefix     string
	read       protocol.CommandID
	write      protocol.CommandID
	withInCall bool
}

// NewDoubleTap returns the double-tap handler. withInCall adds the
// in-call answer action.
func NewDoubleTap(withInCall bool) *TapAction {
	return &TapAction{
		name:       "gesture_double",
		prefix:     "double_tap",
		read:       CmdDoubleTapRead,
		write:      CmdDoubleTapWrite,
		withInCall: withInCall,
	}
}

// NewTripleTap returns the triple-tap handler.
func NewTripleTap() *TapAction {
	return &TapAction{
		name:   "gesture_triple",
		prefix: "triple_tap",
		read:   CmdTripleTapRead,
		write:  CmdTripleTapWrite,
	}
}

func (t *TapAction) Name() string { return t.name }

func (t *TapAction) Claims(id protocol.CommandID) bool {
	return id == t.read || id == t.write
}

func (t *TapAction) Init() []protocol.Packet {
	return []protocol.Packet{protocol.ReadRequest(t.read, 1, 2)}
}

func (t *TapAction) HandlePacket(pkt protocol.Packet, st *store.Store) ([]protocol.Packet, error) {
	if pkt.ID != t.read {
		return nil, nil
	}

	out := make(map[string]string)
	for _, side := range []struct {
		tag byte
		key string
	}{{1, "_left"}, {2, "_right"}} {
		v, ok, err := paramByte(pkt, side.tag)
		if err != nil {
			return nil, err
		}
		if ok {
			out[t.prefix+side.key] = tapActions.name(int8(v))
		}
	}

	if available, ok := pkt.Param(3); ok && len(available) > 0 {
		names := make([]string, len(available))
		for i, b := range available {
			names[i] = tapActions.name(int8(b))
		}
		out[t.prefix+"_options"] = strings.Join(names, ",")
	}

	if t.withInCall {
		v, ok, err := paramByte(pkt, 4)
		if err != nil {
			return nil, err
		}
		if ok {
			out[t.prefix+"_in_call"] = callActions.name(int8(v))
			out[t.prefix+"_in_call_options"] = strings.Join(callActions.names(), ",")
		}
	}

	st.PutAll(CategoryAction, out)
	return nil, nil
}

// SetProperty accepts <prefix>_left, <prefix>_right and, when supported,
// <prefix>_in_call. The new value is recorded immediately.
func (t *TapAction) SetProperty(prop, value string, st *store.Store) ([]protocol.Packet, error) {
	var (
		tag  byte
		opts = tapActions
	)
	switch {
	case strings.HasSuffix(prop, "_left"):
		tag = 1
	case strings.HasSuffix(prop, "_right"):
		tag = 2
	case strings.HasSuffix(prop, "_in_call") && t.withInCall:
		tag, opts = 4, callActions
	default:
		return nil, unknownProperty(prop)
	}

	v, ok := opts.value(value)
	if !ok {
		return nil, invalidValue(prop, value)
	}
	st.Put(CategoryAction, prop, value)
	return []protocol.Packet{
		protocol.WriteRequest(t.write, protocol.NewTLV(tag, byte(v))),
	}, nil
}

// LongTapOptions selects which long-press settings a model exposes.
type LongTapOptions struct {
	Left   bool
	Right  bool
	InCall bool
	ANC    bool // noise control cycle configuration
}

// LongTapSplit configures the long-press gesture per bud and the noise
// control cycle it switches through.
type LongTapSplit struct {
	opts LongTapOptions
}

// NewLongTapSplit returns the long-press handler.
func NewLongTapSplit(opts LongTapOptions) *LongTapSplit {
	return &LongTapSplit{opts: opts}
}

func (l *LongTapSplit) Name() string { return "gesture_long_split" }

func (l *LongTapSplit) Claims(id protocol.CommandID) bool {
	return claims{CmdLongTapRead, CmdLongTapANCRead, CmdLongTapWrite, CmdLongTapANCWrite}.has(id)
}

func (l *LongTapSplit) Init() []protocol.Packet {
	out := []protocol.Packet{protocol.ReadRequest(CmdLongTapRead, 1, 2)}
	if l.opts.ANC {
		out = append(out, protocol.ReadRequest(CmdLongTapANCRead, 1, 2))
	}
	return out
}

func (l *LongTapSplit) HandlePacket(pkt protocol.Packet, st *store.Store) ([]protocol.Packet, error) {
	out := make(map[string]string)

	switch pkt.ID {
	case CmdLongTapRead:
		left, hasLeft, err := paramByte(pkt, 1)
		if err != nil {
			return nil, err
		}
		right, hasRight, err := paramByte(pkt, 2)
		if err != nil {
			return nil, err
		}
		inCall, hasInCall, err := paramByte(pkt, 4)
		if err != nil {
			return nil, err
		}
		if hasLeft && l.opts.Left {
			out["long_tap_left"] = longTapActions.name(int8(left))
		}
		if hasRight && l.opts.Right {
			out["long_tap_right"] = longTapActions.name(int8(right))
		}
		if hasInCall && l.opts.InCall {
			out["long_tap_in_call"] = callActions.name(int8(inCall))
			out["long_tap_in_call_options"] = strings.Join(callActions.names(), ",")
		}
		out["long_tap_options"] = strings.Join(longTapActions.names(), ",")

	case CmdLongTapANCRead:
		left, hasLeft, err := paramByte(pkt, 1)
		if err != nil {
			return nil, err
		}
		right, hasRight, err := paramByte(pkt, 2)
		if err != nil {
			return nil, err
		}
		if hasLeft {
			out["noise_control_left"] = ancCycles.name(int8(left))
		}
		if hasRight && l.opts.Right {
			out["noise_control_right"] = ancCycles.name(int8(right))
		}
		out["noise_control_options"] = strings.Join(ancCycles.names(), ",")

	default:
		return nil, nil
	}

	st.PutAll(CategoryAction, out)
	return nil, nil
}

// SetProperty accepts long_tap_{left,right,in_call} and
// noise_control_{left,right}. The new value is recorded immediately.
func (l *LongTapSplit) SetProperty(prop, value string, st *store.Store) ([]protocol.Packet, error) {
	var (
		id   protocol.CommandID
		tag  byte
		opts options
	)
	switch {
	case strings.HasPrefix(prop, "long_tap"):
		id, opts = CmdLongTapWrite, longTapActions
		switch {
		case strings.Contains(prop, "left"):
			tag = 1
		case strings.Contains(prop, "right"):
			tag = 2
		case strings.Contains(prop, "in_call"):
			tag, opts = 4, callActions
		default:
			return nil, unknownProperty(prop)
		}
	case strings.HasPrefix(prop, "noise_control"):
		id, opts, tag = CmdLongTapANCWrite, ancCycles, 2
		if strings.Contains(prop, "left") {
			tag = 1
		}
	default:
		return nil, unknownProperty(prop)
	}

	v, ok := opts.value(value)
	if !ok {
		return nil, invalidValue(prop, value)
	}
	st.Put(CategoryAction, prop, value)
	return []protocol.Packet{protocol.WriteRequest(id, protocol.NewTLV(tag, byte(v)))}, nil
}

// Swipe configures the swipe gesture.
type Swipe struct{}

// NewSwipe returns the swipe gesture handler.
func NewSwipe() *Swipe { return &Swipe{} }

func (Swipe) Name() string { return "gesture_swipe" }

func (Swipe) Claims(id protocol.CommandID) bool {
	return id == CmdSwipeRead || id == CmdSwipeWrite
}

func (Swipe) Init() []protocol.Packet {
	return []protocol.Packet{protocol.ReadRequest(CmdSwipeRead, 1, 2)}
}

func (Swipe) HandlePacket(pkt protocol.Packet, st *store.Store) ([]protocol.Packet, error) {
	if pkt.ID != CmdSwipeRead {
		return nil, nil
	}
	v, ok, err := paramByte(pkt, 1)
	if err != nil {
		return nil, err
	}
	out := map[string]string{
		"swipe_gesture_options": strings.Join(swipeActions.names(), ","),
	}
	if ok {
		out["swipe_gesture"] = swipeActions.name(int8(v))
	}
	st.PutAll(CategoryAction, out)
	return nil, nil
}

// SetProperty applies the same action to both buds.
func (Swipe) SetProperty(prop, value string, st *store.Store) ([]protocol.Packet, error) {
	if prop != "swipe_gesture" {
		return nil, unknownProperty(prop)
	}
	v, ok := swipeActions.value(value)
	if !ok {
		return nil, invalidValue(prop, value)
	}
	st.Put(CategoryAction, prop, value)
	return []protocol.Packet{
		protocol.WriteRequest(CmdSwipeWrite, protocol.NewTLV(1, byte(v)), protocol.NewTLV(2, byte(v))),
	}, nil
}
