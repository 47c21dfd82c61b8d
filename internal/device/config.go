package device

import (
	"strconv"
	"strings"

	"github.com/muurk/budsctl/internal/protocol"
	"github.com/muurk/budsctl/internal/store"
)

// AutoPause toggles pausing playback when an earbud is removed.
type AutoPause struct{}

// NewAutoPause returns the auto-pause handler.
func NewAutoPause() *AutoPause { return &AutoPause{} }

func (AutoPause) Name() string { return "auto_pause" }

func (AutoPause) Claims(id protocol.CommandID) bool {
	return claims{CmdAutoPauseRead, CmdAutoPauseWrite}.has(id)
}

func (AutoPause) Init() []protocol.Packet {
	return []protocol.Packet{protocol.ReadRequest(CmdAutoPauseRead, 1)}
}

func (AutoPause) HandlePacket(pkt protocol.Packet, st *store.Store) ([]protocol.Packet, error) {
	if pkt.ID != CmdAutoPauseRead {
		return nil, nil
	}
	v, ok, err := paramByte(pkt, 1)
	if err != nil || !ok {
		return nil, err
	}
	st.Put(CategoryConfig, "auto_pause", strconv.FormatBool(v == 1))
	return nil, nil
}

// SetProperty writes the new state and records it immediately; the
// device does not echo the change.
func (AutoPause) SetProperty(prop, value string, st *store.Store) ([]protocol.Packet, error) {
	if prop != "auto_pause" && prop != "enabled" {
		return nil, unknownProperty(prop)
	}
	on, err := parseBool(prop, value)
	if err != nil {
		return nil, err
	}
	st.Put(CategoryConfig, "auto_pause", strconv.FormatBool(on))
	return []protocol.Packet{
		protocol.WriteRequest(CmdAutoPauseWrite, protocol.NewTLV(1, boolByte(on))),
	}, nil
}

// LowLatency toggles the low latency (gaming) audio mode.
type LowLatency struct{}

// NewLowLatency returns the low latency handler.
func NewLowLatency() *LowLatency { return &LowLatency{} }

func (LowLatency) Name() string { return "low_latency" }

func (LowLatency) Claims(id protocol.CommandID) bool { return id == CmdLowLatency }

func (LowLatency) Init() []protocol.Packet {
	return []protocol.Packet{protocol.ReadRequest(CmdLowLatency, 2)}
}

func (LowLatency) HandlePacket(pkt protocol.Packet, st *store.Store) ([]protocol.Packet, error) {
	v, ok := pkt.Param(2)
	if !ok || len(v) == 0 {
		return nil, nil
	}
	st.Put(CategoryConfig, "low_latency", strconv.FormatBool(v[0] == 1))
	return nil, nil
}

func (LowLatency) SetProperty(prop, value string, _ *store.Store) ([]protocol.Packet, error) {
	if prop != "low_latency" && prop != "enabled" {
		return nil, unknownProperty(prop)
	}
	on, err := parseBool(prop, value)
	if err != nil {
		return nil, err
	}
	return []protocol.Packet{
		protocol.WriteRequest(CmdLowLatency, protocol.NewTLV(1, boolByte(on))),
		protocol.ReadRequest(CmdLowLatency, 2),
	}, nil
}

var qualityPreferences = options{
	{0, "sqp_connectivity"},
	{1, "sqp_quality"},
}

// SoundQuality selects between connection stability and audio quality.
type SoundQuality struct{}

// NewSoundQuality returns the sound quality preference handler.
func NewSoundQuality() *SoundQuality { return &SoundQuality{} }

func (SoundQuality) Name() string { return "sound_quality" }

func (SoundQuality) Claims(id protocol.CommandID) bool {
	return claims{CmdSoundQualityRead, CmdSoundQualityWrite}.has(id)
}

func (SoundQuality) Init() []protocol.Packet {
	return []protocol.Packet{protocol.ReadRequest(CmdSoundQualityRead, 1)}
}

func (SoundQuality) HandlePacket(pkt protocol.Packet, st *store.Store) ([]protocol.Packet, error) {
	if pkt.ID != CmdSoundQualityRead {
		return nil, nil
	}
	v, ok, err := paramByte(pkt, 2)
	if err != nil || !ok {
		return nil, err
	}
	st.PutAll(CategorySound, map[string]string{
		"quality_preference":         qualityPreferences.name(int8(v)),
		"quality_preference_options": strings.Join(qualityPreferences.names(), ","),
	})
	return nil, nil
}

func (SoundQuality) SetProperty(prop, value string, _ *store.Store) ([]protocol.Packet, error) {
	if prop != "quality_preference" {
		return nil, unknownProperty(prop)
	}
	v, ok := qualityPreferences.value(value)
	if !ok {
		return nil, invalidValue(prop, value)
	}
	return []protocol.Packet{
		protocol.WriteRequest(CmdSoundQualityWrite, protocol.NewTLV(1, byte(v))),
		protocol.ReadRequest(CmdSoundQualityRead, 1),
	}, nil
}
