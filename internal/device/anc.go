package device

import (
	"strings"

	"github.com/muurk/budsctl/internal/protocol"
	"github.com/muurk/budsctl/internal/store"
)

// ANC modes on framed devices
const (
	ancModeNormal       = 0
	ancModeCancellation = 1
	ancModeAwareness    = 2
)

var (
	ancModes = options{
		{ancModeNormal, "normal"},
		{ancModeCancellation, "cancellation"},
		{ancModeAwareness, "awareness"},
	}
	cancelLevels = options{
		{1, "comfort"},
		{0, "normal"},
		{2, "ultra"},
		{3, "dynamic"},
	}
	awarenessLevels = options{
		{1, "voice_boost"},
		{2, "normal"},
	}
)

// ANCOptions selects the noise control features a model supports.
type ANCOptions struct {
	CancelLevels  bool // comfort/normal/ultra while cancelling
	CancelDynamic bool // adds the dynamic cancel level
	VoiceBoost    bool // voice boost level while in awareness
}

// ANC handles noise control mode and level on framed devices.
type ANC struct {
	opts       ANCOptions
	activeMode byte
}

// NewANC returns a noise control handler.
func NewANC(opts ANCOptions) *ANC {
	return &ANC{opts: opts}
}

func (a *ANC) Name() string { return "anc" }

func (a *ANC) Claims(id protocol.CommandID) bool {
	return claims{CmdANCRead, CmdANCWrite}.has(id)
}

func (a *ANC) Init() []protocol.Packet {
	return []protocol.Packet{protocol.ReadRequest(CmdANCRead, 1, 2)}
}

func (a *ANC) cancelOptions() options {
	if a.opts.CancelDynamic {
		return cancelLevels
	}
	return cancelLevels[:3]
}

func (a *ANC) HandlePacket(pkt protocol.Packet, st *store.Store) ([]protocol.Packet, error) {
	if pkt.ID == CmdANCWrite {
		return nil, nil
	}

	state, ok, err := paramExact(pkt, 1, 2)
	if err != nil || !ok {
		return nil, err
	}
	level, mode := state[0], state[1]
	a.activeMode = mode

	out := map[string]string{
		"mode":         ancModes.name(int8(mode)),
		"mode_options": strings.Join(ancModes.names(), ","),
	}
	switch {
	case mode == ancModeCancellation && a.opts.CancelLevels:
		opts := a.cancelOptions()
		out["level"] = opts.name(int8(level))
		out["level_options"] = strings.Join(opts.names(), ",")
	case mode == ancModeAwareness && a.opts.VoiceBoost:
		out["level"] = awarenessLevels.name(int8(level))
		out["level_options"] = strings.Join(awarenessLevels.names(), ",")
	}

	st.PutAll(CategoryANC, out)
	return nil, nil
}

// SetProperty accepts "mode" and "level". Levels apply to the mode that
// was last reported by the device.
func (a *ANC) SetProperty(prop, value string, _ *store.Store) ([]protocol.Packet, error) {
	var data []byte
	switch prop {
	case "mode":
		mode, ok := ancModes.value(value)
		if !ok {
			return nil, invalidValue(prop, value)
		}
		level := byte(0xFF)
		if mode == ancModeNormal {
			level = 0x00
		}
		data = []byte{byte(mode), level}
	case "level":
		levels := a.cancelOptions()
		if a.activeMode == ancModeAwareness {
			levels = awarenessLevels
		}
		level, ok := levels.value(value)
		if !ok {
			return nil, invalidValue(prop, value)
		}
		data = []byte{a.activeMode, byte(level)}
	default:
		return nil, unknownProperty(prop)
	}

	return []protocol.Packet{
		protocol.WriteRequest(CmdANCWrite, protocol.NewTLV(1, data...)),
		protocol.ReadRequest(CmdANCRead, 1, 2),
	}, nil
}

// ANCChange reacts to the legacy notification sent when noise control is
// switched on the earbuds themselves by re-reading the ANC state.
type ANCChange struct{}

// NewANCChange returns the legacy change handler.
func NewANCChange() *ANCChange { return &ANCChange{} }

func (ANCChange) Name() string { return "anc_change" }

func (ANCChange) Claims(id protocol.CommandID) bool { return id == CmdANCLegacyNotify }

func (ANCChange) Init() []protocol.Packet { return nil }

func (ANCChange) HandlePacket(protocol.Packet, *store.Store) ([]protocol.Packet, error) {
	return []protocol.Packet{protocol.ReadRequest(CmdANCRead, 1, 2)}, nil
}
