package device

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/muurk/budsctl/internal/protocol"
	"github.com/muurk/budsctl/internal/store"
)

// Accessory battery components and states
const (
	aapBatteryRight        = 0x02
	aapBatteryLeft         = 0x04
	aapBatteryCase         = 0x08
	aapBatteryCharging     = 0x01
	aapBatteryDisconnected = 0x04
	aapBatteryEntrySize    = 5 // component, 01, level, status, 01
)

// Accessory toggles use 1 for on and 2 for off.
const (
	aapOn  = 0x01
	aapOff = 0x02
)

var (
	earStates = options{
		{0, "in_ear"},
		{1, "out"},
		{2, "in_case"},
	}
	listeningModes = options{
		{1, "off"},
		{2, "anc"},
		{3, "transparency"},
		{4, "adaptive"},
	}
)

func aapToggle(on bool) byte {
	if on {
		return aapOn
	}
	return aapOff
}

// accessoryPayload returns the TLV 0 payload of an accessory packet.
func accessoryPayload(pkt protocol.Packet) []byte {
	v, _ := pkt.Param(0)
	return v
}

// AccessoryBattery decodes AirPods battery notifications.
type AccessoryBattery struct{}

// NewAccessoryBattery returns the AirPods battery handler.
func NewAccessoryBattery() *AccessoryBattery { return &AccessoryBattery{} }

func (AccessoryBattery) Name() string { return "battery" }

func (AccessoryBattery) Claims(id protocol.CommandID) bool {
	return id == protocol.General(protocol.OpBatteryInfo)
}

// Init sends nothing; notifications follow the subscription request.
func (AccessoryBattery) Init() []protocol.Packet { return nil }

func (AccessoryBattery) HandlePacket(pkt protocol.Packet, st *store.Store) ([]protocol.Packet, error) {
	data := accessoryPayload(pkt)
	if len(data) == 0 {
		return nil, nil
	}

	out := make(map[string]string)
	count := int(data[0])
	pos := 1
	for i := 0; i < count && pos+aapBatteryEntrySize <= len(data); i++ {
		component, level, status := data[pos], data[pos+2], data[pos+3]
		pos += aapBatteryEntrySize

		var key string
		switch component {
		case aapBatteryLeft:
			key = "left"
		case aapBatteryRight:
			key = "right"
		case aapBatteryCase:
			key = "case"
		default:
			continue
		}
		if status != aapBatteryDisconnected {
			out[key] = strconv.Itoa(int(level))
		}
		if component != aapBatteryCase {
			out[key+"_charging"] = strconv.FormatBool(status == aapBatteryCharging)
		}
	}

	left, errL := strconv.Atoi(out["left"])
	right, errR := strconv.Atoi(out["right"])
	if errL == nil && errR == nil {
		out["global"] = strconv.Itoa((left + right) / 2)
	}
	out["is_charging"] = strconv.FormatBool(out["left_charging"] == "true" || out["right_charging"] == "true")

	st.PutAll(CategoryBattery, out)
	return nil, nil
}

// AccessoryEarDetection reports in-ear state and toggles automatic ear
// detection.
type AccessoryEarDetection struct{}

// NewAccessoryEarDetection returns the AirPods ear detection handler.
func NewAccessoryEarDetection() *AccessoryEarDetection { return &AccessoryEarDetection{} }

func (AccessoryEarDetection) Name() string { return "ear_detection" }

func (AccessoryEarDetection) Claims(id protocol.CommandID) bool {
	return id == protocol.General(protocol.OpEarDetection) ||
		id == protocol.Control(protocol.CtrlEarDetectionConfig)
}

func (AccessoryEarDetection) Init() []protocol.Packet { return nil }

func (AccessoryEarDetection) HandlePacket(pkt protocol.Packet, st *store.Store) ([]protocol.Packet, error) {
	data := accessoryPayload(pkt)
	switch {
	case pkt.ID == protocol.General(protocol.OpEarDetection) && len(data) >= 2:
		st.PutAll(CategoryEarDetection, map[string]string{
			"primary":   earStates.name(int8(data[0])),
			"secondary": earStates.name(int8(data[1])),
		})
	case pkt.ID == protocol.Control(protocol.CtrlEarDetectionConfig) && len(data) > 0:
		st.Put(CategoryEarDetection, "enabled", strconv.FormatBool(data[0] == aapOn))
	}
	return nil, nil
}

func (AccessoryEarDetection) SetProperty(prop, value string, _ *store.Store) ([]protocol.Packet, error) {
	if prop != "enabled" {
		return nil, unknownProperty(prop)
	}
	on, err := parseBool(prop, value)
	if err != nil {
		return nil, err
	}
	return []protocol.Packet{protocol.ControlCommand(protocol.CtrlEarDetectionConfig, aapToggle(on))}, nil
}

// AccessoryANC handles the AirPods listening mode.
type AccessoryANC struct {
	withAdaptive bool
}

// NewAccessoryANC returns the listening mode handler. withAdaptive adds
// the adaptive mode offered by newer models.
func NewAccessoryANC(withAdaptive bool) *AccessoryANC {
	return &AccessoryANC{withAdaptive: withAdaptive}
}

func (a *AccessoryANC) Name() string { return "anc" }

func (a *AccessoryANC) Claims(id protocol.CommandID) bool {
	return claims{
		protocol.Control(protocol.CtrlListeningMode),
		protocol.Control(protocol.CtrlListeningConfigs),
		protocol.Control(protocol.CtrlAutoANCStrength),
		protocol.Control(protocol.CtrlOneBudANC),
	}.has(id)
}

func (a *AccessoryANC) Init() []protocol.Packet { return nil }

func (a *AccessoryANC) modes() options {
	if a.withAdaptive {
		return listeningModes
	}
	return listeningModes[:3]
}

func (a *AccessoryANC) HandlePacket(pkt protocol.Packet, st *store.Store) ([]protocol.Packet, error) {
	data := accessoryPayload(pkt)
	if len(data) == 0 {
		return nil, nil
	}

	switch pkt.ID.Lo {
	case protocol.CtrlListeningMode:
		st.PutAll(CategoryANC, map[string]string{
			"mode":         listeningModes.name(int8(data[0])),
			"mode_options": strings.Join(a.modes().names(), ","),
		})
	case protocol.CtrlAutoANCStrength:
		st.Put(CategoryANC, "anc_strength", strconv.Itoa(int(data[0])))
	case protocol.CtrlOneBudANC:
		st.Put(CategoryANC, "one_bud_anc", strconv.FormatBool(data[0] == aapOn))
	}
	return nil, nil
}

// SetProperty accepts "mode", "anc_strength" (0-100) and "one_bud_anc".
func (a *AccessoryANC) SetProperty(prop, value string, _ *store.Store) ([]protocol.Packet, error) {
	switch prop {
	case "mode":
		v, ok := a.modes().value(value)
		if !ok {
			return nil, invalidValue(prop, value)
		}
		return []protocol.Packet{protocol.ControlCommand(protocol.CtrlListeningMode, byte(v))}, nil
	case "anc_strength":
		n, err := strconv.ParseUint(value, 10, 8)
		if err != nil || n > 100 {
			return nil, invalidValue(prop, value)
		}
		return []protocol.Packet{protocol.ControlCommand(protocol.CtrlAutoANCStrength, byte(n))}, nil
	case "one_bud_anc":
		on, err := parseBool(prop, value)
		if err != nil {
			return nil, err
		}
		return []protocol.Packet{protocol.ControlCommand(protocol.CtrlOneBudANC, aapToggle(on))}, nil
	}
	return nil, unknownProperty(prop)
}

// AccessoryConversation handles conversation awareness, which lowers the
// volume while the wearer speaks.
type AccessoryConversation struct{}

// NewAccessoryConversation returns the conversation awareness handler.
func NewAccessoryConversation() *AccessoryConversation { return &AccessoryConversation{} }

func (AccessoryConversation) Name() string { return "conversation_awareness" }

func (AccessoryConversation) Claims(id protocol.CommandID) bool {
	return id == protocol.Control(protocol.CtrlConversationDetect) ||
		id == protocol.General(protocol.OpConversationAwareness)
}

func (AccessoryConversation) Init() []protocol.Packet { return nil }

func (AccessoryConversation) HandlePacket(pkt protocol.Packet, st *store.Store) ([]protocol.Packet, error) {
	data := accessoryPayload(pkt)
	switch {
	case pkt.ID == protocol.Control(protocol.CtrlConversationDetect) && len(data) > 0:
		st.Put(CategoryConversationAwareness, "enabled", strconv.FormatBool(data[0] == aapOn))
	case pkt.ID == protocol.General(protocol.OpConversationAwareness) && len(data) >= 3:
		// 1 and 2 mean speech detected, higher values mean it stopped.
		speaking := data[2] == 0x01 || data[2] == 0x02
		st.Put(CategoryConversationAwareness, "speaking", strconv.FormatBool(speaking))
	}
	return nil, nil
}

func (AccessoryConversation) SetProperty(prop, value string, _ *store.Store) ([]protocol.Packet, error) {
	if prop != "enabled" {
		return nil, unknownProperty(prop)
	}
	on, err := parseBool(prop, value)
	if err != nil {
		return nil, err
	}
	return []protocol.Packet{protocol.ControlCommand(protocol.CtrlConversationDetect, aapToggle(on))}, nil
}

// AccessoryPersonalizedVolume toggles adaptive volume.
type AccessoryPersonalizedVolume struct{}

// NewAccessoryPersonalizedVolume returns the personalized volume handler.
func NewAccessoryPersonalizedVolume() *AccessoryPersonalizedVolume {
	return &AccessoryPersonalizedVolume{}
}

func (AccessoryPersonalizedVolume) Name() string { return "personalized_volume" }

func (AccessoryPersonalizedVolume) Claims(id protocol.CommandID) bool {
	return id == protocol.Control(protocol.CtrlAdaptiveVolume)
}

func (AccessoryPersonalizedVolume) Init() []protocol.Packet { return nil }

func (AccessoryPersonalizedVolume) HandlePacket(pkt protocol.Packet, st *store.Store) ([]protocol.Packet, error) {
	if data := accessoryPayload(pkt); len(data) > 0 {
		st.Put(CategoryPersonalizedVolume, "enabled", strconv.FormatBool(data[0] == aapOn))
	}
	return nil, nil
}

func (AccessoryPersonalizedVolume) SetProperty(prop, value string, _ *store.Store) ([]protocol.Packet, error) {
	if prop != "enabled" {
		return nil, unknownProperty(prop)
	}
	on, err := parseBool(prop, value)
	if err != nil {
		return nil, err
	}
	return []protocol.Packet{protocol.ControlCommand(protocol.CtrlAdaptiveVolume, aapToggle(on))}, nil
}

// accessoryInfoFields lists the NUL-separated strings of the device info
// message, in order.
var accessoryInfoFields = []string{
	"device_name",
	"device_model",
	"manufacturer",
	"serial_number",
	"firmware_ver_1",
	"firmware_ver_2",
	"hardware_ver",
	"updater_id",
	"left_serial_number",
	"right_serial_number",
}

// AccessoryInfo decodes the AirPods identity strings.
type AccessoryInfo struct{}

// NewAccessoryInfo returns the AirPods device info handler.
func NewAccessoryInfo() *AccessoryInfo { return &AccessoryInfo{} }

func (AccessoryInfo) Name() string { return "info" }

func (AccessoryInfo) Claims(id protocol.CommandID) bool {
	return id == protocol.General(protocol.OpDeviceInfo)
}

func (AccessoryInfo) Init() []protocol.Packet { return nil }

func (AccessoryInfo) HandlePacket(pkt protocol.Packet, st *store.Store) ([]protocol.Packet, error) {
	data := accessoryPayload(pkt)
	if len(data) == 0 {
		return nil, nil
	}

	out := make(map[string]string)
	i := 0
	for _, field := range bytes.Split(data, []byte{0}) {
		if len(field) == 0 {
			continue
		}
		if i >= len(accessoryInfoFields) {
			break
		}
		out[accessoryInfoFields[i]] = strings.ToValidUTF8(string(field), "�")
		i++
	}
	if fw, ok := out["firmware_ver_1"]; ok {
		out["software_ver"] = fw
	}

	st.PutAll(CategoryInfo, out)
	return nil, nil
}
