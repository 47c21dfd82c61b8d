package protocol

import "bytes"

// Accessory protocol opcodes
const (
	OpBatteryInfo           = 0x04 // Battery levels and charge state
	OpEarDetection          = 0x06 // In-ear state of both buds
	OpControlCommand        = 0x09 // Control command, subtype in payload[0]
	OpRequestNotifications  = 0x0F // Subscribe to notifications
	OpDeviceInfo            = 0x1D // NUL-separated identity strings
	OpConversationAwareness = 0x4B // Speaking detection events
	OpSetFeatureFlags       = 0x4D // Enable optional features
)

// Control command subtypes (opcode 0x09)
const (
	CtrlEarDetectionConfig = 0x0A
	CtrlListeningMode      = 0x0D
	CtrlListeningConfigs   = 0x1A
	CtrlOneBudANC          = 0x1B
	CtrlAdaptiveVolume     = 0x26
	CtrlConversationDetect = 0x28
	CtrlAutoANCStrength    = 0x2E
)

const (
	accessoryHeaderSize = 6 // preamble + opcode + padding
	controlMinSize      = 7 // header + subtype
)

var accessoryPreamble = []byte{0x04, 0x00, 0x04, 0x00}

// DecodeAccessory decodes one L2CAP datagram.
//
// General opcodes carry the whole payload in TLV 0. Control commands carry
// the bytes following the subtype.
func DecodeAccessory(datagram []byte) (Packet, error) {
	n := len(datagram)
	if n > len(accessoryPreamble) {
		n = len(accessoryPreamble)
	}
	if !bytes.Equal(datagram[:n], accessoryPreamble[:n]) {
		return Packet{}, newProtocolError(BadPreamble, "got % x", datagram[:n])
	}
	if len(datagram) < accessoryHeaderSize {
		return Packet{}, newProtocolError(Truncated, "datagram of %d bytes", len(datagram))
	}

	opcode := datagram[4]
	if opcode != OpControlCommand {
		return NewPacket(General(opcode), NewTLV(0, datagram[accessoryHeaderSize:]...)), nil
	}
	if len(datagram) < controlMinSize {
		return Packet{}, newProtocolError(Truncated, "control command without subtype")
	}
	return NewPacket(Control(datagram[6]), NewTLV(0, datagram[controlMinSize:]...)), nil
}

// EncodeAccessory serializes an accessory packet into one datagram.
func EncodeAccessory(p Packet) ([]byte, error) {
	opcode, subtype, ok := Unmap(p.ID)
	if !ok {
		return nil, &EncodingError{ID: p.ID, Reason: "not an accessory command"}
	}
	payload, _ := p.Param(0)

	out := make([]byte, 0, controlMinSize+len(payload))
	out = append(out, accessoryPreamble...)
	out = append(out, opcode, 0x00)
	if opcode == OpControlCommand {
		out = append(out, subtype)
	}
	return append(out, payload...), nil
}

// Remap lifts an accessory opcode, and the subtype for control commands,
// into a CommandID.
func Remap(opcode, subtype byte) CommandID {
	if opcode == OpControlCommand {
		return Control(subtype)
	}
	return General(opcode)
}

// Unmap is the inverse of Remap. The subtype is zero for general opcodes.
// It reports false for framed ids, unknown namespaces, and the general
// namespace entry for 0x09, which only exists as control subtypes.
func Unmap(id CommandID) (opcode, subtype byte, ok bool) {
	if !id.IsAccessory() {
		return 0, 0, false
	}
	switch id.Hi {
	case NamespaceGeneral:
		if id.Lo == OpControlCommand {
			return 0, 0, false
		}
		return id.Lo, 0, true
	case NamespaceControl:
		return OpControlCommand, id.Lo, true
	}
	return 0, 0, false
}

// ControlCommand builds a control command carrying a single value byte.
func ControlCommand(subtype, value byte) Packet {
	return NewPacket(Control(subtype), NewTLV(0, value, 0x00, 0x00, 0x00))
}

// HandshakePacket returns the session opening datagram. It uses a
// different preamble from every other message.
func HandshakePacket() []byte {
	return []byte{
		0x00, 0x00, 0x04, 0x00, 0x01, 0x00, 0x02, 0x00,
		0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	}
}

// FeatureFlagsPacket enables conversation awareness and adaptive modes.
func FeatureFlagsPacket() []byte {
	return append(append([]byte{}, accessoryPreamble...),
		OpSetFeatureFlags, 0x00, 0xFF, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00)
}

// NotificationRequestPacket subscribes to every notification.
func NotificationRequestPacket() []byte {
	return append(append([]byte{}, accessoryPreamble...),
		OpRequestNotifications, 0x00, 0xFF, 0xFF, 0xFE, 0xFF)
}
