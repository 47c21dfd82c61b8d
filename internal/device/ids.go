package device

import "github.com/muurk/budsctl/internal/protocol"

// Framed command ids, (service, command).
var (
	CmdDeviceInfo = protocol.Framed(0x01, 0x07)

	CmdBatteryRead   = protocol.Framed(0x01, 0x08)
	CmdBatteryNotify = protocol.Framed(0x01, 0x27)

	CmdANCRead         = protocol.Framed(0x2B, 0x2A)
	CmdANCWrite        = protocol.Framed(0x2B, 0x04)
	CmdANCLegacyNotify = protocol.Framed(0x2B, 0x03)

	CmdAutoPauseRead  = protocol.Framed(0x2B, 0x11)
	CmdAutoPauseWrite = protocol.Framed(0x2B, 0x10)

	CmdDoubleTapRead  = protocol.Framed(0x01, 0x20)
	CmdDoubleTapWrite = protocol.Framed(0x01, 0x1F)
	CmdTripleTapRead  = protocol.Framed(0x01, 0x26)
	CmdTripleTapWrite = protocol.Framed(0x01, 0x25)

	CmdLongTapRead     = protocol.Framed(0x2B, 0x17)
	CmdLongTapANCRead  = protocol.Framed(0x2B, 0x19)
	CmdLongTapWrite    = protocol.Framed(0x2B, 0x16)
	CmdLongTapANCWrite = protocol.Framed(0x2B, 0x18)

	CmdSwipeRead  = protocol.Framed(0x2B, 0x1F)
	CmdSwipeWrite = protocol.Framed(0x2B, 0x1E)

	CmdLowLatency = protocol.Framed(0x2B, 0x6C)

	CmdDualConnectEnabledRead  = protocol.Framed(0x2B, 0x2F)
	CmdDualConnectEnabledWrite = protocol.Framed(0x2B, 0x2E)
	CmdDualConnectEnumerate    = protocol.Framed(0x2B, 0x31)
	CmdDualConnectPreferred    = protocol.Framed(0x2B, 0x32)
	CmdDualConnectExecute      = protocol.Framed(0x2B, 0x33)
	CmdDualConnectChanged      = protocol.Framed(0x2B, 0x36)

	CmdEqualizerRead  = protocol.Framed(0x2B, 0x4A)
	CmdEqualizerWrite = protocol.Framed(0x2B, 0x49)

	CmdSoundQualityRead  = protocol.Framed(0x2B, 0xA3)
	CmdSoundQualityWrite = protocol.Framed(0x2B, 0xA2)
)

// Property categories written by handlers.
const (
	CategoryBattery               = "battery"
	CategoryANC                   = "anc"
	CategoryInfo                  = "info"
	CategoryConfig                = "config"
	CategorySound                 = "sound"
	CategoryAction                = "action"
	CategoryDualConnect           = "dual_connect"
	CategoryEarDetection          = "ear_detection"
	CategoryConversationAwareness = "conversation_awareness"
	CategoryPersonalizedVolume    = "personalized_volume"
	CategoryState                 = "state"
)

// claims is a small set of command ids.
type claims []protocol.CommandID

func (c claims) has(id protocol.CommandID) bool {
	for _, v := range c {
		if v == id {
			return true
		}
	}
	return false
}
