package profile

import (
	"fmt"

	"github.com/muurk/budsctl/internal/device"
)

// Kind selects the Bluetooth socket family.
type Kind int

const (
	RFCOMM Kind = iota + 1
	L2CAP
)

func (k Kind) String() string {
	switch k {
	case RFCOMM:
		return "rfcomm"
	case L2CAP:
		return "l2cap"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Well-known endpoints.
const (
	ChannelPrimary   = 1
	ChannelSecondary = 16
	PSMAccessory     = 0x1001
)

// Transport describes where a device listens.
type Transport struct {
	Kind    Kind
	Channel uint8  // RFCOMM only
	PSM     uint16 // L2CAP only
}

func (t Transport) String() string {
	if t.Kind == L2CAP {
		return fmt.Sprintf("l2cap psm 0x%04x", t.PSM)
	}
	return fmt.Sprintf("rfcomm channel %d", t.Channel)
}

// FallbackChannel returns the other well-known RFCOMM channel.
func (t Transport) FallbackChannel() (uint8, bool) {
	if t.Kind != RFCOMM {
		return 0, false
	}
	switch t.Channel {
	case ChannelPrimary:
		return ChannelSecondary, true
	case ChannelSecondary:
		return ChannelPrimary, true
	}
	return 0, false
}

// Profile is the configuration of one device model.
type Profile struct {
	Name      string
	Transport Transport
	// Handshake is set when the device expects the accessory handshake
	// before it sends anything.
	Handshake bool
	// Probe marks the fallback profile used for unknown devices.
	Probe    bool
	Handlers []device.Handler
}

// Groups returns the command groups accepted by the profile's handlers.
func (p *Profile) Groups() []string {
	var out []string
	for _, h := range p.Handlers {
		if _, ok := h.(device.Setter); ok {
			out = append(out, h.Name())
		}
	}
	return out
}
