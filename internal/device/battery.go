package device

import (
	"strconv"

	"github.com/muurk/budsctl/internal/protocol"
	"github.com/muurk/budsctl/internal/store"
)

// Battery reports the global and per-bud charge levels of framed devices.
type Battery struct {
	withTWS bool
}

// NewBattery returns a battery handler. withTWS enables the per-bud
// (left, right, case) levels.
func NewBattery(withTWS bool) *Battery {
	return &Battery{withTWS: withTWS}
}

func (b *Battery) Name() string { return "battery" }

func (b *Battery) Claims(id protocol.CommandID) bool {
	return claims{CmdBatteryRead, CmdBatteryNotify}.has(id)
}

func (b *Battery) Init() []protocol.Packet {
	return []protocol.Packet{protocol.ReadRequest(CmdBatteryRead, 1, 2, 3)}
}

func (b *Battery) HandlePacket(pkt protocol.Packet, st *store.Store) ([]protocol.Packet, error) {
	out := make(map[string]string)

	global, ok, err := paramByte(pkt, 1)
	if err != nil {
		return nil, err
	}
	if ok {
		out["global"] = strconv.Itoa(int(global))
	}

	if b.withTWS {
		levels, ok, err := paramExact(pkt, 2, 3)
		if err != nil {
			return nil, err
		}
		if ok {
			out["left"] = strconv.Itoa(int(levels[0]))
			out["right"] = strconv.Itoa(int(levels[1]))
			out["case"] = strconv.Itoa(int(levels[2]))
		}
	}

	if charging, ok := pkt.Param(3); ok && len(charging) > 0 {
		isCharging := false
		for _, c := range charging {
			if c == 1 {
				isCharging = true
				break
			}
		}
		out["is_charging"] = strconv.FormatBool(isCharging)
	}

	st.PutAll(CategoryBattery, out)
	return nil, nil
}
