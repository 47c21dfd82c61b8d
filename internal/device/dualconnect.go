package device

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/muurk/budsctl/internal/protocol"
	"github.com/muurk/budsctl/internal/store"
)

// Dual connect execute codes, sent as the TLV tag of 2B:33.
const (
	dualConnectConnect     = 1
	dualConnectDisconnect  = 2
	dualConnectUnpair      = 3
	dualConnectEnableAuto  = 4
	dualConnectDisableAuto = 5
)

var dualConnectActions = map[string]byte{
	"connect":      dualConnectConnect,
	"disconnect":   dualConnectDisconnect,
	"unpair":       dualConnectUnpair,
	"enable_auto":  dualConnectEnableAuto,
	"disable_auto": dualConnectDisableAuto,
}

// PairedDevice is one entry of the dual_connect.devices JSON property.
type PairedDevice struct {
	Name        string `json:"name"`
	Connected   bool   `json:"connected"`
	Playing     bool   `json:"playing"`
	AutoConnect bool   `json:"auto_connect"`
	preferred   bool
}

// DualConnect manages the list of hosts the earbuds are paired with.
//
// Devices are reported one per enumeration reply; the list is published
// once every announced entry has arrived.
type DualConnect struct {
	pending map[int]dualConnectEntry
	count   int
}

type dualConnectEntry struct {
	mac string
	dev PairedDevice
}

// NewDualConnect returns the dual connect handler.
func NewDualConnect() *DualConnect {
	return &DualConnect{pending: make(map[int]dualConnectEntry)}
}

func (d *DualConnect) Name() string { return "dual_connect" }

func (d *DualConnect) Claims(id protocol.CommandID) bool {
	return claims{
		CmdDualConnectEnabledRead,
		CmdDualConnectEnumerate,
		CmdDualConnectChanged,
		CmdDualConnectEnabledWrite,
		CmdDualConnectPreferred,
		CmdDualConnectExecute,
	}.has(id)
}

func (d *DualConnect) enumerate() protocol.Packet {
	d.pending = make(map[int]dualConnectEntry)
	d.count = 0
	return protocol.WriteRequest(CmdDualConnectEnumerate, protocol.NewTLV(1))
}

func (d *DualConnect) Init() []protocol.Packet {
	return []protocol.Packet{
		protocol.ReadRequest(CmdDualConnectEnabledRead, 1),
		d.enumerate(),
	}
}

func (d *DualConnect) HandlePacket(pkt protocol.Packet, st *store.Store) ([]protocol.Packet, error) {
	switch pkt.ID {
	case CmdDualConnectEnabledRead:
		v, ok, err := paramByte(pkt, 1)
		if err != nil || !ok {
			return nil, err
		}
		st.Put(CategoryDualConnect, "enabled", strconv.FormatBool(v == 1))
		return nil, nil

	case CmdDualConnectChanged:
		return []protocol.Packet{d.enumerate()}, nil

	case CmdDualConnectEnumerate:
		return nil, d.handleEntry(pkt, st)

	default:
		// Write acknowledgements.
		return nil, nil
	}
}

func (d *DualConnect) handleEntry(pkt protocol.Packet, st *store.Store) error {
	mac, ok := pkt.Param(4)
	if !ok {
		return nil
	}
	if len(mac) < 6 {
		return malformed(4, "mac of %d bytes", len(mac))
	}

	name, _ := pkt.Param(5)
	if i := strings.IndexByte(string(name), 0); i >= 0 {
		name = name[:i]
	}
	status, _ := pkt.Param(6)
	preferred, _ := pkt.Param(7)
	auto, _ := pkt.Param(8)

	index := 0
	if v, ok := pkt.Param(3); ok && len(v) > 0 {
		index = int(int8(v[0]))
	}
	if v, ok := pkt.Param(2); ok && len(v) > 0 {
		d.count = int(int8(v[0]))
	}

	d.pending[index] = dualConnectEntry{
		mac: hex.EncodeToString(mac[:6]),
		dev: PairedDevice{
			Name:        string(name),
			Connected:   byteAt(status, 0) == 1,
			Playing:     byteAt(status, 1) == 1,
			AutoConnect: byteAt(auto, 0) == 1,
			preferred:   byteAt(preferred, 0) == 1,
		},
	}

	if len(d.pending) >= d.count {
		return d.publish(st)
	}
	return nil
}

func (d *DualConnect) publish(st *store.Store) error {
	devices := make(map[string]PairedDevice)
	preferred := ""
	for i := 0; i < d.count; i++ {
		e, ok := d.pending[i]
		if !ok {
			continue
		}
		devices[e.mac] = e.dev
		if e.dev.preferred {
			preferred = e.mac
		}
	}

	data, err := json.Marshal(devices)
	if err != nil {
		return fmt.Errorf("encode devices: %w", err)
	}
	st.PutAll(CategoryDualConnect, map[string]string{
		"devices":          string(data),
		"preferred_device": preferred,
	})
	return nil
}

// SetProperty accepts:
//   - enabled: true/false
//   - preferred_device: mac
//   - <mac>:connected, <mac>:auto_connect: true/false
//   - <mac>:name with an empty value, which unpairs the host
//   - <mac>: connect, disconnect, unpair, enable_auto or disable_auto
func (d *DualConnect) SetProperty(prop, value string, _ *store.Store) ([]protocol.Packet, error) {
	switch prop {
	case "enabled":
		on, err := parseBool(prop, value)
		if err != nil {
			return nil, err
		}
		return []protocol.Packet{
			protocol.WriteRequest(CmdDualConnectEnabledWrite, protocol.NewTLV(1, boolByte(on))),
		}, nil

	case "preferred_device":
		mac, err := ParseMAC(value)
		if err != nil {
			return nil, invalidValue(prop, value)
		}
		return []protocol.Packet{
			protocol.WriteRequest(CmdDualConnectPreferred, protocol.NewTLV(1, mac...)),
		}, nil
	}

	mac, sub, hasSub, err := splitDeviceProp(prop)
	if err != nil {
		return nil, unknownProperty(prop)
	}

	var code byte
	switch {
	case !hasSub:
		c, ok := dualConnectActions[value]
		if !ok {
			return nil, invalidValue(prop, value)
		}
		code = c
	case sub == "connected" && value == "true":
		code = dualConnectConnect
	case sub == "connected" && value == "false":
		code = dualConnectDisconnect
	case sub == "auto_connect" && value == "true":
		code = dualConnectEnableAuto
	case sub == "auto_connect" && value == "false":
		code = dualConnectDisableAuto
	case sub == "name" && value == "":
		code = dualConnectUnpair
	default:
		return nil, invalidValue(prop, value)
	}
	return []protocol.Packet{
		protocol.WriteRequest(CmdDualConnectExecute, protocol.NewTLV(code, mac...)),
	}, nil
}

// splitDeviceProp splits "<mac>" or "<mac>:<sub>", where the mac itself
// may be colon-separated.
func splitDeviceProp(prop string) (mac []byte, sub string, hasSub bool, err error) {
	if mac, err = ParseMAC(prop); err == nil {
		return mac, "", false, nil
	}
	i := strings.LastIndexByte(prop, ':')
	if i < 0 {
		return nil, "", false, err
	}
	if mac, err = ParseMAC(prop[:i]); err != nil {
		return nil, "", false, err
	}
	return mac, prop[i+1:], true, nil
}

// ParseMAC accepts "aabbccddeeff", "AA:BB:CC:DD:EE:FF" or dash-separated
// forms and returns the six address bytes in display order.
func ParseMAC(s string) ([]byte, error) {
	clean := strings.NewReplacer(":", "", "-", "").Replace(s)
	if len(clean) != 12 {
		return nil, fmt.Errorf("invalid mac %q", s)
	}
	mac, err := hex.DecodeString(clean)
	if err != nil {
		return nil, fmt.Errorf("invalid mac %q: %w", s, err)
	}
	return mac, nil
}

func byteAt(b []byte, i int) byte {
	if i < len(b) {
		return b[i]
	}
	return 0
}
