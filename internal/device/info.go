package device

import (
	"encoding/hex"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/muurk/budsctl/internal/protocol"
	"github.com/muurk/budsctl/internal/store"
)

// infoFields names the device info parameters we understand. Anything
// else is stored as field_<tag>.
var infoFields = map[byte]string{
	3:  "hardware_ver",
	7:  "software_ver",
	9:  "serial_number",
	10: "device_submodel",
	15: "device_model",
}

// infoPerBudSerial carries "L-<serial>,R-<serial>".
const infoPerBudSerial = 24

// Info reads firmware versions, model and serial numbers.
type Info struct{}

// NewInfo returns the device info handler.
func NewInfo() *Info { return &Info{} }

func (Info) Name() string { return "info" }

func (Info) Claims(id protocol.CommandID) bool { return id == CmdDeviceInfo }

func (Info) Init() []protocol.Packet {
	tags := make([]byte, 32)
	for i := range tags {
		tags[i] = byte(i)
	}
	return []protocol.Packet{protocol.ReadRequest(CmdDeviceInfo, tags...)}
}

func (Info) HandlePacket(pkt protocol.Packet, st *store.Store) ([]protocol.Packet, error) {
	out := make(map[string]string)
	for _, tlv := range pkt.Params {
		if tlv.Tag == infoPerBudSerial && strings.HasPrefix(string(tlv.Value), "L-") && utf8.Valid(tlv.Value) {
			parsePerBudSerial(out, string(tlv.Value))
			continue
		}

		name, ok := infoFields[tlv.Tag]
		if !ok {
			name = "field_" + strconv.Itoa(int(tlv.Tag))
		}
		out[name] = infoString(tlv.Value)
	}

	st.PutAll(CategoryInfo, out)
	return nil, nil
}

func infoString(v []byte) string {
	if utf8.Valid(v) {
		return string(v)
	}
	return hex.EncodeToString(v)
}

func parsePerBudSerial(out map[string]string, s string) {
	left, right, ok := strings.Cut(s, ",")
	if !ok {
		return
	}
	if strings.HasPrefix(left, "L-") {
		out["left_serial_number"] = left[2:]
	}
	if strings.HasPrefix(right, "R-") {
		out["right_serial_number"] = right[2:]
	}
}
