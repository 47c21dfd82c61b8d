package device

import (
	"strconv"
	"strings"

	"github.com/muurk/budsctl/internal/protocol"
	"github.com/muurk/budsctl/internal/store"
)

const (
	eqCustomChunkSize = 36 // [id][count][data...][label NUL]
	eqMaxCustomModes  = 3
	eqPresetPrefix    = "equalizer_preset_"
)

// builtinPresets names the preset ids shared by most models.
var builtinPresets = map[int8]string{
	1: "default",
	2: "hardbass",
	3: "treble",
	9: "voices",
}

// Preset names a built-in equalizer preset of a specific model.
type Preset struct {
	ID   int8
	Name string // e.g. "hardbass", stored as equalizer_preset_hardbass
}

type eqPreset struct {
	id    int8
	label string
	data  []byte // band values; non-nil only for custom presets
}

func (p eqPreset) custom() bool { return p.data != nil }

// Equalizer selects equalizer presets, including user-defined ones on
// models that support them.
type Equalizer struct {
	table      []Preset
	withCustom bool
	builtin    []eqPreset
	custom     []eqPreset
}

// NewEqualizer returns an equalizer handler seeded with the model's
// preset table.
func NewEqualizer(withCustom bool, table ...Preset) *Equalizer {
	e := &Equalizer{table: table, withCustom: withCustom}
	for _, p := range table {
		e.builtin = append(e.builtin, eqPreset{id: p.ID, label: eqPresetPrefix + p.Name})
	}
	return e
}

func (e *Equalizer) Name() string { return "equalizer" }

func (e *Equalizer) Claims(id protocol.CommandID) bool {
	return id == CmdEqualizerRead || id == CmdEqualizerWrite
}

func (e *Equalizer) Init() []protocol.Packet {
	return []protocol.Packet{protocol.ReadRequest(CmdEqualizerRead, 1, 2, 3, 4, 5, 6, 7, 8)}
}

func (e *Equalizer) presetLabel(id int8) string {
	for _, p := range e.table {
		if p.ID == id {
			return eqPresetPrefix + p.Name
		}
	}
	if name, ok := builtinPresets[id]; ok {
		return eqPresetPrefix + name
	}
	return eqPresetPrefix + strconv.Itoa(int(id))
}

func (e *Equalizer) presets() []eqPreset {
	return append(append([]eqPreset{}, e.builtin...), e.custom...)
}

func (e *Equalizer) HandlePacket(pkt protocol.Packet, st *store.Store) ([]protocol.Packet, error) {
	if pkt.ID != CmdEqualizerRead {
		return nil, nil
	}

	current, hasCurrent, err := paramByte(pkt, 2)
	if err != nil {
		return nil, err
	}

	var custom []eqPreset
	raw, hasCustom := pkt.Param(8)
	hasCustom = hasCustom && e.withCustom && len(raw) > 0
	if hasCustom {
		if custom, err = parseCustomPresets(raw); err != nil {
			return nil, err
		}
	}

	if available, ok := pkt.Param(3); ok && len(available) > 0 {
		e.builtin = e.builtin[:0]
		for _, b := range available {
			id := int8(b)
			e.builtin = append(e.builtin, eqPreset{id: id, label: e.presetLabel(id)})
		}
	}
	if hasCustom {
		e.custom = custom
	}

	all := e.presets()
	labels := make([]string, len(all))
	for i, p := range all {
		labels[i] = p.label
	}
	out := map[string]string{
		"equalizer_preset_options":   strings.Join(labels, ","),
		"equalizer_max_custom_modes": "0",
	}
	if e.withCustom {
		out["equalizer_max_custom_modes"] = strconv.Itoa(eqMaxCustomModes)
	}

	if hasCurrent {
		id := int8(current)
		out["equalizer_preset"] = "unknown_" + strconv.Itoa(int(id))
		for _, p := range all {
			if p.id != id {
				continue
			}
			out["equalizer_preset"] = p.label
			if p.custom() {
				rows := make([]string, len(p.data))
				for i, b := range p.data {
					rows[i] = strconv.Itoa(int(int8(b)))
				}
				out["equalizer_rows"] = "[" + strings.Join(rows, ",") + "]"
			}
			break
		}
	}

	st.PutAll(CategorySound, out)
	return nil, nil
}

func parseCustomPresets(raw []byte) ([]eqPreset, error) {
	var out []eqPreset
	for off := 0; off+eqCustomChunkSize <= len(raw); off += eqCustomChunkSize {
		chunk := raw[off : off+eqCustomChunkSize]
		id, count := int8(chunk[0]), int(chunk[1])
		if 2+count > len(chunk) {
			return nil, malformed(8, "custom preset %d declares %d bands", id, count)
		}
		label := chunk[2+count:]
		if i := strings.IndexByte(string(label), 0); i >= 0 {
			label = label[:i]
		}
		name := string(label)
		if name == "" {
			name = "custom_" + strconv.Itoa(int(id))
		}
		out = append(out, eqPreset{
			id:    id,
			label: name,
			data:  append([]byte{}, chunk[2:2+count]...),
		})
	}
	return out, nil
}

// SetProperty accepts "equalizer_preset" with one of the labels listed in
// equalizer_preset_options.
func (e *Equalizer) SetProperty(prop, value string, _ *store.Store) ([]protocol.Packet, error) {
	if prop != "equalizer_preset" {
		return nil, unknownProperty(prop)
	}

	for _, p := range e.presets() {
		if p.label != value {
			continue
		}
		var write protocol.Packet
		if p.custom() {
			write = protocol.WriteRequest(CmdEqualizerWrite,
				protocol.NewTLV(1, byte(p.id)),
				protocol.NewTLV(2, byte(len(p.data))),
				protocol.NewTLV(3, p.data...),
				protocol.NewTLV(4, []byte(value)...),
				protocol.NewTLV(5, 1),
			)
		} else {
			write = protocol.WriteRequest(CmdEqualizerWrite, protocol.NewTLV(1, byte(p.id)))
		}
		return []protocol.Packet{write, e.Init()[0]}, nil
	}
	return nil, invalidValue(prop, value)
}
