package protocol

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// TLV is a single tagged parameter. Duplicate tags are legal and keep
// their received order.
type TLV struct {
	Tag   byte
	Value []byte
}

// NewTLV builds a parameter from a tag and its value bytes.
func NewTLV(tag byte, value ...byte) TLV {
	return TLV{Tag: tag, Value: append([]byte{}, value...)}
}

// Packet is a decoded command with its parameters.
//
// Packets are treated as immutable: constructors copy their inputs and
// accessors hand out copies.
type Packet struct {
	ID     CommandID
	Params []TLV
}

// NewPacket builds a packet, copying every parameter value.
func NewPacket(id CommandID, params ...TLV) Packet {
	p := Packet{ID: id}
	if len(params) > 0 {
		p.Params = make([]TLV, len(params))
		for i, tlv := range params {
			p.Params[i] = NewTLV(tlv.Tag, tlv.Value...)
		}
	}
	return p
}

// ReadRequest builds a query for the given tags. Every value is empty.
func ReadRequest(id CommandID, tags ...byte) Packet {
	p := Packet{ID: id}
	for _, t := range tags {
		p.Params = append(p.Params, TLV{Tag: t, Value: []byte{}})
	}
	return p
}

// WriteRequest builds a packet carrying the given parameters.
func WriteRequest(id CommandID, params ...TLV) Packet {
	return NewPacket(id, params...)
}

// Param returns a copy of the first value stored under tag.
func (p Packet) Param(tag byte) ([]byte, bool) {
	for _, tlv := range p.Params {
		if tlv.Tag == tag {
			return append([]byte{}, tlv.Value...), true
		}
	}
	return nil, false
}

// ParamAll returns copies of every value stored under tag, in order.
func (p Packet) ParamAll(tag byte) [][]byte {
	var out [][]byte
	for _, tlv := range p.Params {
		if tlv.Tag == tag {
			out = append(out, append([]byte{}, tlv.Value...))
		}
	}
	return out
}

// Has reports whether tag is present, even with an empty value.
func (p Packet) Has(tag byte) bool {
	_, ok := p.Param(tag)
	return ok
}

// Tags lists the parameter tags in wire order.
func (p Packet) Tags() []byte {
	tags := make([]byte, 0, len(p.Params))
	for _, tlv := range p.Params {
		tags = append(tags, tlv.Tag)
	}
	return tags
}

// String returns a compact form such as "01:08 p1=64 p2=504e00".
func (p Packet) String() string {
	var sb strings.Builder
	sb.WriteString(p.ID.String())
	for _, tlv := range p.Params {
		fmt.Fprintf(&sb, " p%d=%s", tlv.Tag, hex.EncodeToString(tlv.Value))
	}
	return sb.String()
}
