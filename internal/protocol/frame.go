package protocol

import "encoding/binary"

// Framed protocol layout
const (
	FrameSync       = 0x5A // First byte of every frame
	frameReserved   = 0x00 // Byte 3, always zero
	framePrefixSize = 3    // sync + length, not counted by the length field
	frameCRCSize    = 2    // trailing checksum
	frameMinLength  = 3    // reserved + service + command
	MinFrameSize    = 8    // frame without parameters
	MaxTLVValue     = 255  // one-byte TLV length

	// MaxFrameLength caps the length field. Devices never send more, and a
	// larger value is treated as a false sync rather than a partial frame.
	MaxFrameLength = 1000
)

// EncodeFrame serializes a framed packet, including length and checksum.
func EncodeFrame(p Packet) ([]byte, error) {
	if !p.ID.IsFramed() {
		return nil, &EncodingError{ID: p.ID, Reason: "not a framed command"}
	}

	length := frameMinLength
	for _, tlv := range p.Params {
		if len(tlv.Value) > MaxTLVValue {
			return nil, &EncodingError{ID: p.ID, Reason: "parameter value exceeds 255 bytes"}
		}
		length += 2 + len(tlv.Value)
	}
	if length > MaxFrameLength {
		return nil, &EncodingError{ID: p.ID, Reason: "frame length exceeds 1000"}
	}

	frame := make([]byte, 0, framePrefixSize+length+frameCRCSize)
	frame = append(frame, FrameSync)
	frame = binary.BigEndian.AppendUint16(frame, uint16(length))
	frame = append(frame, frameReserved, p.ID.Hi, p.ID.Lo)
	for _, tlv := range p.Params {
		frame = append(frame, tlv.Tag, byte(len(tlv.Value)))
		frame = append(frame, tlv.Value...)
	}
	return binary.BigEndian.AppendUint16(frame, CRC16XModem(frame)), nil
}

// DecodeFrame decodes the frame at the start of buf.
//
// It returns the packet and the number of bytes the frame occupied. A
// Truncated error means buf holds a valid prefix and nothing was consumed.
func DecodeFrame(buf []byte) (Packet, int, error) {
	if len(buf) == 0 {
		return Packet{}, 0, newProtocolError(Truncated, "empty buffer")
	}
	if buf[0] != FrameSync {
		return Packet{}, 0, newProtocolError(BadSync, "got 0x%02x", buf[0])
	}
	if len(buf) < framePrefixSize {
		return Packet{}, 0, newProtocolError(Truncated, "need length field")
	}

	length := int(binary.BigEndian.Uint16(buf[1:3]))
	if length < frameMinLength {
		return Packet{}, 0, newProtocolError(BadSync, "declared length %d below minimum", length)
	}
	if length > MaxFrameLength {
		return Packet{}, 0, newProtocolError(BadSync, "declared length %d above maximum", length)
	}
	if len(buf) > framePrefixSize && buf[framePrefixSize] != frameReserved {
		return Packet{}, 0, newProtocolError(BadSync, "reserved byte 0x%02x", buf[framePrefixSize])
	}
	total := framePrefixSize + length + frameCRCSize
	if len(buf) < total {
		return Packet{}, 0, newProtocolError(Truncated, "have %d of %d bytes", len(buf), total)
	}

	want := binary.BigEndian.Uint16(buf[total-frameCRCSize : total])
	if got := CRC16XModem(buf[:total-frameCRCSize]); got != want {
		return Packet{}, 0, newProtocolError(ChecksumMismatch, "computed %04x, frame carries %04x", got, want)
	}

	pkt := Packet{ID: Framed(buf[4], buf[5])}
	body := buf[6 : total-frameCRCSize]
	for pos := 0; pos < len(body); {
		if pos+2 > len(body) {
			return Packet{}, 0, newProtocolError(MalformedTLV, "header at offset %d overruns frame", pos)
		}
		tag, n := body[pos], int(body[pos+1])
		end := pos + 2 + n
		if end > len(body) {
			return Packet{}, 0, newProtocolError(MalformedTLV, "tag %d value of %d bytes overruns frame", tag, n)
		}
		pkt.Params = append(pkt.Params, TLV{Tag: tag, Value: append([]byte{}, body[pos+2:end]...)})
		pos = end
	}
	return pkt, total, nil
}
