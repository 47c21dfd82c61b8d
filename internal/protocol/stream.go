package protocol

import "bytes"

// StreamDecoder reassembles frames from an RFCOMM byte stream.
//
// Bytes may arrive split or coalesced arbitrarily. Feed appends them and
// Next yields complete packets in arrival order.
type StreamDecoder struct {
	buf []byte
}

// NewStreamDecoder returns an empty decoder.
func NewStreamDecoder() *StreamDecoder {
	return &StreamDecoder{}
}

// Feed appends raw stream bytes.
func (d *StreamDecoder) Feed(data []byte) {
	d.buf = append(d.buf, data...)
}

// Buffered returns the number of bytes waiting for a complete frame.
func (d *StreamDecoder) Buffered() int {
	return len(d.buf)
}

// Reset discards all buffered bytes.
func (d *StreamDecoder) Reset() {
	d.buf = d.buf[:0]
}

// Next decodes the next complete frame.
//
// It returns ok=false with a nil error when more bytes are needed. Any
// other decode failure drops the offending sync byte, skips ahead to the
// next candidate sync byte, and returns the error. Calling Next again
// continues with the remaining bytes.
func (d *StreamDecoder) Next() (Packet, bool, error) {
	if len(d.buf) == 0 {
		return Packet{}, false, nil
	}

	pkt, n, err := DecodeFrame(d.buf)
	if err == nil {
		d.consume(n)
		return pkt, true, nil
	}
	if IsTruncated(err) {
		return Packet{}, false, nil
	}

	if i := bytes.IndexByte(d.buf[1:], FrameSync); i >= 0 {
		d.consume(i + 1)
	} else {
		d.Reset()
	}
	return Packet{}, false, err
}

func (d *StreamDecoder) consume(n int) {
	d.buf = append(d.buf[:0], d.buf[n:]...)
}
