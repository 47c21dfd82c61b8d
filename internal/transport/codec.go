package transport

import (
	"github.com/muurk/budsctl/internal/profile"
	"github.com/muurk/budsctl/internal/protocol"
)

// Codec converts between packets and the bytes of one link.
type Codec interface {
	Encode(p protocol.Packet) ([]byte, error)
	// Decode consumes the bytes of one read. It returns every complete
	// packet and every protocol error met along the way.
	Decode(chunk []byte) ([]protocol.Packet, []error)
	Reset()
}

// NewCodec returns the codec for a transport kind.
func NewCodec(kind profile.Kind) Codec {
	if kind == profile.L2CAP {
		return AccessoryCodec{}
	}
	return NewFramedCodec()
}

// FramedCodec handles the framed protocol on a stream socket.
type FramedCodec struct {
	dec *protocol.StreamDecoder
}

func NewFramedCodec() *FramedCodec {
	return &FramedCodec{dec: protocol.NewStreamDecoder()}
}

func (c *FramedCodec) Encode(p protocol.Packet) ([]byte, error) {
	return protocol.EncodeFrame(p)
}

func (c *FramedCodec) Decode(chunk []byte) ([]protocol.Packet, []error) {
	c.dec.Feed(chunk)

	var (
		pkts []protocol.Packet
		errs []error
	)
	for {
		pkt, ok, err := c.dec.Next()
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if !ok {
			return pkts, errs
		}
		pkts = append(pkts, pkt)
	}
}

// Buffered returns the bytes held back waiting for the rest of a frame.
func (c *FramedCodec) Buffered() int {
	return c.dec.Buffered()
}

func (c *FramedCodec) Reset() {
	c.dec.Reset()
}

// AccessoryCodec handles the accessory protocol on a packet socket, where
// each read returns exactly one datagram.
type AccessoryCodec struct{}

func (AccessoryCodec) Encode(p protocol.Packet) ([]byte, error) {
	return protocol.EncodeAccessory(p)
}

func (AccessoryCodec) Decode(chunk []byte) ([]protocol.Packet, []error) {
	if len(chunk) == 0 {
		return nil, nil
	}
	pkt, err := protocol.DecodeAccessory(chunk)
	if err != nil {
		return nil, []error{err}
	}
	return []protocol.Packet{pkt}, nil
}

func (AccessoryCodec) Reset() {}
