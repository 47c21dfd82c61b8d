// Package protocol implements the two wire formats spoken by supported earbuds.
//
// # Framed Protocol
//
// Huawei and HONOR earbuds exchange length-prefixed frames over an RFCOMM
// stream:
//
//	[0]     0x5A           Sync byte (FrameSync)
//	[1-2]   length         Big-endian, counts reserved byte + command + TLVs
//	[3]     0x00           Reserved
//	[4]     service        Command service byte
//	[5]     command        Command byte
//	[6..]   TLVs           [tag:1][len:1][value:len] repeated
//	[N-2:N] crc16          CRC16-XMODEM over bytes [0, N-2), big-endian
//
// A frame without parameters is 8 bytes long and declares length 3.
//
// # Accessory Protocol
//
// AirPods speak AAP over an L2CAP seqpacket channel. Every datagram is one
// message:
//
//	[0-3]   04 00 04 00    Preamble
//	[4]     opcode         Message opcode
//	[5]     0x00           Padding
//	[6..]   payload        Opcode specific
//
// Control commands (opcode 0x09) carry a one-byte subtype followed by a
// four-byte value.
//
// # Command Identifiers
//
// Both protocols are lifted into a single Packet type keyed by CommandID so
// that one handler model serves either family. Accessory messages are
// remapped into a dedicated namespace:
//
//   - general opcode X     -> CommandID{FamilyAccessory, 0xAA, X}
//   - control subtype Y    -> CommandID{FamilyAccessory, 0xA9, Y}
//
// The payload is exposed as the value of TLV tag 0. Because the family is
// part of the identifier, a framed id never compares equal to an accessory
// id, even when the two bytes match.
//
// # Usage Example - Decoding a Stream
//
//	dec := protocol.NewStreamDecoder()
//	dec.Feed(chunk)
//	for {
//	    pkt, ok, err := dec.Next()
//	    if err != nil {
//	        log.Printf("dropped frame: %v", err)
//	        continue
//	    }
//	    if !ok {
//	        break
//	    }
//	    handle(pkt)
//	}
//
// # Usage Example - Construction
//
//	pkt := protocol.ReadRequest(protocol.Framed(0x01, 0x08), 1, 2, 3)
//	frame, err := protocol.EncodeFrame(pkt)
//
// # Error Handling
//
// Decode failures are reported as *ProtocolError with a Kind describing
// the failure. Encode failures are *EncodingError and are always raised
// before any I/O happens.
//
// # Thread Safety
//
// All encode and decode functions are stateless and safe for concurrent
// use. A StreamDecoder must be owned by a single goroutine.
package protocol
