// Package transport opens Bluetooth links to earbuds and turns their byte
// streams into protocol packets.
//
// # Links
//
// A Link is a connected socket. On Linux the BluetoothDialer opens
// AF_BLUETOOTH sockets directly: RFCOMM stream sockets for framed devices
// and L2CAP sequential packet sockets for accessory devices. Any
// io.ReadWriteCloser with read deadlines works as a Link, which is how
// tests substitute in-memory pipes.
//
// # Codecs
//
// A Codec converts between packets and wire bytes. FramedCodec buffers
// partial frames across reads and resynchronizes on corrupt input.
// AccessoryCodec treats every read as one datagram.
//
// # Errors
//
// Socket failures are classified into ConnectionError values by errno,
// with a Retryable flag and user-facing troubleshooting hints:
//
//	link, err := dialer.Dial(ctx, addr, p.Transport)
//	if err != nil {
//	    fmt.Println(transport.GetShortErrorMessage(err))
//	    fmt.Println(transport.GetTroubleshootingHint(err))
//	}
//
// Accessory sessions must complete the Handshake before any other
// traffic; failures there are reported as HandshakeError.
package transport
