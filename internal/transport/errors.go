package transport

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"syscall"
)

// ErrorKind categorizes a connection failure.
type ErrorKind int

const (
	// ErrKindRefused means the device rejected the channel or PSM.
	ErrKindRefused ErrorKind = iota + 1
	// ErrKindHostDown means the device is off, out of range or asleep.
	ErrKindHostDown
	// ErrKindUnreachable means there is no usable adapter or route.
	ErrKindUnreachable
	// ErrKindTimeout means the connect or a read timed out.
	ErrKindTimeout
	// ErrKindBusy means the link is held by another process.
	ErrKindBusy
	// ErrKindPermission means the process may not open Bluetooth sockets.
	ErrKindPermission
	// ErrKindUnsupported means the platform has no Bluetooth sockets.
	ErrKindUnsupported
	// ErrKindClosed means the device closed or reset the link.
	ErrKindClosed
	// ErrKindUnknown covers everything else.
	ErrKindUnknown
)

func (k ErrorKind) String() string {
	switch k {
	case ErrKindRefused:
		return "Connection Refused"
	case ErrKindHostDown:
		return "Host Down"
	case ErrKindUnreachable:
		return "Unreachable"
	case ErrKindTimeout:
		return "Timeout"
	case ErrKindBusy:
		return "Busy"
	case ErrKindPermission:
		return "Permission Denied"
	case ErrKindUnsupported:
		return "Unsupported"
	case ErrKindClosed:
		return "Closed"
	case ErrKindUnknown:
		return "Unknown Error"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

// ErrUnsupported is returned by the dialer on platforms without
// Bluetooth sockets.
var ErrUnsupported = errors.New("bluetooth sockets are not supported on this platform")

// ConnectionError is a classified socket failure.
type ConnectionError struct {
	Kind      ErrorKind
	Op        string // "connect", "read", "write"
	Address   string
	Err       error
	Retryable bool
}

func (e *ConnectionError) Error() string {
	if e.Address != "" {
		return fmt.Sprintf("%s %s: %s: %v", e.Op, e.Address, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// ClassifyError wraps err in a ConnectionError based on its errno. An
// existing ConnectionError is returned unchanged.
func ClassifyError(op, address string, err error) *ConnectionError {
	if err == nil {
		return nil
	}
	var ce *ConnectionError
	if errors.As(err, &ce) {
		return ce
	}

	kind, retryable := classify(err)
	return &ConnectionError{
		Kind:      kind,
		Op:        op,
		Address:   address,
		Err:       err,
		Retryable: retryable,
	}
}

func classify(err error) (ErrorKind, bool) {
	switch {
	case errors.Is(err, ErrUnsupported),
		errors.Is(err, syscall.EAFNOSUPPORT),
		errors.Is(err, syscall.EPROTONOSUPPORT):
		return ErrKindUnsupported, false
	case errors.Is(err, syscall.EACCES), errors.Is(err, syscall.EPERM):
		return ErrKindPermission, false
	case errors.Is(err, syscall.ECONNREFUSED):
		return ErrKindRefused, true
	case errors.Is(err, syscall.EHOSTDOWN):
		return ErrKindHostDown, true
	case errors.Is(err, syscall.EHOSTUNREACH),
		errors.Is(err, syscall.ENETUNREACH),
		errors.Is(err, syscall.ENETDOWN),
		errors.Is(err, syscall.ENODEV):
		return ErrKindUnreachable, true
	case errors.Is(err, syscall.ETIMEDOUT), os.IsTimeout(err):
		return ErrKindTimeout, true
	case errors.Is(err, syscall.EBUSY), errors.Is(err, syscall.EALREADY), errors.Is(err, syscall.EINPROGRESS):
		return ErrKindBusy, true
	case errors.Is(err, io.EOF),
		errors.Is(err, io.ErrUnexpectedEOF),
		errors.Is(err, syscall.ECONNRESET),
		errors.Is(err, syscall.ECONNABORTED),
		errors.Is(err, syscall.EPIPE),
		errors.Is(err, syscall.ENOTCONN):
		return ErrKindClosed, true
	default:
		return ErrKindUnknown, true
	}
}

// IsConnectionError reports whether err is a ConnectionError.
func IsConnectionError(err error) bool {
	var ce *ConnectionError
	return errors.As(err, &ce)
}

// IsRetryable reports whether reconnecting may succeed. Handshake errors
// are retryable; unclassified errors are not.
func IsRetryable(err error) bool {
	var ce *ConnectionError
	if errors.As(err, &ce) {
		return ce.Retryable
	}
	return IsHandshakeError(err)
}

// HandshakeError is a failure while opening an accessory session.
type HandshakeError struct {
	Reason string
	Err    error
}

func (e *HandshakeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("handshake failed: %s: %v", e.Reason, e.Err)
	}
	return "handshake failed: " + e.Reason
}

func (e *HandshakeError) Unwrap() error {
	return e.Err
}

// IsHandshakeError reports whether err is a HandshakeError.
func IsHandshakeError(err error) bool {
	var he *HandshakeError
	return errors.As(err, &he)
}

// GetTroubleshootingHint returns user-facing advice for a dial or session
// error.
func GetTroubleshootingHint(err error) string {
	if IsHandshakeError(err) {
		return strings.Join([]string{
			"The device accepted the connection but did not answer the handshake.",
			"Troubleshooting:",
			"  • Take the earbuds out of the case so they wake up",
			"  • Disconnect and reconnect them from the system Bluetooth settings",
		}, "\n")
	}

	var ce *ConnectionError
	if !errors.As(err, &ce) {
		return "An unexpected error occurred. Please try again."
	}

	switch ce.Kind {
	case ErrKindRefused:
		return strings.Join([]string{
			"The device refused the connection.",
			"Troubleshooting:",
			"  • The profile may use the wrong RFCOMM channel; budsctl retries the other one",
			"  • Make sure the earbuds are paired with this computer",
			"  • Close vendor apps on other devices that may hold the control channel",
		}, "\n")

	case ErrKindHostDown:
		return strings.Join([]string{
			"The device is not responding.",
			"Troubleshooting:",
			"  • Open the case or put the earbuds in your ears",
			"  • Check that the earbuds are connected in the system Bluetooth settings",
			"  • Move closer to the computer",
		}, "\n")

	case ErrKindUnreachable:
		return strings.Join([]string{
			"No Bluetooth adapter can reach the device.",
			"Troubleshooting:",
			"  • Check that Bluetooth is enabled: bluetoothctl show",
			"  • Unblock the adapter: rfkill unblock bluetooth",
		}, "\n")

	case ErrKindTimeout:
		return strings.Join([]string{
			"The device did not respond in time.",
			"Troubleshooting:",
			"  • The earbuds may be asleep in a closed case",
			"  • Reconnect them from the system Bluetooth settings",
		}, "\n")

	case ErrKindBusy:
		return "Another process is using the connection. Stop other budsctl instances or vendor tools."

	case ErrKindPermission:
		return strings.Join([]string{
			"Permission denied opening a Bluetooth socket.",
			"Troubleshooting:",
			"  • Add your user to the bluetooth group",
			"  • Or grant the binary CAP_NET_RAW",
		}, "\n")

	case ErrKindUnsupported:
		return "Bluetooth sockets are only available on Linux with BlueZ."

	case ErrKindClosed:
		return "The device closed the connection. budsctl will reconnect automatically."

	default:
		return "An error occurred. Please check the error message for details."
	}
}

// GetShortErrorMessage returns a one-line description of err.
func GetShortErrorMessage(err error) string {
	if IsHandshakeError(err) {
		return "Device did not complete the handshake"
	}
	var ce *ConnectionError
	if !errors.As(err, &ce) {
		return err.Error()
	}

	switch ce.Kind {
	case ErrKindRefused:
		return "Device refused connection - wrong channel or not paired?"
	case ErrKindHostDown:
		return "Device not responding - is it out of the case?"
	case ErrKindUnreachable:
		return "No Bluetooth adapter available"
	case ErrKindTimeout:
		return "Device not responding (timeout)"
	case ErrKindBusy:
		return "Connection busy"
	case ErrKindPermission:
		return "Permission denied"
	case ErrKindUnsupported:
		return "Bluetooth not supported on this platform"
	case ErrKindClosed:
		return "Connection closed by device"
	default:
		return ce.Err.Error()
	}
}
