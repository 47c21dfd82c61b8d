package protocol

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a decode failure.
type ErrorKind int

const (
	BadSync ErrorKind = iota + 1
	Truncated
	ChecksumMismatch
	MalformedTLV
	BadPreamble
)

// String returns a human-readable name for the kind.
func (k ErrorKind) String() string {
	switch k {
	case BadSync:
		return "bad sync"
	case Truncated:
		return "truncated"
	case ChecksumMismatch:
		return "checksum mismatch"
	case MalformedTLV:
		return "malformed TLV"
	case BadPreamble:
		return "bad preamble"
	default:
		return "unknown"
	}
}

// ProtocolError reports a frame or datagram that could not be decoded.
type ProtocolError struct {
	Kind   ErrorKind
	Detail string
}

func (e *ProtocolError) Error() string {
	if e.Detail == "" {
		return "protocol: " + e.Kind.String()
	}
	return fmt.Sprintf("protocol: %s: %s", e.Kind, e.Detail)
}

// Is matches another *ProtocolError with the same Kind, so callers can
// write errors.Is(err, &ProtocolError{Kind: Truncated}).
func (e *ProtocolError) Is(target error) bool {
	t, ok := target.(*ProtocolError)
	return ok && t.Kind == e.Kind
}

func newProtocolError(kind ErrorKind, format string, args ...interface{}) *ProtocolError {
	return &ProtocolError{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

// EncodingError reports a packet that cannot be represented on the wire.
type EncodingError struct {
	ID     CommandID
	Reason string
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("protocol: cannot encode %s: %s", e.ID, e.Reason)
}

// KindOf returns the ProtocolError kind carried by err, or 0.
func KindOf(err error) ErrorKind {
	var pe *ProtocolError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return 0
}

// IsTruncated reports whether err means more input is needed.
func IsTruncated(err error) bool {
	return KindOf(err) == Truncated
}

// IsEncodingError reports whether err is an *EncodingError.
func IsEncodingError(err error) bool {
	var ee *EncodingError
	return errors.As(err, &ee)
}
