package device

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/muurk/budsctl/internal/protocol"
	"github.com/muurk/budsctl/internal/store"
)

// Handler decodes the packets of one feature into properties.
type Handler interface {
	// Name identifies the handler and is the command group it answers to.
	Name() string
	// Claims reports whether the handler processes packets with this id.
	Claims(id protocol.CommandID) bool
	// Init returns the queries to send once a session is established.
	Init() []protocol.Packet
	// HandlePacket applies a claimed packet to the store and returns any
	// follow-up packets to send. It must not write to the store when it
	// returns an error.
	HandlePacket(pkt protocol.Packet, st *store.Store) ([]protocol.Packet, error)
}

// Setter is implemented by handlers that accept semantic commands.
type Setter interface {
	Handler
	SetProperty(prop, value string, st *store.Store) ([]protocol.Packet, error)
}

// Command is a semantic request from a front-end.
type Command struct {
	Group string `json:"group"`
	Prop  string `json:"prop"`
	Value string `json:"value"`
}

func (c Command) String() string {
	return fmt.Sprintf("%s.%s=%s", c.Group, c.Prop, c.Value)
}

var (
	// ErrUnknownGroup is returned when no handler answers to a command group.
	ErrUnknownGroup = errors.New("device: unknown command group")
	// ErrReadOnly is returned when the group's handler accepts no commands.
	ErrReadOnly = errors.New("device: handler does not accept commands")
	// ErrUnknownProperty is returned for a property the handler cannot set.
	ErrUnknownProperty = errors.New("device: unknown property")
	// ErrInvalidValue is returned for a value outside the property's options.
	ErrInvalidValue = errors.New("device: invalid value")
	// ErrMalformed is returned when a parameter has an unexpected shape.
	ErrMalformed = errors.New("device: malformed parameter")
)

// HandlerFault records a handler that failed on a packet.
type HandlerFault struct {
	Handler string
	ID      protocol.CommandID
	Err     error
}

func (f *HandlerFault) Error() string {
	return fmt.Sprintf("handler %s failed on %s: %v", f.Handler, f.ID, f.Err)
}

func (f *HandlerFault) Unwrap() error {
	return f.Err
}

// IsHandlerFault reports whether err is a *HandlerFault.
func IsHandlerFault(err error) bool {
	var hf *HandlerFault
	return errors.As(err, &hf)
}

func malformed(tag byte, format string, args ...interface{}) error {
	return fmt.Errorf("%w: p%d: %s", ErrMalformed, tag, fmt.Sprintf(format, args...))
}

func invalidValue(prop, value string) error {
	return fmt.Errorf("%w: %s=%q", ErrInvalidValue, prop, value)
}

func unknownProperty(prop string) error {
	return fmt.Errorf("%w: %s", ErrUnknownProperty, prop)
}

// paramByte returns a single-byte parameter. A present parameter of any
// other length is an error.
func paramByte(pkt protocol.Packet, tag byte) (byte, bool, error) {
	v, ok := pkt.Param(tag)
	if !ok {
		return 0, false, nil
	}
	if len(v) != 1 {
		return 0, false, malformed(tag, "want 1 byte, got %d", len(v))
	}
	return v[0], true, nil
}

// paramExact returns a parameter that must be exactly n bytes long.
func paramExact(pkt protocol.Packet, tag byte, n int) ([]byte, bool, error) {
	v, ok := pkt.Param(tag)
	if !ok {
		return nil, false, nil
	}
	if len(v) != n {
		return nil, false, malformed(tag, "want %d bytes, got %d", n, len(v))
	}
	return v, true, nil
}

// parseBool accepts the strings front-ends send for toggles.
func parseBool(prop, value string) (bool, error) {
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, invalidValue(prop, value)
	}
	return b, nil
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}

// option maps a signed wire value to its option name.
type option struct {
	value int8
	name  string
}

type options []option

func (o options) name(v int8) string {
	for _, opt := range o {
		if opt.value == v {
			return opt.name
		}
	}
	return "unknown"
}

func (o options) value(name string) (int8, bool) {
	for _, opt := range o {
		if opt.name == name {
			return opt.value, true
		}
	}
	return 0, false
}

func (o options) names() []string {
	out := make([]string, len(o))
	for i, opt := range o {
		out[i] = opt.name
	}
	return out
}
