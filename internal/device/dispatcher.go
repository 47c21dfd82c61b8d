package device

import (
	"fmt"

	"github.com/muurk/budsctl/internal/logging"
	"github.com/muurk/budsctl/internal/protocol"
	"github.com/muurk/budsctl/internal/store"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Dispatcher routes packets and commands to an ordered handler list.
type Dispatcher struct {
	handlers  []Handler
	store     *store.Store
	unclaimed zapcore.Level
}

// NewDispatcher binds handlers to the store they write to.
func NewDispatcher(st *store.Store, handlers ...Handler) *Dispatcher {
	return &Dispatcher{
		handlers:  handlers,
		store:     st,
		unclaimed: zapcore.DebugLevel,
	}
}

// SetUnclaimedLevel sets the log level for packets no handler claims.
// Probe profiles raise it to info to surface unknown traffic.
func (d *Dispatcher) SetUnclaimedLevel(level zapcore.Level) {
	d.unclaimed = level
}

// Handlers returns the handlers in dispatch order.
func (d *Dispatcher) Handlers() []Handler {
	return append([]Handler(nil), d.handlers...)
}

// Store returns the store the handlers write to.
func (d *Dispatcher) Store() *store.Store {
	return d.store
}

// Init concatenates the initial queries of every handler.
func (d *Dispatcher) Init() []protocol.Packet {
	var out []protocol.Packet
	for _, h := range d.handlers {
		out = append(out, h.Init()...)
	}
	return out
}

// Claims reports whether any handler claims id.
func (d *Dispatcher) Claims(id protocol.CommandID) bool {
	for _, h := range d.handlers {
		if h.Claims(id) {
			return true
		}
	}
	return false
}

// Dispatch hands pkt to every claiming handler and collects their
// follow-up packets. Faults are logged and returned; they never stop the
// remaining handlers.
func (d *Dispatcher) Dispatch(pkt protocol.Packet) ([]protocol.Packet, []*HandlerFault) {
	var (
		out     []protocol.Packet
		faults  []*HandlerFault
		claimed bool
	)

	for _, h := range d.handlers {
		if !h.Claims(pkt.ID) {
			continue
		}
		claimed = true

		replies, err := d.invoke(h, pkt)
		if err != nil {
			fault := &HandlerFault{Handler: h.Name(), ID: pkt.ID, Err: err}
			logging.Warn("Handler fault",
				zap.String("handler", fault.Handler),
				zap.String("command", pkt.ID.String()),
				zap.Error(err),
			)
			faults = append(faults, fault)
			continue
		}
		out = append(out, replies...)
	}

	if !claimed {
		if ce := logging.GetLogger().Check(d.unclaimed, "Unclaimed packet"); ce != nil {
			ce.Write(zap.String("command", pkt.ID.String()), zap.String("packet", pkt.String()))
		}
	}
	return out, faults
}

func (d *Dispatcher) invoke(h Handler, pkt protocol.Packet) (out []protocol.Packet, err error) {
	defer func() {
		if r := recover(); r != nil {
			out, err = nil, fmt.Errorf("panic: %v", r)
		}
	}()
	return h.HandlePacket(pkt, d.store)
}

// Submit routes a command to the handler named by its group.
func (d *Dispatcher) Submit(cmd Command) (out []protocol.Packet, err error) {
	var named Handler
	for _, h := range d.handlers {
		if h.Name() == cmd.Group {
			named = h
			if _, ok := h.(Setter); ok {
				break
			}
		}
	}
	if named == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownGroup, cmd.Group)
	}
	setter, ok := named.(Setter)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrReadOnly, cmd.Group)
	}

	defer func() {
		if r := recover(); r != nil {
			out, err = nil, &HandlerFault{Handler: cmd.Group, Err: fmt.Errorf("panic: %v", r)}
		}
	}()
	out, err = setter.SetProperty(cmd.Prop, cmd.Value, d.store)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", cmd, err)
	}
	logging.Debug("Command accepted",
		zap.String("command", cmd.String()),
		zap.Int("packets", len(out)),
	)
	return out, nil
}
