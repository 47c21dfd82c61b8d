package connection

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/looplab/fsm"
	"github.com/muurk/budsctl/internal/device"
	"github.com/muurk/budsctl/internal/logging"
	"github.com/muurk/budsctl/internal/profile"
	"github.com/muurk/budsctl/internal/protocol"
	"github.com/muurk/budsctl/internal/store"
	"github.com/muurk/budsctl/internal/transport"
	"go.uber.org/atomic"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// ErrNotConnected is returned by Submit when no session is active.
	ErrNotConnected = errors.New("connection: not connected")
	// ErrAlreadyStarted is returned by Start on a running manager.
	ErrAlreadyStarted = errors.New("connection: manager already started")

	errReconnect = errors.New("connection: reconnect requested")
)

// DefaultResetAfter is the number of consecutive failures after which the
// Bluetooth link is reset through BlueZ.
const DefaultResetAfter = 3

const commandBuffer = 16

// LinkResetter bounces the baseband link of a device.
type LinkResetter interface {
	ResetLink(ctx context.Context, address string) error
}

// Options configures a Manager.
type Options struct {
	Address transport.Address
	// Name is the Bluetooth device name used to pick a profile.
	Name     string
	Registry *profile.Registry
	// Profile overrides name matching when set.
	Profile profile.Builder

	Dialer   transport.Dialer
	Resetter LinkResetter
	// ResetAfter defaults to DefaultResetAfter. Negative disables resets.
	ResetAfter int

	Store   *store.Store
	Capture *transport.Capture

	BackoffBase      time.Duration
	BackoffMax       time.Duration
	HandshakeTimeout time.Duration
}

// Manager maintains the session with one device.
type Manager struct {
	opts  Options
	addr  string
	store *store.Store
	state *fsm.FSM
	retry *backoff.ExponentialBackOff

	// RFCOMM channel that last connected; owned by the worker.
	channel uint8

	running  *atomic.Bool
	failures *atomic.Int32
	kick     chan struct{}

	mu     sync.Mutex
	status Status
	sess   *session
	cancel context.CancelFunc
	done   chan struct{}

	watchMu   sync.Mutex
	watchers  map[int]chan Status
	nextWatch int
}

type session struct {
	cmds chan commandRequest
	done chan struct{}
}

type commandRequest struct {
	cmd   device.Command
	reply chan error
}

type readResult struct {
	data []byte
	err  error
}

// New returns a stopped manager.
func New(opts Options) *Manager {
	if opts.Registry == nil {
		opts.Registry = profile.Default()
	}
	if opts.Dialer == nil {
		opts.Dialer = transport.NewBluetoothDialer()
	}
	if opts.Store == nil {
		opts.Store = store.New()
	}
	if opts.BackoffBase <= 0 {
		opts.BackoffBase = DefaultBackoffBase
	}
	if opts.BackoffMax <= 0 {
		opts.BackoffMax = DefaultBackoffMax
	}
	if opts.HandshakeTimeout <= 0 {
		opts.HandshakeTimeout = transport.HandshakeTimeout
	}
	if opts.ResetAfter == 0 {
		opts.ResetAfter = DefaultResetAfter
	}

	m := &Manager{
		opts:     opts,
		addr:     opts.Address.String(),
		store:    opts.Store,
		retry:    newBackoff(opts.BackoffBase, opts.BackoffMax),
		running:  atomic.NewBool(false),
		failures: atomic.NewInt32(0),
		kick:     make(chan struct{}, 1),
		watchers: make(map[int]chan Status),
	}
	m.status = Status{State: StateDisconnected, Address: m.addr}
	m.state = newStateMachine(fsm.Callbacks{
		"enter_state": func(_ context.Context, e *fsm.Event) {
			m.onEnterState(e.Src, e.Dst)
		},
	})
	writeState(m.store, m.status)
	return m
}

// Store returns the property store the handlers write to.
func (m *Manager) Store() *store.Store {
	return m.store
}

// Start launches the worker. It returns immediately.
func (m *Manager) Start(ctx context.Context) error {
	if !m.running.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	m.mu.Lock()
	m.cancel = cancel
	m.done = done
	m.mu.Unlock()

	logging.Info("Starting connection manager", zap.String("address", m.addr), zap.String("device", m.opts.Name))
	go m.run(ctx, done)
	return nil
}

// Stop cancels any dial, handshake, session or backoff wait. It does not
// wait for the worker; use Wait for that.
func (m *Manager) Stop() {
	m.mu.Lock()
	cancel := m.cancel
	m.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Wait blocks until the worker started by the last Start has exited.
func (m *Manager) Wait() {
	m.mu.Lock()
	done := m.done
	m.mu.Unlock()
	if done != nil {
		<-done
	}
}

// Reconnect drops the current session, or skips the current backoff
// wait, and dials again immediately.
func (m *Manager) Reconnect() {
	select {
	case m.kick <- struct{}{}:
	default:
	}
}

// Status returns the current status.
func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// Watch subscribes to status changes. The current status is delivered
// first. Slow watchers miss intermediate updates.
func (m *Manager) Watch() (<-chan Status, func()) {
	ch := make(chan Status, 8)
	ch <- m.Status()

	m.watchMu.Lock()
	id := m.nextWatch
	m.nextWatch++
	m.watchers[id] = ch
	m.watchMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			m.watchMu.Lock()
			delete(m.watchers, id)
			m.watchMu.Unlock()
			close(ch)
		})
	}
}

// Submit routes a command to the active session and waits until its
// packets are written.
func (m *Manager) Submit(cmd device.Command) error {
	m.mu.Lock()
	sess := m.sess
	m.mu.Unlock()
	if sess == nil {
		return ErrNotConnected
	}

	req := commandRequest{cmd: cmd, reply: make(chan error, 1)}
	select {
	case sess.cmds <- req:
	case <-sess.done:
		return ErrNotConnected
	}

	select {
	case err := <-req.reply:
		return err
	case <-sess.done:
		select {
		case err := <-req.reply:
			return err
		default:
			return ErrNotConnected
		}
	}
}

func (m *Manager) run(ctx context.Context, done chan struct{}) {
	defer func() {
		m.store.ClearExcept(device.CategoryState)
		m.transition(eventStop)
		m.running.Store(false)
		close(done)
	}()

	for ctx.Err() == nil {
		err := m.connectOnce(ctx)
		if ctx.Err() != nil {
			return
		}
		if errors.Is(err, errReconnect) {
			m.transition(eventFail)
			continue
		}
		if !m.waitRetry(ctx, err) {
			return
		}
	}
}

func (m *Manager) connectOnce(ctx context.Context) error {
	p := m.resolveProfile()
	m.updateStatus(func(s *Status) { s.Profile = p.Name })
	m.transition(eventConnect)

	link, err := m.dial(ctx, p)
	if err != nil {
		return err
	}
	defer link.Close()

	if p.Handshake {
		m.transition(eventHandshake)
		if err := transport.Handshake(ctx, link, m.opts.HandshakeTimeout); err != nil {
			return err
		}
	}

	m.retry.Reset()
	m.failures.Store(0)
	m.updateStatus(func(s *Status) {
		s.Attempt = 0
		s.LastError = ""
		s.Err = nil
	})
	// A Reconnect issued while dialing is satisfied by this session.
	select {
	case <-m.kick:
	default:
	}
	m.transition(eventEstablished)

	err = m.serve(ctx, link, p)
	m.store.ClearExcept(device.CategoryState)
	return err
}

func (m *Manager) resolveProfile() *profile.Profile {
	if m.opts.Profile != nil {
		return m.opts.Profile()
	}
	return m.opts.Registry.Match(m.opts.Name, m.addr)
}

// dial connects to the profile's endpoint. RFCOMM profiles fall back to
// the other well-known channel, which is then preferred on later dials.
func (m *Manager) dial(ctx context.Context, p *profile.Profile) (transport.Link, error) {
	t := p.Transport
	if t.Kind == profile.RFCOMM && m.channel != 0 {
		t.Channel = m.channel
	}

	link, err := m.opts.Dialer.Dial(ctx, m.opts.Address, t)
	if err == nil || ctx.Err() != nil {
		return link, err
	}

	alt, ok := t.FallbackChannel()
	if !ok {
		return nil, err
	}
	logging.Info("Trying fallback RFCOMM channel",
		zap.Uint8("from", t.Channel),
		zap.Uint8("to", alt),
		zap.Error(err),
	)
	t.Channel = alt
	link, altErr := m.opts.Dialer.Dial(ctx, m.opts.Address, t)
	if altErr != nil {
		return nil, err
	}
	m.channel = alt
	return link, nil
}

// waitRetry records a failure and sleeps for the next backoff delay. It
// returns false when ctx ends first.
func (m *Manager) waitRetry(ctx context.Context, cause error) bool {
	n := int(m.failures.Inc())
	delay := m.retry.NextBackOff()

	m.updateStatus(func(s *Status) {
		s.Attempt = n
		s.NextRetry = delay
		if cause != nil {
			s.LastError = cause.Error()
			s.Err = cause
		}
	})
	m.transition(eventFail)

	logging.Warn("Connection failed",
		zap.String("address", m.addr),
		zap.Int("attempt", n),
		zap.Duration("retry_in", delay),
		zap.Error(cause),
	)

	if m.opts.Resetter != nil && m.opts.ResetAfter > 0 && n%m.opts.ResetAfter == 0 {
		if err := m.opts.Resetter.ResetLink(ctx, m.addr); err != nil {
			logging.Warn("Link reset failed", zap.String("address", m.addr), zap.Error(err))
		}
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-m.kick:
		return true
	case <-timer.C:
		return true
	}
}

// serve runs one established session until the link fails, ctx ends or a
// reconnect is requested.
func (m *Manager) serve(ctx context.Context, link transport.Link, p *profile.Profile) error {
	codec := transport.NewCodec(p.Transport.Kind)
	disp := device.NewDispatcher(m.store, p.Handlers...)
	if p.Probe {
		disp.SetUnclaimedLevel(zapcore.InfoLevel)
	}

	reads := make(chan readResult, 16)
	stop := make(chan struct{})
	readerDone := make(chan struct{})
	go readLoop(link, reads, stop, readerDone)
	defer func() {
		close(stop)
		link.Close()
		<-readerDone
	}()

	sess := &session{
		cmds: make(chan commandRequest, commandBuffer),
		done: make(chan struct{}),
	}
	m.mu.Lock()
	m.sess = sess
	m.mu.Unlock()
	defer func() {
		m.mu.Lock()
		m.sess = nil
		m.mu.Unlock()
		close(sess.done)
	}()

	for _, pkt := range disp.Init() {
		if err := m.send(link, codec, pkt); err != nil {
			if transport.IsConnectionError(err) {
				return err
			}
			logging.Warn("Dropped initial query", zap.String("command", pkt.ID.String()), zap.Error(err))
		}
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case <-m.kick:
			return errReconnect

		case r := <-reads:
			if r.err != nil {
				return transport.ClassifyError("read", m.addr, r.err)
			}
			if err := m.receive(link, codec, disp, r.data); err != nil {
				return err
			}

		case req := <-sess.cmds:
			err := m.submit(link, codec, disp, req.cmd)
			req.reply <- err
			if transport.IsConnectionError(err) {
				return err
			}
		}
	}
}

func readLoop(link transport.Link, out chan<- readResult, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	buf := make([]byte, transport.ReadBufferSize)
	for {
		n, err := link.Read(buf)
		var r readResult
		switch {
		case n > 0:
			r.data = append([]byte(nil), buf[:n]...)
		case err != nil:
			r.err = err
		default:
			continue
		}

		select {
		case out <- r:
		case <-stop:
			return
		}
		if r.err != nil {
			return
		}
	}
}

func (m *Manager) receive(link transport.Link, codec transport.Codec, disp *device.Dispatcher, data []byte) error {
	pkts, errs := codec.Decode(data)
	for _, err := range errs {
		logging.Warn("Dropped malformed frame",
			zap.String("kind", protocol.KindOf(err).String()),
			zap.Error(err),
		)
	}

	for _, pkt := range pkts {
		if m.opts.Capture != nil {
			if raw, err := codec.Encode(pkt); err == nil {
				m.record(transport.DirectionIn, pkt.ID, raw)
			}
		}
		logging.LogPacket("recv", pkt.ID.String(), pkt.String(), nil)

		replies, _ := disp.Dispatch(pkt)
		for _, reply := range replies {
			if err := m.send(link, codec, reply); err != nil {
				if transport.IsConnectionError(err) {
					return err
				}
				logging.Warn("Dropped handler reply", zap.String("command", reply.ID.String()), zap.Error(err))
			}
		}
	}
	return nil
}

func (m *Manager) submit(link transport.Link, codec transport.Codec, disp *device.Dispatcher, cmd device.Command) error {
	pkts, err := disp.Submit(cmd)
	if err != nil {
		return err
	}
	for _, pkt := range pkts {
		if err := m.send(link, codec, pkt); err != nil {
			return err
		}
	}
	return nil
}

// send encodes and writes one packet. Encoding errors are returned before
// any byte is written.
func (m *Manager) send(link transport.Link, codec transport.Codec, pkt protocol.Packet) error {
	raw, err := codec.Encode(pkt)
	if err != nil {
		return err
	}
	logging.LogPacket("send", pkt.ID.String(), pkt.String(), raw)
	if _, err := link.Write(raw); err != nil {
		return transport.ClassifyError("write", m.addr, err)
	}
	m.record(transport.DirectionOut, pkt.ID, raw)
	return nil
}

func (m *Manager) record(direction string, id protocol.CommandID, raw []byte) {
	if m.opts.Capture == nil {
		return
	}
	if err := m.opts.Capture.Record(direction, id, raw); err != nil {
		logging.Warn("Capture write failed", zap.Error(err))
	}
}

func (m *Manager) transition(event string) {
	err := m.state.Event(context.Background(), event)
	if err == nil {
		return
	}
	var noTransition fsm.NoTransitionError
	if errors.As(err, &noTransition) {
		return
	}
	logging.Warn("Invalid state transition",
		zap.String("event", event),
		zap.String("state", m.state.Current()),
		zap.Error(err),
	)
}

func (m *Manager) onEnterState(from, to string) {
	m.updateStatus(func(s *Status) {
		s.State = State(to)
		if s.State != StateBackoff {
			s.NextRetry = 0
		}
	})
	logging.LogStateChange(m.addr, from, to)
}

func (m *Manager) updateStatus(fn func(*Status)) {
	m.mu.Lock()
	fn(&m.status)
	s := m.status
	m.mu.Unlock()

	writeState(m.store, s)

	m.watchMu.Lock()
	defer m.watchMu.Unlock()
	for _, ch := range m.watchers {
		select {
		case ch <- s:
		default:
		}
	}
}
