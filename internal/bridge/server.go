package bridge

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/muurk/budsctl/internal/connection"
	"github.com/muurk/budsctl/internal/device"
	"github.com/muurk/budsctl/internal/logging"
	"github.com/muurk/budsctl/internal/store"
	"github.com/muurk/budsctl/internal/version"
	"go.uber.org/zap"
)

// DefaultShutdownTimeout bounds Shutdown when ctx has no deadline.
const DefaultShutdownTimeout = 10 * time.Second

// Controller is the part of connection.Manager the bridge drives.
type Controller interface {
	Store() *store.Store
	Status() connection.Status
	Watch() (<-chan connection.Status, func())
	Submit(cmd device.Command) error
}

// Config holds the bridge configuration
type Config struct {
	// Listen is a host:port; port 0 picks a free one.
	Listen string
	// AllowedOrigins restricts browser clients. Empty allows any origin.
	AllowedOrigins []string
	// TLS, when set, serves wss:// instead of ws://.
	TLS *tls.Config
}

// Server serves the websocket bridge.
type Server struct {
	config   Config
	ctrl     Controller
	upgrader websocket.Upgrader
	http     *http.Server
	listener net.Listener

	wg          sync.WaitGroup
	mu          sync.Mutex
	activeConns map[string]*client
}

// New creates a bridge for ctrl.
func New(config Config, ctrl Controller) *Server {
	s := &Server{
		config:      config,
		ctrl:        ctrl,
		activeConns: make(map[string]*client),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkOrigin,
	}
	s.http = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Handler returns the HTTP routes of the bridge.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/status", s.handleStatus)
	return mux
}

// Listen binds the listener. Serve must be called afterwards.
func (s *Server) Listen() error {
	listener, err := net.Listen("tcp", s.config.Listen)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.Listen, err)
	}
	if s.config.TLS != nil {
		listener = tls.NewListener(listener, s.config.TLS)
	}
	s.listener = listener
	logging.Info("Bridge listening",
		zap.String("addr", listener.Addr().String()),
		zap.String("scheme", s.Scheme()),
	)
	return nil
}

// Scheme returns "wss" when TLS is configured and "ws" otherwise.
func (s *Server) Scheme() string {
	if s.config.TLS != nil {
		return "wss"
	}
	return "ws"
}

// Addr returns the bound address, or nil before Listen.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Port returns the bound TCP port.
func (s *Server) Port() int {
	if tcp, ok := s.Addr().(*net.TCPAddr); ok {
		return tcp.Port
	}
	return 0
}

// Serve accepts connections until ctx ends, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context) error {
	if s.listener == nil {
		if err := s.Listen(); err != nil {
			return err
		}
	}

	errChan := make(chan error, 1)
	go func() {
		errChan <- s.http.Serve(s.listener)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), DefaultShutdownTimeout)
		defer cancel()
		return s.Shutdown(shutdownCtx)
	case err := <-errChan:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// Shutdown stops accepting connections, closes every client and waits for
// their goroutines.
func (s *Server) Shutdown(ctx context.Context) error {
	logging.Info("Shutting down bridge...")

	err := s.http.Shutdown(ctx)

	s.mu.Lock()
	for addr, c := range s.activeConns {
		logging.Debug("Closing bridge client", zap.String("remote_addr", addr))
		c.close()
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		logging.Info("All bridge clients closed")
	case <-ctx.Done():
		logging.Warn("Bridge shutdown timeout, forcing close")
	}
	return err
}

// GetActiveConnections returns the number of connected clients
func (s *Server) GetActiveConnections() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.activeConns)
}

func (s *Server) checkOrigin(r *http.Request) bool {
	if len(s.config.AllowedOrigins) == 0 {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range s.config.AllowedOrigins {
		if origin == allowed {
			return true
		}
	}
	return false
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Server", "budsctl/"+version.Version)
	if err := json.NewEncoder(w).Encode(s.ctrl.Status()); err != nil {
		logging.Warn("Failed to write status", zap.Error(err))
	}
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Warn("WebSocket upgrade failed",
			zap.String("remote_addr", r.RemoteAddr),
			zap.Error(err),
		)
		return
	}

	c := newClient(conn, s.ctrl)
	remoteAddr := r.RemoteAddr

	s.mu.Lock()
	s.activeConns[remoteAddr] = c
	s.mu.Unlock()

	s.wg.Add(1)
	defer func() {
		s.mu.Lock()
		delete(s.activeConns, remoteAddr)
		s.mu.Unlock()
		s.wg.Done()
		logging.Info("Bridge client disconnected", zap.String("remote_addr", remoteAddr))
	}()

	logging.Info("Bridge client connected", zap.String("remote_addr", remoteAddr))
	c.run()
}
