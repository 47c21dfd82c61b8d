package bridge

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/muurk/budsctl/internal/logging"
	"github.com/muurk/budsctl/internal/store"
	"go.uber.org/zap"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 8192

	sendBuffer = 64
)

// client is one websocket peer. Only the write loop writes to conn.
type client struct {
	conn *websocket.Conn
	ctrl Controller
	send chan Message

	closeOnce sync.Once
	done      chan struct{}
}

func newClient(conn *websocket.Conn, ctrl Controller) *client {
	return &client{
		conn: conn,
		ctrl: ctrl,
		send: make(chan Message, sendBuffer),
		done: make(chan struct{}),
	}
}

func (c *client) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.conn.Close()
	})
}

// run serves the client until either side closes.
func (c *client) run() {
	defer c.close()

	changes, unsubscribe := c.ctrl.Store().Subscribe(store.DefaultSubscriberBuffer)
	defer unsubscribe()
	states, unwatch := c.ctrl.Watch()
	defer unwatch()

	// The snapshot is taken after subscribing so no change is lost.
	c.queue(c.snapshot())

	go c.readLoop()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return

		case ch, ok := <-changes:
			if !ok {
				return
			}
			if !c.write(c.changeMessage(ch)) {
				return
			}

		case st, ok := <-states:
			if !ok {
				return
			}
			if !c.write(Message{Type: TypeState, Status: &st}) {
				return
			}

		case msg := <-c.send:
			if !c.write(msg) {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *client) snapshot() Message {
	st := c.ctrl.Status()
	return Message{
		Type:       TypeSnapshot,
		Properties: c.ctrl.Store().Snapshot(),
		Status:     &st,
	}
}

func (c *client) changeMessage(ch store.Change) Message {
	if ch.Kind == store.ChangeCleared {
		return c.snapshot()
	}
	return Message{
		Type:     TypeChange,
		Kind:     ch.Kind.String(),
		Category: ch.Category,
		Key:      ch.Key,
		Value:    ch.Value,
	}
}

func (c *client) write(msg Message) bool {
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.conn.WriteJSON(msg); err != nil {
		logging.Debug("Bridge write failed", zap.Error(err))
		return false
	}
	return true
}

// queue hands a message to the write loop without blocking the reader.
func (c *client) queue(msg Message) {
	select {
	case c.send <- msg:
	case <-c.done:
	default:
		logging.Warn("Bridge client send buffer full, dropping message", zap.String("type", msg.Type))
	}
}

func (c *client) readLoop() {
	defer c.close()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logging.Info("Bridge client closed unexpectedly", zap.Error(err))
			}
			return
		}

		switch msg.Type {
		case TypeCommand:
			cmd := msg.Command()
			err := c.ctrl.Submit(cmd)
			if err != nil {
				logging.Info("Bridge command failed", zap.String("command", cmd.String()), zap.Error(err))
			} else {
				logging.Debug("Bridge command applied", zap.String("command", cmd.String()))
			}
			c.queue(resultMessage(msg.ID, err))

		case TypeSnapshot:
			c.queue(c.snapshot())

		default:
			c.queue(Message{Type: TypeError, ID: msg.ID, Error: "unknown message type " + msg.Type})
		}
	}
}
