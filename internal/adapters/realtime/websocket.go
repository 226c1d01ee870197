package realtime

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/okian/physio/internal/session"
	"github.com/okian/physio/pkg/logger"
)

const (
	// writeWait is the deadline for a single frame write.
	writeWait = 10 * time.Second
	// pongWait bounds how long a connection may stay silent.
	pongWait = 60 * time.Second
	// pingPeriod must be shorter than pongWait.
	pingPeriod = (pongWait * 9) / 10
	// defaultMaxPayload caps a single inbound frame.
	defaultMaxPayload = 256 << 10
	// sendBuffer is the per-connection outbound queue depth. A full
	// queue fails the send instead of blocking the hub.
	sendBuffer = 64
)

// wsConn adapts a gorilla websocket to the Conn interface. All writes
// go through a single pump goroutine; Send only enqueues.
type wsConn struct {
	ws   *websocket.Conn
	send chan Envelope
	done chan struct{}
	once sync.Once
}

func newWSConn(ws *websocket.Conn) *wsConn {
	c := &wsConn{
		ws:   ws,
		send: make(chan Envelope, sendBuffer),
		done: make(chan struct{}),
	}
	go c.writePump()
	return c
}

func (c *wsConn) shutdown() {
	c.once.Do(func() { close(c.done) })
}

// Send enqueues env for the write pump. It never blocks: a saturated
// queue returns ErrSendBuffer and the hub drops the connection.
func (c *wsConn) Send(ctx context.Context, env Envelope) error {
	select {
	case <-c.done:
		return ErrConnClosed
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	select {
	case c.send <- env:
		return nil
	default:
		return ErrSendBuffer
	}
}

// Close stops the write pump and closes the underlying socket.
func (c *wsConn) Close() error {
	c.shutdown()
	return c.ws.Close()
}

func (c *wsConn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case env := <-c.send:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteJSON(env); err != nil {
				c.shutdown()
				return
			}
		case <-ticker.C:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.shutdown()
				return
			}
		case <-c.done:
			c.ws.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			return
		}
	}
}

// WSHandler upgrades GET /ws/{sessionCode}/{userID} requests and runs
// the read loop for the resulting connection.
type WSHandler struct {
	hub        *Hub
	registry   *session.Registry
	upgrader   websocket.Upgrader
	maxPayload int64
	logger     logger.Logger
}

// WSOption applies a configuration option to the handler.
type WSOption func(*WSHandler)

// WithMaxPayload caps the size of a single inbound frame in bytes.
func WithMaxPayload(n int64) WSOption {
	return func(h *WSHandler) {
		if n > 0 {
			h.maxPayload = n
		}
	}
}

// WithWSLogger sets a custom logger for the handler.
func WithWSLogger(l logger.Logger) WSOption {
	return func(h *WSHandler) {
		if l != nil {
			h.logger = l
		}
	}
}

// NewWSHandler creates the websocket endpoint handler.
func NewWSHandler(hub *Hub, registry *session.Registry, opts ...WSOption) *WSHandler {
	h := &WSHandler{
		hub:        hub,
		registry:   registry,
		maxPayload: defaultMaxPayload,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// Origin filtering belongs to the deployment proxy.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}

	// Apply all options
	for _, opt := range opts {
		opt(h)
	}

	return h
}

func (h *WSHandler) log() logger.Logger {
	if h.logger == nil {
		h.logger = logger.Get().Named("ws")
	}
	return h.logger
}

// ServeHTTP implements http.Handler.
func (h *WSHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	code := strings.ToUpper(chi.URLParam(r, "sessionCode"))
	userID := chi.URLParam(r, "userID")

	sess, ok := h.registry.Get(code)
	if !ok {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}
	if !sess.IsMember(userID) {
		http.Error(w, "not a session member", http.StatusForbidden)
		return
	}

	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log().Warn(ctx, "websocket upgrade failed", logger.Error(err))
		return
	}

	conn := newWSConn(ws)
	if err := h.hub.Attach(ctx, code, userID, conn); err != nil {
		h.log().Warn(ctx, "attach failed",
			logger.String("session", code),
			logger.String("user", userID),
			logger.Error(err),
		)
		conn.Close()
		return
	}

	h.readLoop(ctx, ws, code, userID)

	h.hub.Detach(context.WithoutCancel(ctx), code, userID)
	conn.Close()
}

// readLoop pumps inbound frames into the hub until the peer goes away.
// Routing errors are per-message: they are logged and the loop keeps
// reading.
func (h *WSHandler) readLoop(ctx context.Context, ws *websocket.Conn, code, userID string) {
	ws.SetReadLimit(h.maxPayload)
	ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var env Envelope
		if err := ws.ReadJSON(&env); err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.log().Debug(ctx, "websocket read error",
					logger.String("user", userID), logger.Error(err))
			}
			return
		}

		if err := h.hub.Route(ctx, code, userID, env); err != nil {
			if errors.Is(err, session.ErrNotFound) || errors.Is(err, session.ErrSessionEnded) {
				return
			}
			h.log().Debug(ctx, "message not routed",
				logger.String("type", string(env.Type)),
				logger.String("user", userID),
				logger.Error(err),
			)
		}
	}
}
