package simsession

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/gorilla/websocket"

	"github.com/okian/physio/internal/adapters/realtime"
)

// memberConn is one participant's websocket into the session.
type memberConn struct {
	userID string
	ws     *websocket.Conn

	writeMu sync.Mutex

	accuracyReceived atomic.Int64
	poseReceived     atomic.Int64
	feedbackReceived atomic.Int64
	joinsSeen        atomic.Int64
	leavesSeen       atomic.Int64

	sessionEnded chan *realtime.Envelope
	done         chan struct{}
}

// dialMember opens the realtime channel for a session member.
func dialMember(ctx context.Context, baseURL, code, userID string) (*memberConn, error) {
	wsURL := strings.Replace(baseURL, "http", "ws", 1)
	url := fmt.Sprintf("%s/ws/%s/%s", wsURL, code, userID)

	ws, resp, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", url, err)
	}
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}

	m := &memberConn{
		userID:       userID,
		ws:           ws,
		sessionEnded: make(chan *realtime.Envelope, 1),
		done:         make(chan struct{}),
	}
	go m.readLoop()
	return m, nil
}

// send writes one envelope; safe for use from multiple goroutines.
func (m *memberConn) send(env realtime.Envelope) error {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()
	if err := m.ws.WriteJSON(env); err != nil {
		return fmt.Errorf("failed to send %s: %w", env.Type, err)
	}
	return nil
}

func (m *memberConn) close() {
	_ = m.ws.Close()
	<-m.done
}

// awaitEnd blocks until session_ended arrives or ctx expires.
func (m *memberConn) awaitEnd(ctx context.Context) (*realtime.Envelope, error) {
	select {
	case env := <-m.sessionEnded:
		return env, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: no session_ended before deadline: %w", m.userID, ctx.Err())
	}
}

func (m *memberConn) readLoop() {
	defer close(m.done)

	for {
		var env realtime.Envelope
		if err := m.ws.ReadJSON(&env); err != nil {
			return
		}

		switch env.Type {
		case realtime.TypeAccuracyUpdate:
			m.accuracyReceived.Add(1)
		case realtime.TypePoseUpdate:
			m.poseReceived.Add(1)
		case realtime.TypeFeedback:
			m.feedbackReceived.Add(1)
		case realtime.TypeUserJoined:
			m.joinsSeen.Add(1)
		case realtime.TypeUserLeft:
			m.leavesSeen.Add(1)
		case realtime.TypeSessionEnded:
			e := env
			select {
			case m.sessionEnded <- &e:
			default:
			}
			return
		}
	}
}
