package realtime

import "sync"

// connTable is the hub's concurrency-safe index of live connections,
// keyed by session code then user ID.
type connTable struct {
	mu       sync.RWMutex
	sessions map[string]map[string]Conn
}

func newConnTable() *connTable {
	return &connTable{sessions: make(map[string]map[string]Conn)}
}

func (t *connTable) put(code, userID string, conn Conn) {
	t.mu.Lock()
	defer t.mu.Unlock()

	members, ok := t.sessions[code]
	if !ok {
		members = make(map[string]Conn)
		t.sessions[code] = members
	}
	members[userID] = conn
}

func (t *connTable) get(code, userID string) (Conn, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	conn, ok := t.sessions[code][userID]
	return conn, ok
}

// remove drops one connection, reporting whether it was present.
func (t *connTable) remove(code, userID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	members, ok := t.sessions[code]
	if !ok {
		return false
	}
	if _, present := members[userID]; !present {
		return false
	}
	delete(members, userID)
	if len(members) == 0 {
		delete(t.sessions, code)
	}
	return true
}

// drop removes and returns every connection of a session.
func (t *connTable) drop(code string) map[string]Conn {
	t.mu.Lock()
	defer t.mu.Unlock()

	members := t.sessions[code]
	delete(t.sessions, code)
	return members
}

// snapshot copies a session's member set so callers can iterate
// without holding the lock across sends.
func (t *connTable) snapshot(code string) map[string]Conn {
	t.mu.RLock()
	defer t.mu.RUnlock()

	members := t.sessions[code]
	out := make(map[string]Conn, len(members))
	for id, conn := range members {
		out[id] = conn
	}
	return out
}

func (t *connTable) total() int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	n := 0
	for _, members := range t.sessions {
		n += len(members)
	}
	return n
}
