// Package session implements the request/response correlation table: a
// single-capacity delivery slot per session id, released on response or
// after a fixed timeout (grounded on
// original_source/src/session_manager.rs SessionManager).
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bamilab/quartznet/internal/log"
)

// Timeout is the duration a waiter blocks for a response before giving up.
var Timeout = 10 * time.Second

type slot struct {
	ch  chan []byte
	tag uuid.UUID
}

// Manager correlates outbound requests with inbound responses. At most one
// waiter may be registered per session id; callers are responsible for
// session-id uniqueness (a monotonic counter per Node).
type Manager struct {
	mu       sync.Mutex
	sessions map[uint32]*slot
}

func NewManager() *Manager {
	return &Manager{sessions: make(map[uint32]*slot)}
}

// Request registers sessionID and blocks until either a matching Respond
// call delivers a payload or Timeout elapses, whichever comes first. A nil
// return with ok=false means the request timed out; the slot is removed
// either way.
func (m *Manager) Request(sessionID uint32) (payload []byte, ok bool) {
	s := &slot{ch: make(chan []byte, 1), tag: uuid.New()}

	m.mu.Lock()
	m.sessions[sessionID] = s
	m.mu.Unlock()

	select {
	case payload := <-s.ch:
		return payload, true
	case <-time.After(Timeout):
		m.mu.Lock()
		if m.sessions[sessionID] == s {
			delete(m.sessions, sessionID)
		}
		m.mu.Unlock()
		log.Debug("session timed out", "session_id", sessionID, "corr", s.tag)
		return nil, false
	}
}

// Respond delivers payload to the waiter registered for sessionID, if any.
// It returns false and silently drops the payload when the slot is absent
// (expired or never existed) — a stale or duplicate response is not an
// error.
func (m *Manager) Respond(sessionID uint32, payload []byte) bool {
	m.mu.Lock()
	s, found := m.sessions[sessionID]
	if found {
		delete(m.sessions, sessionID)
	}
	m.mu.Unlock()

	if !found {
		log.Debug("dropped response for unknown or expired session", "session_id", sessionID)
		return false
	}
	s.ch <- payload
	return true
}
