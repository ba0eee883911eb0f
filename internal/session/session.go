// Package session holds per-caller identity state between requests. Each
// browser gets an opaque random token in a cookie; the token maps to a
// Context kept server-side.
package session

import (
	"crypto/rand"
	"encoding/base64"
	"sync"
)

const tokenBytes = 32

// Context is the per-caller session value the core operations receive and
// return. ActiveUserKey is the authenticated identity, empty when anonymous.
// LoginAttemptUserKey is the transient pending-login key set by the
// user-switch handshake.
type Context struct {
	ActiveUserKey       string
	LoginAttemptUserKey string
}

// Manager maps session tokens to Contexts.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]Context
}

func NewManager() *Manager {
	return &Manager{sessions: make(map[string]Context)}
}

// Issue creates a fresh anonymous session and returns its token.
func (m *Manager) Issue() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	token := base64.URLEncoding.EncodeToString(buf)

	m.mu.Lock()
	m.sessions[token] = Context{}
	m.mu.Unlock()
	return token, nil
}

// Get returns the Context for a token, if the token is known.
func (m *Manager) Get(token string) (Context, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sess, ok := m.sessions[token]
	return sess, ok
}

// Put stores the updated Context for a known token. Unknown tokens are
// ignored so a stale cookie cannot resurrect a session.
func (m *Manager) Put(token string, sess Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[token]; ok {
		m.sessions[token] = sess
	}
}

// Delete drops a session entirely.
func (m *Manager) Delete(token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, token)
}
