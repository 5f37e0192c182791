package session

import (
	"sync/atomic"

	"campanile/auth-session/internal/auth"
)

// Manager holds the process's current session: a single slot, replaced
// wholesale on each login. Sessions are immutable, so an atomic pointer
// swap is all the synchronization readers need; a read observes either
// the previous session or the new one, never a partial value.
//
// Construct one at process start and inject it where the current-user
// context is needed; there is no package-level instance.
type Manager struct {
	current atomic.Pointer[auth.Session]
}

func NewManager() *Manager { return &Manager{} }

// Set installs sess as the current session, unconditionally replacing
// any previous one (last-write-wins).
func (m *Manager) Set(sess *auth.Session) { m.current.Store(sess) }

// Current returns the active session, or nil when nobody is signed in.
func (m *Manager) Current() *auth.Session { return m.current.Load() }

// Clear signs the current session out.
func (m *Manager) Clear() { m.current.Store(nil) }
