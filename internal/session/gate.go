package session

import "campanile/auth-session/internal/model"

// Gate guards a protected view with a required role. RoleUnknown as the
// requirement means "any authenticated role": it widens which roles pass
// but never waives having a session at all.
type Gate struct {
	required model.Role
	sessions *Manager
}

func NewGate(required model.Role, sessions *Manager) *Gate {
	return &Gate{required: required, sessions: sessions}
}

// Allow reports whether the current session may pass. A denial mutates
// nothing: redirecting to login and clearing session state stay the
// caller's decision.
func (g *Gate) Allow() bool {
	sess := g.sessions.Current()
	if sess == nil {
		return false
	}
	if g.required == model.RoleUnknown {
		return true
	}
	return g.required == sess.ResolvedRole()
}
