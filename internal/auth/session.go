package auth

import "campanile/auth-session/internal/model"

// Session is the witness of a successful login. Its fields are
// unexported: only Service.Login constructs one, so holding a *Session
// always means a credential check passed in this process.
type Session struct {
	userID   int64
	username string
	role     string
}

func (s *Session) UserID() int64 { return s.userID }

func (s *Session) Username() string { return s.username }

// Role is the stored role string, trimmed and lowercased at login.
func (s *Session) Role() string { return s.role }

// ResolvedRole canonicalizes the stored role string.
func (s *Session) ResolvedRole() model.Role { return model.ResolveRole(s.role) }
