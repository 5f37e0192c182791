package model

import "strings"

// Role is the closed set of roles the client understands. The credential
// table stores free text; everything funnels through ResolveRole.
type Role int

const (
	RoleUnknown Role = iota
	RoleStudent
	RoleInstructor
	RoleAdmin
)

func (r Role) String() string {
	switch r {
	case RoleStudent:
		return "student"
	case RoleInstructor:
		return "instructor"
	case RoleAdmin:
		return "admin"
	default:
		return "unknown"
	}
}

// Synonym table for the spellings seen in credential rows over the years.
var roleSynonyms = map[string]Role{
	"student":       RoleStudent,
	"etudiant":      RoleStudent,
	"instructor":    RoleInstructor,
	"teacher":       RoleInstructor,
	"professor":     RoleInstructor,
	"prof":          RoleInstructor,
	"faculty":       RoleInstructor,
	"admin":         RoleAdmin,
	"administrator": RoleAdmin,
}

// ResolveRole maps any role string to the closed Role set. It is total:
// empty, blank and unrecognized input all resolve to RoleUnknown.
func ResolveRole(text string) Role {
	if role, ok := roleSynonyms[strings.ToLower(strings.TrimSpace(text))]; ok {
		return role
	}
	return RoleUnknown
}
