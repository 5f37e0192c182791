package model

import "time"

// Credential is one row of the external credential table. The table is
// owned by the ERP backend; this module only reads and updates it.
type Credential struct {
	UserID       int64
	Username     string
	Role         string
	PasswordHash string // empty when the stored hash is NULL or blank
	LastLogin    *time.Time
	CreatedAt    time.Time
}
