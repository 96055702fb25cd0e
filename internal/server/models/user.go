// Package models defines server-side data models persisted by the repositories.
package models

import "time"

// User is a registered identity. PasswordHash holds a bcrypt digest, never
// the plaintext.
type User struct {
	ID           string
	UserName     string
	PasswordHash []byte
	Prompt       string
	CreatedAt    time.Time
}
