// Package cryptox wraps the password hashing primitives used by the
// credential store.
package cryptox

import (
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// ErrPasswordTooLong is returned for passwords bcrypt cannot hash (over 72 bytes).
var ErrPasswordTooLong = bcrypt.ErrPasswordTooLong

// PasswordHasher produces and checks salted one-way password digests.
type PasswordHasher struct {
	cost int

	dummyOnce sync.Once
	dummy     []byte
}

// NewPasswordHasher returns a bcrypt hasher with the given cost. Costs
// outside bcrypt's range fall back to bcrypt.DefaultCost.
func NewPasswordHasher(cost int) *PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &PasswordHasher{cost: cost}
}

// Hash returns the bcrypt digest of password. The salt is embedded in the digest.
func (h *PasswordHasher) Hash(password string) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(password), h.cost)
}

// Compare reports whether password matches hash. Malformed hashes never match.
func (h *PasswordHasher) Compare(hash []byte, password string) bool {
	err := bcrypt.CompareHashAndPassword(hash, []byte(password))
	return err == nil
}

// CompareDummy burns the same amount of work as Compare against a hash that
// never matches. It is used when the account does not exist so that a
// failed login takes as long as a wrong password.
func (h *PasswordHasher) CompareDummy(password string) bool {
	h.dummyOnce.Do(func() {
		h.dummy, _ = bcrypt.GenerateFromPassword([]byte("gophdiary-dummy-password"), h.cost)
	})
	_ = bcrypt.CompareHashAndPassword(h.dummy, []byte(password))
	return false
}
