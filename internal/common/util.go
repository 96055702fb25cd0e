package common

import (
	"crypto/rand"
	"encoding/hex"
	"unicode/utf8"
)

// MakeRandHexString returns size random bytes encoded as hex, so the
// resulting string is 2*size characters long.
func MakeRandHexString(size int) (string, error) {
	b := make([]byte, size)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// Truncate returns the first n characters of s. It counts runes, not
// bytes, and never splits a multi-byte character.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
