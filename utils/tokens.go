package utils

import (
	"crypto/rand"
	"encoding/hex"

	"github.com/google/uuid"
)

// NewResumeToken returns an unguessable bearer token for a draft. It is
// emailed and embedded in URLs, so it must be a capability rather than a
// predictable id.
func NewResumeToken() string {
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		// crypto/rand only fails when the OS entropy source is broken.
		return uuid.NewString()
	}
	return hex.EncodeToString(b)
}

// NewSessionToken returns the opaque token handed out after portal
// verification.
func NewSessionToken() string {
	return uuid.NewString()
}
