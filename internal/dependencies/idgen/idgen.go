package idgen

import (
	"crypto/rand"
	"encoding/base64"

	"github.com/google/uuid"
)

// Generator creates record ids and session tokens; mockable for tests
type Generator interface {
	// NewID returns a fresh record id
	NewID() string

	// NewToken returns an unguessable bearer token
	NewToken() string
}

// UUIDGenerator issues random (v4) UUIDs for ids
type UUIDGenerator struct{}

// New creates a new UUIDGenerator
func New() *UUIDGenerator {
	return &UUIDGenerator{}
}

// NewID returns a random UUID string
func (g *UUIDGenerator) NewID() string {
	return uuid.NewString()
}

// NewToken returns 32 random bytes, base64url encoded
func (g *UUIDGenerator) NewToken() string {
	b := make([]byte, 32)
	// crypto/rand.Read never returns an error on supported platforms
	_, _ = rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}
