package util

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	mu      sync.Mutex
	entropy = ulid.Monotonic(rand.Reader, 0)
)

// NewID generates a new monotonic ULID string; safe for concurrent use.
func NewID() string {
	mu.Lock()
	defer mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}

// EnsureID assigns a fresh ID when id is empty.
func EnsureID(id string) string {
	if id != "" {
		return id
	}
	return NewID()
}
