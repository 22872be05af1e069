package jobs

import "github.com/google/uuid"

// NewID returns a fresh video ID.
func NewID() string {
	return uuid.NewString()
}

// ValidID reports whether id has the shape NewID produces. Callers use it to
// reject path-like IDs before touching the filesystem or the store.
func ValidID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil && len(id) == 36
}
