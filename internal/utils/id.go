package utils

import "github.com/google/uuid"

// NewID returns a random (v4) UUID string used for conversations,
// messages and notifications.
func NewID() string {
	return uuid.NewString()
}

// ValidID reports whether s is a well-formed UUID.
func ValidID(s string) bool {
	if len(s) != 36 {
		return false
	}
	_, err := uuid.Parse(s)
	return err == nil
}
