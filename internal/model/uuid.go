package model

import (
	"encoding/base32"
	"strings"

	"github.com/google/uuid"
)

// GenerateShortID generates a short, URL-safe ID using UUID v4 encoded in base32.
func GenerateShortID() string {
	id := uuid.New()
	// 16 bytes -> 26 base32 characters
	encoded := base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(id[:])
	return strings.ToLower(encoded)
}

// ValidateShortID reports whether id looks like an ID produced by GenerateShortID.
// Case-insensitive so IDs typed from exports in upper case still resolve.
func ValidateShortID(id string) bool {
	if len(id) != 26 {
		return false
	}
	for _, c := range strings.ToLower(id) {
		if !((c >= 'a' && c <= 'z') || (c >= '2' && c <= '7')) {
			return false
		}
	}
	return true
}
