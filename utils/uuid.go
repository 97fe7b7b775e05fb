package utils

import (
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"
)

// ParseUUID parses s and wraps the error with the offending value
func ParseUUID(s string) (uuid.UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid uuid %q: %w", s, err)
	}
	return id, nil
}

// NewRequestID returns a random request identifier without dashes
func NewRequestID() string {
	id := uuid.New()
	return hex.EncodeToString(id[:])
}
