// Package utils holds small helpers shared across the client.
package utils

import "github.com/google/uuid"

// UUIDGenerator issues unique identifiers for locally created vault objects.
type UUIDGenerator struct {
}

func NewUUIDGenerator() *UUIDGenerator {
	return &UUIDGenerator{}
}

// Generate returns a time-ordered UUIDv7 string, falling back to a random
// v4 when the monotonic source is unavailable.
func (g *UUIDGenerator) Generate() string {
	v7, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}

	return v7.String()
}
