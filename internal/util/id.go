package util

import "github.com/google/uuid"

func NewID(prefix string) string {
	id := uuid.NewString()
	if prefix == "" {
		return id
	}
	return prefix + "_" + id
}

// ValidID reports whether value is a bare UUID as produced by NewID("").
func ValidID(value string) bool {
	_, err := uuid.Parse(value)
	return err == nil
}
