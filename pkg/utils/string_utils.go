package utils

import "strings"

// NewNullString is a helper for string pointers, returning nil if the trimmed string is empty.
// Useful for fields that are optional and should be NULL in DB if not provided.
func NewNullString(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// TrimmedPtr trims the value behind p and returns nil when nothing is left.
func TrimmedPtr(p *string) *string {
	if p == nil {
		return nil
	}
	return NewNullString(*p)
}
