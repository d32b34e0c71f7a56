// Package utils provides utility functions for the application.
package utils

import "strings"

func ToPtr[T any](v T) *T {
	return &v
}

// DigitsOnly strips every non-digit rune from s
func DigitsOnly(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// TrimmedOrNil returns nil for nil or blank input, otherwise the trimmed value
func TrimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	if t == "" {
		return nil
	}
	return &t
}

// Deref returns the pointed value or "" for nil
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
