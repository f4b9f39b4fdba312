package storage

import "strings"

// NormalizeEmail is the canonical form used for email lookups
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
