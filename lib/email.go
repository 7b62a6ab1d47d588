package lib

import "strings"

// NormalizeEmail makes addresses comparable: surrounding space is dropped and case folded.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
