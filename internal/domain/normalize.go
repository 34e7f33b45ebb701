package domain

import "strings"

// NormalizeTitle trims leading/trailing whitespace and collapses internal
// whitespace runs. Applied to booking titles before validation and storage.
func NormalizeTitle(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
