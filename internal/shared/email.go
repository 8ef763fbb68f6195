package shared

import "strings"

// NormalizeEmail folds an email address for comparison and storage lookup.
// Every boundary that compares emails (credential lookup, super-admin check,
// allowlists) goes through this so case handling stays consistent.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
