package service

import "strings"

// addressMatches compares two free-text addresses after lowercasing and
// trimming: equal, or one contains the other. Empty addresses never match.
func addressMatches(donorAddress, requestAddress string) bool {
	d := normalizeAddress(donorAddress)
	r := normalizeAddress(requestAddress)
	if d == "" || r == "" {
		return false
	}
	return d == r || strings.Contains(d, r) || strings.Contains(r, d)
}

func normalizeAddress(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
