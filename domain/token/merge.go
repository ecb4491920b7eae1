package token

import (
	"regexp"
	"strings"
)

var genericTitleRe = regexp.MustCompile(`^(travel ?(photo|nft) ?#?\d*|untitled|token ?#?\d*)$`)

// IsGenericTitle reports whether a title is a placeholder a metadata source
// emits when it has nothing better ("Travel Photo #12", "Untitled", ...).
func IsGenericTitle(name string) bool {
	name = strings.TrimSpace(strings.ToLower(name))
	if len(name) == 0 {
		return true
	}
	return genericTitleRe.MatchString(name)
}

// IsUnknownLocation reports whether a location string carries no information.
func IsUnknownLocation(loc string) bool {
	switch strings.TrimSpace(strings.ToLower(loc)) {
	case "", "unknown", "unknown location", "n/a":
		return true
	}
	return false
}

// Merge filters incoming against existing so that previously-correct fields
// are never overwritten by degraded values from a later, lower-quality
// metadata read: non-zero coordinates beat absent ones, a real title beats a
// generic placeholder, a known location beats "unknown". Every writer (event
// ingestion, scan, sweep, manual resync) goes through this single function.
func Merge(existing *Token, incoming *Patchable) *Patchable {
	if existing == nil {
		return incoming
	}

	out := *incoming

	hasCoords := existing.Latitude != nil && existing.Longitude != nil
	if hasCoords && (out.Latitude == nil || out.Longitude == nil) {
		out.Latitude = nil
		out.Longitude = nil
	}

	if out.Name != nil && IsGenericTitle(*out.Name) && !IsGenericTitle(existing.Name) {
		out.Name = nil
	}

	if out.Location != nil && IsUnknownLocation(*out.Location) && !IsUnknownLocation(existing.Location) {
		out.Location = nil
	}

	return &out
}
