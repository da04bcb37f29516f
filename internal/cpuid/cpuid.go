// Package cpuid decodes the low three bytes of an x86 CPUID leaf into the
// lowercase hex string used to look up a codename in the stored CpuId
// table, and implements the substring (not prefix) lookup rule against
// that table.
package cpuid

import (
	"fmt"
	"strings"
)

// Unknown is the codename returned when no stored pattern matches.
const Unknown = "Unknown"

// Encode treats bytes[2] as the high byte, bytes[1] as the middle byte and
// bytes[0] as the low byte, emitting "0x{b2:x}{b1:02x}{b0:02x}". It panics
// if fewer than 3 bytes are supplied; callers must check length first (the
// decision engine treats fewer than 3 bytes as "no CPUID available" rather
// than calling Encode).
func Encode(b []byte) string {
	if len(b) < 3 {
		panic("cpuid: Encode requires at least 3 bytes")
	}
	return fmt.Sprintf("0x%x%02x%02x", b[2], b[1], b[0])
}

// Pattern is the minimal shape of a stored CpuId row needed for lookup.
type Pattern struct {
	IDPattern string
	Codename  string
}

// Lookup scans patterns in order and returns the codename of the first
// entry whose (lowercased) IDPattern is a substring of encoded. Patterns
// are short hex fragments that may omit the leading "0x" or a trailing
// nibble, so the match must be substring, not prefix or exact-key: a
// hashmap lookup would silently drop legitimate matches.
func Lookup(encoded string, patterns []Pattern) string {
	for _, p := range patterns {
		if strings.Contains(encoded, strings.ToLower(p.IDPattern)) {
			return p.Codename
		}
	}
	return Unknown
}
