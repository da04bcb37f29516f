// Package normalize implements the vendor-name canonicalization rule used
// throughout the repository and decision engine: strip the "Inc."/"Inc"
// suffix noise vendors append to their names and compare case-insensitively.
package normalize

import "strings"

// Vendor removes every occurrence of "Inc." and "Inc" from name and trims
// leading/trailing whitespace. It is ASCII case folding only, so it is
// locale-independent by construction. Vendor is idempotent:
// Vendor(Vendor(s)) == Vendor(s) for every s.
func Vendor(name string) string {
	s := strings.ReplaceAll(name, "Inc.", "")
	s = strings.ReplaceAll(s, "Inc", "")
	return strings.TrimSpace(s)
}

// VendorsMatch reports whether a and b refer to the same vendor under the
// matching rule: compare both the raw strings and their normalized forms,
// case-insensitively either way. The raw-string comparison is a
// belt-and-suspenders carried over from the upstream's board-lookup
// behavior, which tries the unnormalized name before falling back to the
// cleaned one.
func VendorsMatch(a, b string) bool {
	if strings.EqualFold(a, b) {
		return true
	}
	return strings.EqualFold(Vendor(a), Vendor(b))
}

// Contains reports whether substr occurs within s, case-insensitively,
// using the same ASCII folding as Vendor: the Go form of a LIKE %x%
// match. The repository backends match vendors through VendorsMatch and
// do not call it.
func Contains(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
