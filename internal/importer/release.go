package importer

import (
	"strconv"
	"strings"
)

// stripLTS removes a trailing "LTS" token from a release string so
// "22.04 LTS" ingests as "22.04" while "22.04" is unchanged (testable
// property 6, scenario 7).
func stripLTS(releaseStr string) string {
	s := strings.TrimSpace(releaseStr)
	s = strings.TrimSuffix(s, "LTS")
	return strings.TrimSpace(s)
}

// iVersion turns a release string like "22.04" into its integer form
// 2204, by dropping the separator. Non-numeric input yields 0 rather
// than failing the whole item over a decorative field.
func iVersion(releaseStr string) int {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, releaseStr)
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0
	}
	return n
}
