package schema

import (
	"strconv"
	"strings"
)

// CompareVersions compares two semantic-version strings component-wise.
// It returns cmp (-1, 0, +1) and wellFormed=false when either side is
// not dotted-numeric, in which case the comparison falls back to plain
// lexicographic ordering. Malformed versions are a recorded warning for
// callers, never a fatal error.
func CompareVersions(a, b string) (cmp int, wellFormed bool) {
	av, aok := parseVersion(a)
	bv, bok := parseVersion(b)
	if !aok || !bok {
		return strings.Compare(a, b), false
	}
	for len(av) < len(bv) {
		av = append(av, 0)
	}
	for len(bv) < len(av) {
		bv = append(bv, 0)
	}
	for i := range av {
		switch {
		case av[i] < bv[i]:
			return -1, true
		case av[i] > bv[i]:
			return 1, true
		}
	}
	return 0, true
}

// parseVersion splits "1.2.3" into numeric components. A leading "v"
// is tolerated. Empty strings and non-numeric components fail.
func parseVersion(s string) ([]int, bool) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "v")
	if s == "" {
		return nil, false
	}
	parts := strings.Split(s, ".")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return nil, false
		}
		out = append(out, n)
	}
	return out, true
}
