package schema

import "testing"

func TestCompareVersions(t *testing.T) {
	cases := []struct {
		a, b       string
		cmp        int
		wellFormed bool
	}{
		{"1.0.0", "1.0.0", 0, true},
		{"1.1.0", "1.0.9", 1, true},
		{"1.0.0", "1.1.0", -1, true},
		{"2.0", "2.0.0", 0, true},
		{"v1.2.3", "1.2.3", 0, true},
		{"1.10.0", "1.9.0", 1, true},
		{"1.0.0-beta", "1.0.0", -1, false}, // malformed → lexicographic
		{"abc", "abd", -1, false},
	}

	for _, c := range cases {
		cmp, ok := CompareVersions(c.a, c.b)
		if cmp != c.cmp || ok != c.wellFormed {
			t.Errorf("CompareVersions(%q, %q) = (%d, %v), want (%d, %v)",
				c.a, c.b, cmp, ok, c.cmp, c.wellFormed)
		}
	}
}
