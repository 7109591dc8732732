package library

import "testing"

func TestCompareISBN(t *testing.T) {
	cases := []struct {
		a, b string
		want int
	}{
		{"45", "123", -1}, // numeric, not lexicographic
		{"123", "45", 1},
		{"45", "45", 0},
		{"45", "45A", -1}, // mixed: falls back to lexicographic
		{"978-0-306", "978-1-234", -1},
		{"ABC", "DEF", -1},
		{"DEF", "ABC", 1},
		{"", "0", -1},
		{"007", "7", 0}, // both parse numerically
	}
	for _, c := range cases {
		if got := CompareISBN(c.a, c.b); got != c.want {
			t.Errorf("CompareISBN(%q, %q) = %d, want %d", c.a, c.b, got, c.want)
		}
	}
}

func TestNextPrefixedID(t *testing.T) {
	if got := nextPrefixedID("L", nil); got != "L001" {
		t.Errorf("empty ledger: got %s, want L001", got)
	}
	if got := nextPrefixedID("L", []string{"L001", "L003"}); got != "L004" {
		t.Errorf("gap: got %s, want L004", got)
	}
	if got := nextPrefixedID("R", []string{"R002-1", "R001"}); got != "R003" {
		t.Errorf("suffixed id: got %s, want R003", got)
	}
}
