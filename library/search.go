package library

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// stripMarks decomposes to NFD, drops the combining marks, and recomposes,
// so "Café" and "cafe" normalize to the same key.
var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// normalizeText folds case, strips diacritics and collapses whitespace.
// Queries and field values go through the same normalization before the
// substring comparison.
func normalizeText(s string) string {
	out, _, err := transform.String(stripMarks, s)
	if err != nil {
		out = s
	}
	return strings.Join(strings.Fields(strings.ToLower(out)), " ")
}

// insertionSortGroups orders groups in place by ISBN, ascending. Insertion
// sort is stable and close to linear on the nearly-sorted lists this store
// rebuilds after single-group mutations.
func insertionSortGroups(groups []*Group) {
	for i := 1; i < len(groups); i++ {
		current := groups[i]
		j := i - 1
		for j >= 0 && CompareISBN(groups[j].ISBN(), current.ISBN()) > 0 {
			groups[j+1] = groups[j]
			j--
		}
		groups[j+1] = current
	}
}

// binarySearchGroups returns the index of the group with the given ISBN in
// a sorted slice, or -1. Precondition: groups is ordered by CompareISBN.
func binarySearchGroups(groups []*Group, isbn string) int {
	lo, hi := 0, len(groups)-1
	for lo <= hi {
		mid := (lo + hi) / 2
		switch CompareISBN(groups[mid].ISBN(), isbn) {
		case 0:
			return mid
		case -1:
			lo = mid + 1
		default:
			hi = mid - 1
		}
	}
	return -1
}
