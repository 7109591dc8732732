package library

import (
	"fmt"
	"strconv"
	"strings"
)

// nextPrefixedID produces the next identifier in the house style of
// prefix + zero-padded number (L001, R001, U001). It scans existing ids for
// the highest numeric suffix, ignoring any disambiguation tail after a
// dash, and appends a dash counter if the fresh id somehow collides.
func nextPrefixedID(prefix string, existing []string) string {
	max := 0
	taken := make(map[string]bool, len(existing))
	for _, id := range existing {
		taken[id] = true
		if !strings.HasPrefix(id, prefix) {
			continue
		}
		num := strings.TrimPrefix(id, prefix)
		if i := strings.IndexByte(num, '-'); i >= 0 {
			num = num[:i]
		}
		if v, err := strconv.Atoi(num); err == nil && v > max {
			max = v
		}
	}

	id := fmt.Sprintf("%s%03d", prefix, max+1)
	for n := 1; taken[id]; n++ {
		id = fmt.Sprintf("%s%03d-%d", prefix, max+1, n)
	}
	return id
}
