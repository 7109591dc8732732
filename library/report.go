package library

// ValueReport flattens the given groups and returns their copies ordered by
// monetary value, ascending. Pure and stateless; the input groups are not
// touched.
func ValueReport(groups []*Group) []*Copy {
	var copies []*Copy
	for _, g := range groups {
		for _, c := range g.Copies {
			dup := *c
			copies = append(copies, &dup)
		}
	}
	return mergeSortByValue(copies)
}

// mergeSortByValue is a stable merge sort keyed on Copy.Value.
func mergeSortByValue(copies []*Copy) []*Copy {
	if len(copies) <= 1 {
		return copies
	}
	mid := len(copies) / 2
	left := mergeSortByValue(copies[:mid])
	right := mergeSortByValue(copies[mid:])

	merged := make([]*Copy, 0, len(copies))
	i, j := 0, 0
	for i < len(left) && j < len(right) {
		if left[i].Value <= right[j].Value {
			merged = append(merged, left[i])
			i++
		} else {
			merged = append(merged, right[j])
			j++
		}
	}
	merged = append(merged, left[i:]...)
	merged = append(merged, right[j:]...)
	return merged
}
