package branchedlist

// DistinctBy keeps the first item of every group of items whose selected
// values are equal under equal. An item is dropped when its selected value is
// equal to that of any item already kept. equal need not be transitive, so the
// result depends on input order.
func DistinctBy[T, S any](items []T, selector func(T) S, equal func(a, b S) bool) []T {
	out := make([]T, 0, len(items))
	kept := make([]S, 0, len(items))
	for _, item := range items {
		key := selector(item)
		seen := false
		for _, k := range kept {
			if equal(k, key) {
				seen = true
				break
			}
		}
		if !seen {
			out = append(out, item)
			kept = append(kept, key)
		}
	}
	return out
}

// IntersectingBranches reports whether two branch sets share an id. It is the
// fuzzy equality used to group entries reachable from a common branch.
func IntersectingBranches[B comparable](a, b BranchSet[B]) bool {
	return a.Intersects(b)
}
