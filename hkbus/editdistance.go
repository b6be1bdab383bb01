package hkbus

// EditDistance returns the Levenshtein distance between a and b counted in
// runes, so each Chinese character is one edit.
func EditDistance(a, b string) int {
	if a == b {
		return 0
	}
	s1 := []rune(a)
	s2 := []rune(b)
	if len(s2) == 0 {
		return len(s1)
	}

	column := make([]int, len(s1)+1)
	for i := 1; i <= len(s1); i++ {
		column[i] = i
	}

	for col := range len(s2) {
		r2 := s2[col]
		column[0] = col + 1
		lastdiag := col

		for row := range len(s1) {
			olddiag := column[row+1]
			cost := 0
			if s1[row] != r2 {
				cost = 1
			}
			column[row+1] = min(column[row+1]+1, column[row]+1, lastdiag+cost)
			lastdiag = olddiag
		}
	}

	return column[len(s1)]
}
