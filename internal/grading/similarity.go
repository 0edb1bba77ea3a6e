package grading

// EditDistance returns the minimum number of single-character insertions,
// deletions and substitutions needed to transform a into b.
func EditDistance(a, b string) int {
	ar := []rune(a)
	br := []rune(b)
	if len(ar) == 0 {
		return len(br)
	}
	if len(br) == 0 {
		return len(ar)
	}

	row := make([]int, len(br)+1)
	for j := range row {
		row[j] = j
	}

	for i := 1; i <= len(ar); i++ {
		diag := row[0]
		row[0] = i
		for j := 1; j <= len(br); j++ {
			next := row[j]
			cost := 1
			if ar[i-1] == br[j-1] {
				cost = 0
			}
			row[j] = minInt(row[j]+1, minInt(row[j-1]+1, diag+cost))
			diag = next
		}
	}

	return row[len(br)]
}

// CountInversions maps each item of candidate to its position in reference and
// counts pairs whose positions are out of ascending order. Identical orderings
// yield zero. Items missing from reference are skipped. Question sizes are
// small, so the quadratic scan is fine.
func CountInversions(reference, candidate []string) int {
	position := make(map[string]int, len(reference))
	for i, item := range reference {
		position[item] = i
	}

	mapped := make([]int, 0, len(candidate))
	for _, item := range candidate {
		if idx, ok := position[item]; ok {
			mapped = append(mapped, idx)
		}
	}

	inversions := 0
	for i := 0; i < len(mapped); i++ {
		for j := i + 1; j < len(mapped); j++ {
			if mapped[i] > mapped[j] {
				inversions++
			}
		}
	}
	return inversions
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
