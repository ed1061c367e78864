package seq

const (
	// minMergeOverlap is the smallest forward/reverse overlap accepted when
	// merging read pairs.
	minMergeOverlap = 20

	// mergeMismatchRate is the fraction of mismatching bases tolerated
	// within the overlap.
	mergeMismatchRate = 0.1
)

// MergePair merges a forward read with the reverse complement of its
// reverse-strand mate by locating the longest acceptable overlap. It returns
// false when no overlap of at least minMergeOverlap bases is found within
// the mismatch tolerance.
func MergePair(fwd, rev string) (string, bool) {
	rc := ReverseComplement(rev)

	maxOverlap := min(len(fwd), len(rc))

	for overlap := maxOverlap; overlap >= minMergeOverlap; overlap-- {
		if overlapMatches(fwd[len(fwd)-overlap:], rc[:overlap]) {
			return fwd + rc[overlap:], true
		}
	}

	return "", false
}

func overlapMatches(a, b string) bool {
	allowed := int(float64(len(a)) * mergeMismatchRate)
	mismatches := 0

	for i := 0; i < len(a); i++ {
		if a[i] != b[i] {
			if mismatches++; mismatches > allowed {
				return false
			}
		}
	}

	return true
}
