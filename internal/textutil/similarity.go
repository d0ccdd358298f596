package textutil

import "strings"

// SimilarityRatio computes a case-insensitive similarity ratio in [0, 1]
// between two strings. The result is 2*M / (len(a)+len(b)) where M is the
// total size of the longest matching blocks, computed recursively. Two empty
// strings are considered identical.
func SimilarityRatio(a, b string) float64 {
	ra := []rune(strings.ToLower(a))
	rb := []rune(strings.ToLower(b))
	if len(ra) == 0 && len(rb) == 0 {
		return 1.0
	}
	if len(ra) == 0 || len(rb) == 0 {
		return 0.0
	}
	matches := matchingSize(ra, rb, 0, len(ra), 0, len(rb))
	return 2.0 * float64(matches) / float64(len(ra)+len(rb))
}

// matchingSize sums the sizes of matching blocks between a[alo:ahi] and
// b[blo:bhi]: it finds the longest common block, then recurses into the
// regions to its left and right.
func matchingSize(a, b []rune, alo, ahi, blo, bhi int) int {
	i, j, size := longestMatch(a, b, alo, ahi, blo, bhi)
	if size == 0 {
		return 0
	}
	total := size
	total += matchingSize(a, b, alo, i, blo, j)
	total += matchingSize(a, b, i+size, ahi, j+size, bhi)
	return total
}

// longestMatch locates the longest block of runes common to a[alo:ahi] and
// b[blo:bhi]. Among equally long blocks the earliest in a (then in b) wins.
func longestMatch(a, b []rune, alo, ahi, blo, bhi int) (besti, bestj, bestsize int) {
	positions := make(map[rune][]int, bhi-blo)
	for j := blo; j < bhi; j++ {
		positions[b[j]] = append(positions[b[j]], j)
	}

	besti, bestj = alo, blo
	lengths := make(map[int]int)
	for i := alo; i < ahi; i++ {
		next := make(map[int]int)
		for _, j := range positions[a[i]] {
			k := lengths[j-1] + 1
			next[j] = k
			if k > bestsize {
				besti, bestj, bestsize = i-k+1, j-k+1, k
			}
		}
		lengths = next
	}
	return besti, bestj, bestsize
}
