package match

// Similarity scores two strings 0-100 using a longest-common-subsequence
// ratio: 2*LCS / (len(a)+len(b)). Callers pass normalized keys; the metric
// itself does no normalization.
func Similarity(a, b string) int {
	ar := []rune(a)
	br := []rune(b)
	if len(ar) == 0 || len(br) == 0 {
		return 0
	}

	prev := make([]int, len(br)+1)
	cur := make([]int, len(br)+1)
	for i := 1; i <= len(ar); i++ {
		for j := 1; j <= len(br); j++ {
			if ar[i-1] == br[j-1] {
				cur[j] = prev[j-1] + 1
			} else if prev[j] >= cur[j-1] {
				cur[j] = prev[j]
			} else {
				cur[j] = cur[j-1]
			}
		}
		prev, cur = cur, prev
	}
	lcs := prev[len(br)]

	return (2*lcs*100 + (len(ar)+len(br))/2) / (len(ar) + len(br))
}
