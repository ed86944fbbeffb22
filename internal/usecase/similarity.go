package usecase

import (
	"math"
	"sort"
	"strings"
	"unicode"
)

// SimilarityScore computes a 0-100 similarity between a free-text item name
// and a catalog entry name. The comparison is insensitive to token order,
// case and surrounding whitespace:
//   - both sides are normalized (lowercased, every non-letter/digit rune
//     replaced by a space, whitespace collapsed) and their tokens sorted
//     before comparison
//   - the shorter token-sorted string is slid across the longer one and the
//     best alignment wins, so a short name embedded in a longer catalog name
//     still scores high
//   - each alignment is scored with an indel ratio based on the longest
//     common subsequence
//
// The function is pure and deterministic. A side with no tokens left after
// normalization scores 0. Scores are not necessarily symmetric.
func SimilarityScore(query, candidate string) int {
	q := tokenSort(query)
	c := tokenSort(candidate)
	if q == "" || c == "" {
		return 0
	}
	return partialRatio([]rune(q), []rune(c))
}

// normalizeName lowercases the input, replaces every rune that is not a
// letter or digit with a space, and collapses whitespace runs. Works on
// runes, not bytes, so Japanese product names survive intact.
func normalizeName(s string) string {
	mapped := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return unicode.ToLower(r)
		}
		return ' '
	}, s)
	return strings.Join(strings.Fields(mapped), " ")
}

// tokenSort normalizes s and rejoins its tokens in sorted order, making the
// downstream comparison independent of word order.
func tokenSort(s string) string {
	tokens := strings.Fields(normalizeName(s))
	sort.Strings(tokens)
	return strings.Join(tokens, " ")
}

// partialRatio slides the shorter rune sequence across the longer one and
// returns the best indel ratio over all alignments of the shorter's length.
func partialRatio(a, b []rune) int {
	shorter, longer := a, b
	if len(shorter) > len(longer) {
		shorter, longer = longer, shorter
	}

	best := 0
	for i := 0; i+len(shorter) <= len(longer); i++ {
		ratio := indelRatio(shorter, longer[i:i+len(shorter)])
		if ratio > best {
			best = ratio
			if best == 100 {
				break
			}
		}
	}
	return best
}

// indelRatio is the normalized indel similarity of two rune sequences:
// round(200*LCS/(len(a)+len(b))). Equal sequences score 100, disjoint ones 0.
func indelRatio(a, b []rune) int {
	total := len(a) + len(b)
	if total == 0 {
		return 0
	}
	lcs := lcsLength(a, b)
	return int(math.Round(200 * float64(lcs) / float64(total)))
}

// lcsLength computes the longest common subsequence length of two rune
// sequences. Uses two rows instead of the full matrix for space efficiency.
func lcsLength(a, b []rune) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)

	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			switch {
			case a[i-1] == b[j-1]:
				curr[j] = prev[j-1] + 1
			case prev[j] >= curr[j-1]:
				curr[j] = prev[j]
			default:
				curr[j] = curr[j-1]
			}
		}
		prev, curr = curr, prev
	}

	return prev[len(b)]
}
