// Package similarity provides the string and keyword-set scoring primitives
// used by the confidence scorer and the duplicate validator.
package similarity

import (
	"github.com/agext/levenshtein"

	"chat-topics-be/pkg/textutil"
)

// matchThreshold is the per-pair string similarity above which two keywords
// count as matched in SetOverlap.
const matchThreshold = 0.8

// minStemPrefix is the shortest shared prefix that lets two keywords count as
// morphological variants of each other (migrate/migration).
const minStemPrefix = 5

// StringSimilarity scores two strings in [0,1] as 1 minus the normalized edit
// distance between their canonical forms. Identical normalized strings score
// 1.0; if either normalizes to empty the score is 0.
func StringSimilarity(a, b string) float64 {
	na := textutil.Normalize(a)
	nb := textutil.Normalize(b)
	if na == "" || nb == "" {
		return 0
	}
	if na == nb {
		return 1.0
	}

	la := len([]rune(na))
	lb := len([]rune(nb))
	maxLen := la
	if lb > maxLen {
		maxLen = lb
	}

	dist := levenshtein.Distance(na, nb, nil)
	score := 1.0 - float64(dist)/float64(maxLen)
	if score < 0 {
		return 0
	}
	return score
}

// SetOverlap scores two keyword sets in [0,1]: the number of matched pairs
// (exact match or per-pair similarity above matchThreshold) over the size of
// the union. Either set empty scores 0.
func SetOverlap(kwA, kwB []string) float64 {
	if len(kwA) == 0 || len(kwB) == 0 {
		return 0
	}

	setA := dedupe(kwA)
	setB := dedupe(kwB)

	matchedB := make(map[string]bool, len(setB))
	matches := 0
	for _, a := range setA {
		for _, b := range setB {
			if matchedB[b] {
				continue
			}
			if keywordsMatch(a, b) {
				matchedB[b] = true
				matches++
				break
			}
		}
	}

	union := len(setA) + len(setB) - matches
	if union == 0 {
		return 0
	}
	return float64(matches) / float64(union)
}

// keywordsMatch pairs two keywords on exact equality, high edit-distance
// similarity, or a shared stem covering most of the shorter keyword.
func keywordsMatch(a, b string) bool {
	if a == b {
		return true
	}
	if StringSimilarity(a, b) > matchThreshold {
		return true
	}

	ra, rb := []rune(a), []rune(b)
	shorter := len(ra)
	if len(rb) < shorter {
		shorter = len(rb)
	}
	prefix := 0
	for prefix < shorter && ra[prefix] == rb[prefix] {
		prefix++
	}
	return prefix >= minStemPrefix && 3*prefix >= 2*shorter
}

func dedupe(keywords []string) []string {
	seen := make(map[string]bool, len(keywords))
	out := make([]string, 0, len(keywords))
	for _, k := range keywords {
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, k)
	}
	return out
}
