package textutil

import (
	"sort"
	"strings"
	"unicode"
)

// abbreviations expanded during normalization. Kept small and fixed so
// normalization stays a pure function.
var abbreviations = map[string]string{
	"db":   "database",
	"k8s":  "kubernetes",
	"auth": "authentication",
	"prod": "production",
	"env":  "environment",
	"repo": "repository",
	"msg":  "message",
	"cfg":  "config",
	"pr":   "pull request",
	"ci":   "continuous integration",
}

var stopWords = map[string]bool{
	"a": true, "an": true, "the": true, "and": true, "or": true, "but": true,
	"is": true, "are": true, "was": true, "were": true, "be": true, "been": true,
	"to": true, "of": true, "in": true, "on": true, "at": true, "for": true,
	"with": true, "about": true, "into": true, "over": true, "after": true,
	"it": true, "its": true, "this": true, "that": true, "these": true,
	"i": true, "we": true, "you": true, "they": true, "he": true, "she": true,
	"my": true, "our": true, "your": true, "their": true, "me": true, "us": true,
	"do": true, "does": true, "did": true, "have": true, "has": true, "had": true,
	"will": true, "would": true, "can": true, "could": true, "should": true,
	"not": true, "no": true, "so": true, "if": true, "then": true, "than": true,
	"what": true, "when": true, "where": true, "who": true, "how": true,
	"just": true, "very": true, "too": true, "also": true, "there": true,
	"lets": true, "let": true, "get": true, "got": true, "go": true,
}

// MaxKeywords caps the keyword list returned by ExtractKeywords.
const MaxKeywords = 10

// Normalize canonicalizes text: lowercase, fixed abbreviation expansion,
// non-alphanumerics stripped, whitespace collapsed. Empty in, empty out.
func Normalize(text string) string {
	lowered := strings.ToLower(text)

	var b strings.Builder
	b.Grow(len(lowered))
	for _, r := range lowered {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}

	fields := strings.Fields(b.String())
	for i, f := range fields {
		if expanded, ok := abbreviations[f]; ok {
			fields[i] = expanded
		}
	}

	return strings.Join(fields, " ")
}

// ExtractKeywords returns the stop-word-filtered tokens of the normalized
// text, ranked by frequency (first occurrence breaks ties) and capped at
// MaxKeywords. Tokens shorter than two runes are dropped.
func ExtractKeywords(text string) []string {
	normalized := Normalize(text)
	if normalized == "" {
		return nil
	}

	type tokenStat struct {
		token string
		count int
		first int
	}

	stats := make(map[string]*tokenStat)
	order := make([]*tokenStat, 0)

	for i, token := range strings.Fields(normalized) {
		if len([]rune(token)) < 2 || stopWords[token] {
			continue
		}
		if s, ok := stats[token]; ok {
			s.count++
			continue
		}
		s := &tokenStat{token: token, count: 1, first: i}
		stats[token] = s
		order = append(order, s)
	}

	sort.SliceStable(order, func(i, j int) bool {
		if order[i].count != order[j].count {
			return order[i].count > order[j].count
		}
		return order[i].first < order[j].first
	})

	if len(order) == 0 {
		return nil
	}
	if len(order) > MaxKeywords {
		order = order[:MaxKeywords]
	}

	keywords := make([]string, len(order))
	for i, s := range order {
		keywords[i] = s.token
	}
	return keywords
}
