package similarity

import (
	"strings"
	"unicode"
)

// TitleScore compares a search query against a movie title and returns a
// relevance score between 0.0 (no overlap) and 1.0 (identical). Titles are
// normalized before comparison, so "Se7en!" and "se7en" score 1.0.
//
// Queries that are a prefix of the title score highly so that partial typing
// ("dark kni") still ranks "The Dark Knight" above fuzzier matches.
func TitleScore(query, title string) float64 {
	query = normalize(query)
	title = normalize(title)

	if query == title {
		return 1.0
	}
	if query == "" || title == "" {
		return 0.0
	}

	if score := containmentScore(query, title); score > 0 {
		return score
	}

	distance := levenshtein(query, title)
	longest := max(len(query), len(title))
	return 1.0 - float64(distance)/float64(longest)
}

// containmentScore rewards the query appearing as a whole-word substring of
// the title. Longer coverage of the title scores higher, capped below 1.0 so
// exact matches always win.
func containmentScore(query, title string) float64 {
	idx := strings.Index(title, query)
	if idx < 0 {
		return 0
	}
	if idx > 0 && title[idx-1] != ' ' {
		return 0
	}
	coverage := float64(len(query)) / float64(len(title))
	return 0.75 + coverage*0.2
}

// normalize lowercases, maps "&" to "and", strips punctuation, and collapses
// whitespace so title comparison is forgiving of formatting differences.
func normalize(s string) string {
	s = strings.ReplaceAll(s, "&", " and ")

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case unicode.IsSpace(r) || r == '.' || r == '-' || r == '_' || r == ':':
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// levenshtein computes the edit distance between two strings using two
// rolling rows instead of a full matrix.
func levenshtein(s1, s2 string) int {
	r1 := []rune(s1)
	r2 := []rune(s2)

	prev := make([]int, len(r2)+1)
	curr := make([]int, len(r2)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(r1); i++ {
		curr[0] = i
		for j := 1; j <= len(r2); j++ {
			cost := 1
			if r1[i-1] == r2[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}

	return prev[len(r2)]
}
