package schema

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/hbollon/go-edlib"
)

// MatchThreshold is the similarity a fuzzy candidate must exceed to be
// accepted. It is deliberately strict so near-misses do not bind to the
// wrong column.
const MatchThreshold = 85.0

// Weights applied by Similarity to the token and partial scores.
const (
	unbaseScale       = 0.95
	partialScale      = 0.9
	longPartialScale  = 0.6
	partialLenRatio   = 1.5
	longPartialCutoff = 8.0
)

// Matcher resolves free-text tokens to column names.
type Matcher struct {
	idx   *Index
	lower []string
}

// NewMatcher creates a Matcher over the index's columns.
func NewMatcher(idx *Index) *Matcher {
	names := idx.Names()
	lower := make([]string, len(names))
	for i, n := range names {
		lower[i] = strings.ToLower(n)
	}
	return &Matcher{idx: idx, lower: lower}
}

// Match returns the column a token refers to.
//
// An exact case-insensitive match wins immediately. Otherwise the column
// with the highest Similarity wins if its score exceeds MatchThreshold.
// When several columns share the top score the first in table order wins.
func (m *Matcher) Match(token string) (string, bool) {
	if name, ok := m.idx.Lookup(token); ok {
		return name, true
	}

	name, score := m.Score(token)
	if name == "" || score <= MatchThreshold {
		return "", false
	}
	return name, true
}

// Score returns the best candidate column for a token and its similarity,
// without applying the threshold. It returns "" for an empty schema.
func (m *Matcher) Score(token string) (string, float64) {
	token = strings.ToLower(token)
	names := m.idx.Names()

	best := -1
	bestScore := -1.0
	for i, candidate := range m.lower {
		score := Similarity(token, candidate)
		if score > bestScore {
			best = i
			bestScore = score
		}
	}

	if best < 0 {
		return "", 0
	}
	return names[best], bestScore
}

// Similarity returns a weighted similarity in [0,100] between two strings.
//
// The base score is the Indel ratio. Strings of similar length also try a
// word-order-insensitive comparison; when one string is at least half as
// long again as the other, the shorter is compared against the best-aligned
// slice of the longer, so prefixes like "rev" still score well against
// "revenue". Comparison is by rune and case-sensitive; callers lowercase.
// Either string being empty scores 0.
func Similarity(a, b string) float64 {
	la := utf8.RuneCountInString(a)
	lb := utf8.RuneCountInString(b)
	if la == 0 || lb == 0 {
		return 0
	}

	score := Ratio(a, b)
	lenRatio := float64(max(la, lb)) / float64(min(la, lb))
	if lenRatio < partialLenRatio {
		return max(score, tokenRatio(a, b)*unbaseScale)
	}

	scale := partialScale
	if lenRatio >= longPartialCutoff {
		scale = longPartialScale
	}
	score = max(score, PartialRatio(a, b)*scale)
	return max(score, partialTokenRatio(a, b)*unbaseScale*scale)
}

// Ratio is the normalized Indel similarity 100 * 2*LCS / (|a|+|b|).
func Ratio(a, b string) float64 {
	total := utf8.RuneCountInString(a) + utf8.RuneCountInString(b)
	if total == 0 {
		return 100
	}
	return 100 * float64(2*edlib.LCS(a, b)) / float64(total)
}

// PartialRatio returns the best Ratio between the shorter string and any
// equally long window of the longer one, including windows that hang off
// either end.
func PartialRatio(a, b string) float64 {
	short, long := []rune(a), []rune(b)
	if len(short) > len(long) {
		short, long = long, short
	}
	if len(short) == 0 {
		return 0
	}

	s := string(short)
	best := 0.0
	for i := 1 - len(short); i < len(long); i++ {
		window := string(long[max(i, 0):min(i+len(short), len(long))])
		if score := Ratio(s, window); score > best {
			best = score
			if best == 100 {
				break
			}
		}
	}
	return best
}

func tokenRatio(a, b string) float64 {
	ta, tb := tokenSet(a), tokenSet(b)
	score := Ratio(strings.Join(ta, " "), strings.Join(tb, " "))

	common, onlyA, onlyB := splitTokens(ta, tb)
	if len(common) == 0 {
		return score
	}
	if len(onlyA) == 0 || len(onlyB) == 0 {
		return 100
	}
	sect := strings.Join(common, " ")
	withA := sect + " " + strings.Join(onlyA, " ")
	withB := sect + " " + strings.Join(onlyB, " ")
	return max(score, Ratio(sect, withA), Ratio(sect, withB), Ratio(withA, withB))
}

func partialTokenRatio(a, b string) float64 {
	ta, tb := tokenSet(a), tokenSet(b)
	if common, _, _ := splitTokens(ta, tb); len(common) > 0 {
		return 100
	}
	return PartialRatio(strings.Join(ta, " "), strings.Join(tb, " "))
}

// tokenSet returns the sorted distinct whitespace-separated words of s.
func tokenSet(s string) []string {
	seen := make(map[string]bool)
	var tokens []string
	for _, f := range strings.Fields(s) {
		if !seen[f] {
			seen[f] = true
			tokens = append(tokens, f)
		}
	}
	sort.Strings(tokens)
	return tokens
}

func splitTokens(a, b []string) (common, onlyA, onlyB []string) {
	inB := make(map[string]bool, len(b))
	for _, t := range b {
		inB[t] = true
	}
	inA := make(map[string]bool, len(a))
	for _, t := range a {
		inA[t] = true
		if inB[t] {
			common = append(common, t)
		} else {
			onlyA = append(onlyA, t)
		}
	}
	for _, t := range b {
		if !inA[t] {
			onlyB = append(onlyB, t)
		}
	}
	return common, onlyA, onlyB
}
