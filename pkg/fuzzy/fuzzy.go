package fuzzy

import (
	"strings"
	"unicode"
)

// Fields are the searchable parts of an item
type Fields struct {
	Title       string
	Description string
	Notes       string
	People      []string
}

// snippetLimit bounds how much long text is scanned word by word
const snippetLimit = 500

// LevenshteinDistance is the number of single-rune insertions, deletions or
// substitutions that turn s1 into s2, after normalisation.
func LevenshteinDistance(s1, s2 string) int {
	r1 := []rune(normalize(s1))
	r2 := []rune(normalize(s2))

	if len(r1) == 0 {
		return len(r2)
	}
	if len(r2) == 0 {
		return len(r1)
	}

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
			curr[j] = min(
				prev[j]+1,      // deletion
				curr[j-1]+1,    // insertion
				prev[j-1]+cost, // substitution
			)
		}
		prev, curr = curr, prev
	}
	return prev[len(r2)]
}

// Threshold is the typo tolerance for a query of the given length
func Threshold(query string) int {
	n := len([]rune(normalize(query)))
	switch {
	case n <= 3:
		return 1
	case n >= 8:
		return 3
	default:
		return 2
	}
}

// FuzzyMatch checks if query fuzzy-matches text within threshold edits
func FuzzyMatch(query, text string, threshold int) bool {
	query = normalize(query)
	text = normalize(text)
	if query == "" {
		return false
	}

	if strings.Contains(text, query) {
		return true
	}

	for _, word := range strings.Fields(text) {
		if strings.HasPrefix(word, query) || LevenshteinDistance(query, word) <= threshold {
			return true
		}
	}

	// Short texts are also compared whole
	if len(text) < 50 {
		if LevenshteinDistance(query, text) <= threshold+len(query)/5 {
			return true
		}
	}
	return false
}

// Match reports whether any searchable field matches the query
func Match(query string, f Fields) bool {
	threshold := Threshold(query)
	if FuzzyMatch(query, f.Title, threshold) {
		return true
	}
	for _, p := range f.People {
		if FuzzyMatch(query, p, threshold) {
			return true
		}
	}
	return FuzzyMatch(query, snippet(f.Description), threshold) ||
		FuzzyMatch(query, snippet(f.Notes), threshold)
}

// Score ranks how relevant the fields are to the query. Higher is better.
// Title hits outweigh people, which outweigh description and notes.
func Score(query string, f Fields) float64 {
	query = normalize(query)
	if query == "" {
		return 0
	}

	score := fieldScore(query, f.Title, 100, 50)
	for _, p := range f.People {
		score += fieldScore(query, p, 80, 40)
	}
	score += fieldScore(query, snippet(f.Description), 40, 20)
	score += fieldScore(query, snippet(f.Notes), 30, 15)
	return score
}

// fieldScore awards exact containment, with a bonus for a whole-word hit,
// and otherwise partial credit for prefix and near-miss words.
func fieldScore(query, text string, exact, fuzzy float64) float64 {
	text = normalize(text)
	if text == "" {
		return 0
	}
	if strings.Contains(text, query) {
		if containsWord(text, query) {
			return exact * 1.5
		}
		return exact
	}

	best := 0.0
	for _, word := range strings.Fields(text) {
		s := 0.0
		if dist := LevenshteinDistance(query, word); dist <= 2 {
			s = fuzzy - float64(dist)*fuzzy/4
		}
		if strings.HasPrefix(word, query) {
			s += fuzzy * 0.8
		}
		if s > best {
			best = s
		}
	}
	return best
}

func snippet(s string) string {
	r := []rune(s)
	if len(r) > snippetLimit {
		return string(r[:snippetLimit])
	}
	return s
}

// normalize lowercases, folds accents and collapses whitespace
func normalize(s string) string {
	s = strings.ToLower(removeAccents(s))
	return strings.Join(strings.Fields(s), " ")
}

func containsWord(text, query string) bool {
	for _, word := range strings.Fields(text) {
		if strings.Trim(word, ".,;:!?\"'()") == query {
			return true
		}
	}
	return false
}

// removeAccents maps common Latin letters with diacritics to ASCII
func removeAccents(s string) string {
	var result strings.Builder
	for _, r := range s {
		if unicode.Is(unicode.Mn, r) { // Mn: Mark, nonspacing
			continue
		}
		switch r {
		case 'á', 'à', 'â', 'ä', 'ã', 'å', 'Á', 'À', 'Â', 'Ä', 'Ã', 'Å':
			result.WriteRune('a')
		case 'é', 'è', 'ê', 'ë', 'É', 'È', 'Ê', 'Ë':
			result.WriteRune('e')
		case 'í', 'ì', 'î', 'ï', 'Í', 'Ì', 'Î', 'Ï':
			result.WriteRune('i')
		case 'ó', 'ò', 'ô', 'ö', 'õ', 'Ó', 'Ò', 'Ô', 'Ö', 'Õ':
			result.WriteRune('o')
		case 'ú', 'ù', 'û', 'ü', 'Ú', 'Ù', 'Û', 'Ü':
			result.WriteRune('u')
		case 'ñ', 'Ñ':
			result.WriteRune('n')
		case 'ç', 'Ç':
			result.WriteRune('c')
		default:
			result.WriteRune(r)
		}
	}
	return result.String()
}
