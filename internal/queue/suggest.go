package queue

import (
	"strings"

	"github.com/hbollon/go-edlib"
)

// minimumSuggestionScore is the Jaro-Winkler similarity below which no
// library is suggested.
const minimumSuggestionScore = 0.70

// suggestLibrary returns the library name closest to name, or "" when none
// is similar enough.
func suggestLibrary(name string, candidates []string) string {
	normalized := strings.ToLower(strings.TrimSpace(name))

	var best string
	var bestScore float64
	for _, candidate := range candidates {
		score := float64(edlib.JaroWinklerSimilarity(normalized, strings.ToLower(candidate)))
		if score > bestScore {
			best, bestScore = candidate, score
		}
	}
	if bestScore < minimumSuggestionScore {
		return ""
	}
	return best
}

func joinHints(hints []string) string {
	return strings.Join(hints, ", ")
}
