package catalog

import (
	"strings"

	"github.com/minhle/prodcat/internal/llm"
	"github.com/minhle/prodcat/internal/models"
)

// Match is the reconciliation outcome for one batch item. UsedFallback marks
// a positional match, which is a weaker guarantee than a name match and is
// logged by the engine.
type Match struct {
	Result       llm.Result
	Found        bool
	UsedFallback bool
}

// normalizeName lowercases and collapses whitespace so the provider's echo
// of a name still matches after minor reformatting.
func normalizeName(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// matchResults reconciles AI results onto a batch, in batch order. Stage one
// is a case-insensitive, whitespace-normalized exact name match. Stage two,
// only when the result count equals the batch count, aligns the remaining
// items by position; the provider sometimes paraphrases names, and an
// equal-length response is strong evidence of input ordering. Items matched
// neither way come back with Found == false.
func matchResults(batch []models.Product, results []llm.Result) []Match {
	byName := make(map[string]llm.Result, len(results))
	for _, r := range results {
		key := normalizeName(r.Name)
		if _, exists := byName[key]; !exists {
			byName[key] = r
		}
	}

	positional := len(results) == len(batch)

	matches := make([]Match, len(batch))
	for i, item := range batch {
		if r, ok := byName[normalizeName(item.Name)]; ok {
			matches[i] = Match{Result: r, Found: true}
			continue
		}
		if positional {
			matches[i] = Match{Result: results[i], Found: true, UsedFallback: true}
			continue
		}
		matches[i] = Match{}
	}
	return matches
}
