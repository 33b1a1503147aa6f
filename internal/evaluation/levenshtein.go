package evaluation

import (
	"github.com/arbovm/levenshtein"
)

// LevenshteinEvaluator scores character-level similarity:
// 1 - distance / max(len(candidate), len(reference)), over runes.
// More forgiving than word-level metrics for single-word Arabic answers
// that differ only in orthography.
type LevenshteinEvaluator struct {
	normalize func(string) string
}

func NewLevenshteinEvaluator(normalizeText bool) *LevenshteinEvaluator {
	norm := identity
	if normalizeText {
		norm = NormalizeArabic
	}
	return &LevenshteinEvaluator{normalize: norm}
}

func (e *LevenshteinEvaluator) Name() string { return "levenshtein" }

func (e *LevenshteinEvaluator) Evaluate(candidate, reference string) (Score, error) {
	if err := checkInputs(candidate, reference); err != nil {
		return Score{}, err
	}

	cand := e.normalize(candidate)
	ref := e.normalize(reference)

	candLen := len([]rune(cand))
	refLen := len([]rune(ref))
	maxLen := candLen
	if refLen > maxLen {
		maxLen = refLen
	}
	if maxLen == 0 {
		return Score{Value: 1, Details: map[string]float64{"distance": 0}}, nil
	}

	distance := levenshtein.Distance(cand, ref)
	return Score{
		Value: clamp01(1 - float64(distance)/float64(maxLen)),
		Details: map[string]float64{
			"distance": float64(distance),
		},
	}, nil
}
