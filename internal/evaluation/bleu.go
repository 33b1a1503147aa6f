package evaluation

import (
	"fmt"
	"math"
	"strings"
)

// BLEUEvaluator scores candidate answers with sentence-level BLEU: modified
// n-gram precision with a brevity penalty, geometric mean over orders.
// The effective order is clipped to the shorter of the two token sequences
// so that short ground-truth answers (typical in VQA) are not scored zero
// for lacking 4-grams. No smoothing: disjoint unigrams score exactly 0 and
// identical strings score exactly 1.
type BLEUEvaluator struct {
	maxOrder  int
	normalize func(string) string
}

func NewBLEUEvaluator(maxOrder int, normalizeText bool) *BLEUEvaluator {
	if maxOrder < 1 {
		maxOrder = 4
	}
	norm := identity
	if normalizeText {
		norm = NormalizeArabic
	}
	return &BLEUEvaluator{maxOrder: maxOrder, normalize: norm}
}

func (e *BLEUEvaluator) Name() string { return "bleu" }

func (e *BLEUEvaluator) Evaluate(candidate, reference string) (Score, error) {
	if err := checkInputs(candidate, reference); err != nil {
		return Score{}, err
	}

	cand := tokenize(e.normalize(candidate))
	ref := tokenize(e.normalize(reference))
	if len(cand) == 0 {
		return Score{Value: 0, Details: map[string]float64{"brevity_penalty": 0}}, nil
	}

	order := e.maxOrder
	if len(cand) < order {
		order = len(cand)
	}
	if len(ref) < order {
		order = len(ref)
	}
	if order < 1 {
		order = 1
	}

	details := make(map[string]float64, order+1)
	logSum := 0.0
	zeroPrecision := false
	for n := 1; n <= order; n++ {
		p := modifiedPrecision(cand, ref, n)
		details[fmt.Sprintf("p%d", n)] = p
		if p == 0 {
			zeroPrecision = true
			continue
		}
		logSum += math.Log(p)
	}

	bp := 1.0
	if len(cand) < len(ref) {
		bp = math.Exp(1 - float64(len(ref))/float64(len(cand)))
	}
	details["brevity_penalty"] = bp

	if zeroPrecision {
		return Score{Value: 0, Details: details}, nil
	}

	value := clamp01(bp * math.Exp(logSum/float64(order)))
	return Score{Value: value, Details: details}, nil
}

// modifiedPrecision counts candidate n-grams clipped by their reference
// occurrence counts.
func modifiedPrecision(cand, ref []string, n int) float64 {
	candCounts := ngramCounts(cand, n)
	if len(candCounts) == 0 {
		return 0
	}
	refCounts := ngramCounts(ref, n)

	matched := 0
	total := 0
	for gram, count := range candCounts {
		total += count
		if refCount, ok := refCounts[gram]; ok {
			if count < refCount {
				matched += count
			} else {
				matched += refCount
			}
		}
	}
	if total == 0 {
		return 0
	}
	return float64(matched) / float64(total)
}

func ngramCounts(tokens []string, n int) map[string]int {
	counts := make(map[string]int)
	for i := 0; i+n <= len(tokens); i++ {
		counts[strings.Join(tokens[i:i+n], "\x1f")]++
	}
	return counts
}
