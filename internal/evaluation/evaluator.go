package evaluation

import (
	"strings"
	"unicode/utf8"

	"github.com/Mahmood-Anaam/arabic-visual-question-answering/internal/apperrors"
)

// Score is the outcome of comparing a candidate answer against a reference.
// Value is always in [0,1]. Details carries metric-specific auxiliaries.
type Score struct {
	Value   float64            `json:"value"`
	Details map[string]float64 `json:"details,omitempty"`
}

// Evaluator scores a candidate answer against a reference answer.
// Implementations must be pure: no side effects, and identical inputs always
// yield the identical score, so cached answers can be re-scored offline.
type Evaluator interface {
	Name() string
	Evaluate(candidate, reference string) (Score, error)
}

// checkInputs rejects text the metrics cannot score meaningfully.
// An empty candidate against a non-empty reference is a legitimate zero,
// but two empty strings or invalid UTF-8 is malformed input.
func checkInputs(candidate, reference string) error {
	if !utf8.ValidString(candidate) || !utf8.ValidString(reference) {
		return apperrors.NewInvalidInputError("candidate and reference must be valid UTF-8", nil)
	}
	if strings.TrimSpace(reference) == "" {
		return apperrors.NewInvalidInputError("reference answer must be non-empty text", nil)
	}
	return nil
}

func tokenize(s string) []string {
	return strings.Fields(s)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
