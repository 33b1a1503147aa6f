package evaluation

// WordErrorEvaluator scores 1 - WER, clamped to [0,1]. WER is the word-level
// edit distance between candidate and reference divided by the reference
// length, the standard transcript metric applied to answer text.
type WordErrorEvaluator struct {
	normalize func(string) string
}

func NewWordErrorEvaluator(normalizeText bool) *WordErrorEvaluator {
	norm := identity
	if normalizeText {
		norm = NormalizeArabic
	}
	return &WordErrorEvaluator{normalize: norm}
}

func (e *WordErrorEvaluator) Name() string { return "wer" }

func (e *WordErrorEvaluator) Evaluate(candidate, reference string) (Score, error) {
	if err := checkInputs(candidate, reference); err != nil {
		return Score{}, err
	}

	cand := tokenize(e.normalize(candidate))
	ref := tokenize(e.normalize(reference))
	if len(ref) == 0 {
		// Normalization can strip a reference down to nothing.
		if len(cand) == 0 {
			return Score{Value: 1, Details: map[string]float64{"wer": 0}}, nil
		}
		return Score{Value: 0, Details: map[string]float64{"wer": 1}}, nil
	}

	distance := editDistance(cand, ref)
	wer := float64(distance) / float64(len(ref))
	return Score{
		Value: clamp01(1 - wer),
		Details: map[string]float64{
			"wer":           wer,
			"edit_distance": float64(distance),
		},
	}, nil
}

// editDistance is the Levenshtein distance over token sequences, two-row DP.
func editDistance(a, b []string) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := 0; j <= len(b); j++ {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min3(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

func min3(a, b, c int) int {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}
