package batch

import (
	"errors"
	"time"
)

var errNoReferences = errors.New("item has no scorable reference answer")

// ItemResult is the recorded outcome for one dataset item. A failed item
// keeps whatever stages completed (an answer failure still carries the
// caption) and has a nil Score.
type ItemResult struct {
	Index      int           `json:"index"`
	QuestionID string        `json:"question_id,omitempty"`
	ImageID    string        `json:"image_id,omitempty"`
	Caption    string        `json:"caption,omitempty"`
	Answer     string        `json:"answer,omitempty"`
	Score      *float64      `json:"score"`
	ErrorStage string        `json:"error_stage,omitempty"`
	Error      string        `json:"error,omitempty"`
	Latency    time.Duration `json:"latency_ns"`
}

// Failed reports whether the item was recorded as a failure.
func (r ItemResult) Failed() bool { return r.ErrorStage != "" }

// Summary are the batch-level statistics. Failed is always populated so a
// run can never silently lose items.
type Summary struct {
	Items       int           `json:"items"`
	Succeeded   int           `json:"succeeded"`
	Failed      int           `json:"failed"`
	Scored      int           `json:"scored"`
	Passed      int           `json:"passed"`
	MeanScore   float64       `json:"mean_score"`
	MeanLatency time.Duration `json:"mean_latency_ns"`
}

// Report is the structured result of one batch run.
type Report struct {
	RunID     string        `json:"run_id"`
	Dataset   string        `json:"dataset"`
	Captioner string        `json:"captioner"`
	Answerer  string        `json:"answerer"`
	Metric    string        `json:"metric"`
	StartedAt time.Time     `json:"started_at"`
	Elapsed   time.Duration `json:"elapsed_ns"`
	Items     []ItemResult  `json:"items"`
	Summary   Summary       `json:"summary"`
}

// summarize aggregates per-item results. Failed items are counted but
// excluded from the score mean; latency is averaged over everything that
// ran.
func summarize(items []ItemResult, passThreshold float64) Summary {
	s := Summary{Items: len(items)}

	var scoreSum float64
	var latencySum time.Duration
	for _, item := range items {
		latencySum += item.Latency
		if item.Failed() {
			s.Failed++
			continue
		}
		s.Succeeded++
		if item.Score != nil {
			s.Scored++
			scoreSum += *item.Score
			if *item.Score >= passThreshold {
				s.Passed++
			}
		}
	}

	if s.Scored > 0 {
		s.MeanScore = scoreSum / float64(s.Scored)
	}
	if len(items) > 0 {
		s.MeanLatency = latencySum / time.Duration(len(items))
	}
	return s
}
