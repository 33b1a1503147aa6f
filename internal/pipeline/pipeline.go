// Package pipeline composes one Captioner and one Answerer into the
// per-item inference flow image -> caption -> answer. Scoring stays outside:
// experiments re-score cached answers under different metrics without
// re-running inference.
package pipeline

import (
	"context"
	"image"
	"time"

	"github.com/Mahmood-Anaam/arabic-visual-question-answering/internal/answering"
	"github.com/Mahmood-Anaam/arabic-visual-question-answering/internal/captioning"
)

// Result is the outcome of one Process call. When the answerer fails the
// caption is still carried, with AnswerErr holding the failure reason.
type Result struct {
	Caption   string
	Answer    string
	AnswerErr error
	Elapsed   time.Duration
}

// Answered reports whether the answering stage produced an answer.
func (r *Result) Answered() bool {
	return r.AnswerErr == nil
}

// Pipeline owns exactly one Captioner and one Answerer. The component set is
// fixed at construction; swapping an implementation means constructing a new
// Pipeline, which rules out mid-run inconsistency.
type Pipeline struct {
	captioner captioning.Captioner
	answerer  answering.Answerer
}

func New(captioner captioning.Captioner, answerer answering.Answerer) *Pipeline {
	return &Pipeline{captioner: captioner, answerer: answerer}
}

// Process runs caption then answer for a single (image, question) pair.
//
// The two stages fail differently on purpose: a captioning failure means the
// input is unusable, so it propagates and the answerer is never invoked; an
// answering failure usually means backend flakiness (rate limits, transient
// network errors), so it is absorbed into a partial Result rather than
// aborting, letting batch experiments isolate it per item.
func (p *Pipeline) Process(ctx context.Context, img image.Image, question string) (*Result, error) {
	start := time.Now()

	caption, err := p.captioner.Caption(ctx, img)
	if err != nil {
		return nil, err
	}

	result := &Result{Caption: caption}
	answer, err := p.answerer.Answer(ctx, caption, question)
	if err != nil {
		result.AnswerErr = err
	} else {
		result.Answer = answer
	}

	result.Elapsed = time.Since(start)
	return result, nil
}

// CaptionerName exposes the backend identifier for reporting.
func (p *Pipeline) CaptionerName() string { return p.captioner.Name() }

// AnswererName exposes the backend identifier for reporting.
func (p *Pipeline) AnswererName() string { return p.answerer.Name() }
