// Package batch runs experiments over a dataset: every item flows through
// the pipeline and the evaluator, and per-item failures are downgraded to
// recorded entries so a single backend hiccup never aborts a run.
package batch

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/Mahmood-Anaam/arabic-visual-question-answering/internal/dataset"
	"github.com/Mahmood-Anaam/arabic-visual-question-answering/internal/evaluation"
	"github.com/Mahmood-Anaam/arabic-visual-question-answering/internal/logger"
	"github.com/Mahmood-Anaam/arabic-visual-question-answering/internal/pipeline"
	"github.com/Mahmood-Anaam/arabic-visual-question-answering/internal/storage"
)

// Stages recorded on per-item failures.
const (
	StageDataset  = "dataset"
	StageFetch    = "fetch"
	StageCaption  = "caption"
	StageAnswer   = "answer"
	StageEvaluate = "evaluate"
)

// Options tunes one run. Workers > 1 processes independent items in
// parallel; each item's fetch -> caption -> answer -> evaluate sequence
// stays strictly ordered regardless.
type Options struct {
	Workers int
	Limit   int
}

// Runner drives a dataset through the pipeline and evaluator.
type Runner struct {
	pipeline      *pipeline.Pipeline
	evaluator     evaluation.Evaluator
	fetcher       storage.ImageFetcher
	dataset       dataset.Dataset
	passThreshold float64
}

func NewRunner(p *pipeline.Pipeline, e evaluation.Evaluator, f storage.ImageFetcher, d dataset.Dataset, passThreshold float64) *Runner {
	return &Runner{
		pipeline:      p,
		evaluator:     e,
		fetcher:       f,
		dataset:       d,
		passThreshold: passThreshold,
	}
}

// Run processes the first Limit items (all when Limit is 0). Each index owns
// its slot in the result slice, so parallel workers never share mutable
// state; the summary is computed after the group finishes. Only context
// cancellation aborts a run.
func (r *Runner) Run(ctx context.Context, opts Options) (*Report, error) {
	total := r.dataset.Len()
	if opts.Limit > 0 && opts.Limit < total {
		total = opts.Limit
	}
	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}

	started := time.Now()
	items := make([]ItemResult, total)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := 0; i < total; i++ {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			items[i] = r.processItem(gctx, i)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	report := &Report{
		RunID:     uuid.NewString(),
		Dataset:   r.dataset.Name(),
		Captioner: r.pipeline.CaptionerName(),
		Answerer:  r.pipeline.AnswererName(),
		Metric:    r.evaluator.Name(),
		StartedAt: started.UTC(),
		Elapsed:   time.Since(started),
		Items:     items,
	}
	report.Summary = summarize(items, r.passThreshold)

	logger.WithFields(logrus.Fields{
		"run_id":     report.RunID,
		"dataset":    report.Dataset,
		"items":      report.Summary.Items,
		"succeeded":  report.Summary.Succeeded,
		"failed":     report.Summary.Failed,
		"mean_score": report.Summary.MeanScore,
	}).Info("Batch run completed")

	return report, nil
}

func (r *Runner) processItem(ctx context.Context, index int) (rec ItemResult) {
	start := time.Now()
	rec = ItemResult{Index: index}
	defer func() {
		rec.Latency = time.Since(start)
	}()

	item, err := r.dataset.Item(index)
	if err != nil {
		return rec.fail(StageDataset, err)
	}
	rec.QuestionID = item.QuestionID
	rec.ImageID = item.ImageID

	img, err := r.fetcher.FetchImage(ctx, item.ImageRef)
	if err != nil {
		return rec.fail(StageFetch, err)
	}

	result, err := r.pipeline.Process(ctx, img, item.Question)
	if err != nil {
		return rec.fail(StageCaption, err)
	}
	rec.Caption = result.Caption

	if !result.Answered() {
		return rec.fail(StageAnswer, result.AnswerErr)
	}
	rec.Answer = result.Answer

	best, err := r.bestScore(result.Answer, item.AllReferences())
	if err != nil {
		return rec.fail(StageEvaluate, err)
	}
	rec.Score = &best
	return rec
}

// bestScore scores the answer against every reference and keeps the best,
// the usual treatment of multi-annotator VQA ground truth.
func (r *Runner) bestScore(answer string, references []string) (float64, error) {
	var best float64
	var lastErr error
	scored := false
	for _, ref := range references {
		score, err := r.evaluator.Evaluate(answer, ref)
		if err != nil {
			lastErr = err
			continue
		}
		scored = true
		if score.Value > best {
			best = score.Value
		}
	}
	if !scored {
		if lastErr != nil {
			return 0, lastErr
		}
		return 0, errNoReferences
	}
	return best, nil
}

func (rec ItemResult) fail(stage string, err error) ItemResult {
	rec.ErrorStage = stage
	rec.Error = err.Error()
	logger.WithError(err).WithFields(logrus.Fields{
		"index": rec.Index,
		"stage": stage,
	}).Warn("Dataset item failed")
	return rec
}
