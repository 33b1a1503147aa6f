package batch

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mahmood-Anaam/arabic-visual-question-answering/internal/apperrors"
	"github.com/Mahmood-Anaam/arabic-visual-question-answering/internal/dataset"
	"github.com/Mahmood-Anaam/arabic-visual-question-answering/internal/evaluation"
	"github.com/Mahmood-Anaam/arabic-visual-question-answering/internal/pipeline"
)

type fakeCaptioner struct{}

func (fakeCaptioner) Name() string { return "fake-captioner" }
func (fakeCaptioner) Close() error { return nil }
func (fakeCaptioner) Caption(ctx context.Context, img image.Image) (string, error) {
	return "وصف ثابت للصورة", nil
}

// fakeAnswerer echoes the question as the answer, except for questions
// marked to fail, which simulate a flaky remote backend.
type fakeAnswerer struct{}

func (fakeAnswerer) Name() string { return "fake-answerer" }
func (fakeAnswerer) Close() error { return nil }
func (fakeAnswerer) Answer(ctx context.Context, captionText, question string) (string, error) {
	if strings.HasPrefix(question, "FAIL") {
		return "", apperrors.NewBackendUnavailableError("simulated rate limit", nil)
	}
	return question, nil
}

// fakeFetcher returns a fixed image for every ref, failing refs aside.
type fakeFetcher struct{}

func (fakeFetcher) FetchImage(ctx context.Context, ref string) (image.Image, error) {
	if strings.HasPrefix(ref, "broken://") {
		return nil, apperrors.NewInvalidInputError("undecodable image payload", nil)
	}
	return image.NewRGBA(image.Rect(0, 0, 1, 1)), nil
}

func newTestRunner(items []dataset.Item) *Runner {
	p := pipeline.New(fakeCaptioner{}, fakeAnswerer{})
	e := evaluation.NewWordErrorEvaluator(false)
	d := dataset.NewMemoryDataset("unit", items)
	return NewRunner(p, e, fakeFetcher{}, d, 0.5)
}

func matchingItems(n int) []dataset.Item {
	items := make([]dataset.Item, n)
	for i := range items {
		q := fmt.Sprintf("question %d", i)
		items[i] = dataset.Item{
			QuestionID: fmt.Sprintf("q%d", i),
			ImageID:    fmt.Sprintf("img%d", i),
			ImageRef:   fmt.Sprintf("http://images.local/%d.jpg", i),
			Question:   q,
			References: []string{q}, // echo answerer scores 1.0
		}
	}
	return items
}

func TestRun_AllItemsSucceed(t *testing.T) {
	r := newTestRunner(matchingItems(4))

	report, err := r.Run(context.Background(), Options{Workers: 1})
	require.NoError(t, err)

	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, "unit", report.Dataset)
	assert.Equal(t, "fake-captioner", report.Captioner)
	assert.Equal(t, "fake-answerer", report.Answerer)
	assert.Equal(t, 4, report.Summary.Items)
	assert.Equal(t, 4, report.Summary.Succeeded)
	assert.Zero(t, report.Summary.Failed)
	assert.Equal(t, 4, report.Summary.Scored)
	assert.Equal(t, 4, report.Summary.Passed)
	assert.InDelta(t, 1.0, report.Summary.MeanScore, 1e-9)
}

func TestRun_SingleAnswerFailureIsIsolated(t *testing.T) {
	const n = 5
	const failing = 2
	items := matchingItems(n)
	items[failing].Question = "FAIL " + items[failing].Question

	r := newTestRunner(items)
	report, err := r.Run(context.Background(), Options{Workers: 1})
	require.NoError(t, err)

	assert.Equal(t, 1, report.Summary.Failed)
	assert.Equal(t, n-1, report.Summary.Succeeded)

	failed := report.Items[failing]
	assert.Equal(t, StageAnswer, failed.ErrorStage)
	assert.NotEmpty(t, failed.Caption, "caption must survive an answering failure")
	assert.Empty(t, failed.Answer)
	assert.Nil(t, failed.Score)

	for i, item := range report.Items {
		if i == failing {
			continue
		}
		require.NotNil(t, item.Score, "item %d", i)
		assert.InDelta(t, 1.0, *item.Score, 1e-9)
	}
}

func TestRun_FetchFailureRecorded(t *testing.T) {
	items := matchingItems(3)
	items[0].ImageRef = "broken://0.jpg"

	r := newTestRunner(items)
	report, err := r.Run(context.Background(), Options{Workers: 1})
	require.NoError(t, err)

	assert.Equal(t, StageFetch, report.Items[0].ErrorStage)
	assert.Nil(t, report.Items[0].Score)
	assert.Equal(t, 1, report.Summary.Failed)
	assert.Equal(t, 2, report.Summary.Succeeded)
}

func TestRun_ParallelWorkersKeepIndexOrder(t *testing.T) {
	const n = 20
	r := newTestRunner(matchingItems(n))

	report, err := r.Run(context.Background(), Options{Workers: 8})
	require.NoError(t, err)

	require.Len(t, report.Items, n)
	for i, item := range report.Items {
		assert.Equal(t, i, item.Index)
		assert.Equal(t, fmt.Sprintf("q%d", i), item.QuestionID)
	}
	assert.Equal(t, n, report.Summary.Succeeded)
}

func TestRun_LimitAppliesBeforeWorkers(t *testing.T) {
	r := newTestRunner(matchingItems(10))

	report, err := r.Run(context.Background(), Options{Workers: 4, Limit: 3})
	require.NoError(t, err)
	assert.Equal(t, 3, report.Summary.Items)
	assert.Len(t, report.Items, 3)
}

func TestRun_BestScoreAcrossReferences(t *testing.T) {
	items := matchingItems(1)
	items[0].References = []string{"something else entirely", items[0].Question}

	r := newTestRunner(items)
	report, err := r.Run(context.Background(), Options{})
	require.NoError(t, err)

	require.NotNil(t, report.Items[0].Score)
	assert.InDelta(t, 1.0, *report.Items[0].Score, 1e-9)
}

func TestSummarize_EmptyRun(t *testing.T) {
	s := summarize(nil, 0.5)
	assert.Zero(t, s.Items)
	assert.Zero(t, s.MeanScore)
}

func TestWriteJSON_RoundTrip(t *testing.T) {
	r := newTestRunner(matchingItems(2))
	report, err := r.Run(context.Background(), Options{})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "report.json")
	require.NoError(t, WriteJSON(report, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var reloaded Report
	require.NoError(t, json.Unmarshal(data, &reloaded))
	assert.Equal(t, report.RunID, reloaded.RunID)
	assert.Equal(t, report.Summary, reloaded.Summary)
	assert.Len(t, reloaded.Items, 2)
}

func TestWriteCSV(t *testing.T) {
	items := matchingItems(2)
	items[1].Question = "FAIL " + items[1].Question

	r := newTestRunner(items)
	report, err := r.Run(context.Background(), Options{})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "report.csv")
	require.NoError(t, WriteCSV(report, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3) // header + 2 items
	assert.Contains(t, lines[0], "error_stage")
	assert.Contains(t, lines[2], StageAnswer)
}
