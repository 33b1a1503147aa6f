package transport

import (
	"context"
	"encoding/json"
	"image"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mahmood-Anaam/arabic-visual-question-answering/internal/apperrors"
	"github.com/Mahmood-Anaam/arabic-visual-question-answering/internal/config"
	"github.com/Mahmood-Anaam/arabic-visual-question-answering/internal/evaluation"
	"github.com/Mahmood-Anaam/arabic-visual-question-answering/internal/pipeline"
)

type stubCaptioner struct {
	caption string
	err     error
}

func (s *stubCaptioner) Name() string { return "stub-captioner" }
func (s *stubCaptioner) Close() error { return nil }
func (s *stubCaptioner) Caption(ctx context.Context, img image.Image) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return s.caption, nil
}

type stubAnswerer struct {
	answer string
	err    error
}

func (s *stubAnswerer) Name() string { return "stub-answerer" }
func (s *stubAnswerer) Close() error { return nil }
func (s *stubAnswerer) Answer(ctx context.Context, captionText, question string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return s.answer, nil
}

type stubFetcher struct {
	err error
}

func (s *stubFetcher) FetchImage(ctx context.Context, ref string) (image.Image, error) {
	if s.err != nil {
		return nil, s.err
	}
	return image.NewRGBA(image.Rect(0, 0, 1, 1)), nil
}

func newTestHandler(captioner *stubCaptioner, answerer *stubAnswerer, fetcher *stubFetcher) http.Handler {
	cfg := config.Default()
	cfg.Server.RequestTimeout = config.Duration(5 * time.Second)
	p := pipeline.New(captioner, answerer)
	e := evaluation.NewWordErrorEvaluator(false)
	return NewHandler(p, e, fetcher, cfg)
}

func postAnswer(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/v1/answer", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestAnswerEndpoint_Success(t *testing.T) {
	h := newTestHandler(
		&stubCaptioner{caption: "قطة سوداء"},
		&stubAnswerer{answer: "أسود"},
		&stubFetcher{},
	)

	rec := postAnswer(t, h, `{"image_url":"http://images.local/cat.jpg","question":"ما لون القطة؟"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp AnswerResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "قطة سوداء", resp.Caption)
	assert.Equal(t, "أسود", resp.Answer)
	assert.True(t, resp.Answered)
	assert.Empty(t, resp.AnswerError)
	assert.Nil(t, resp.Score)
}

func TestAnswerEndpoint_ScoresAgainstReference(t *testing.T) {
	h := newTestHandler(
		&stubCaptioner{caption: "قطة سوداء"},
		&stubAnswerer{answer: "أسود"},
		&stubFetcher{},
	)

	rec := postAnswer(t, h, `{"image_url":"http://images.local/cat.jpg","question":"ما لون القطة؟","reference":"أسود"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp AnswerResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Score)
	assert.InDelta(t, 1.0, *resp.Score, 1e-9)
	assert.Equal(t, "wer", resp.Metric)
}

func TestAnswerEndpoint_MissingFields(t *testing.T) {
	h := newTestHandler(&stubCaptioner{caption: "c"}, &stubAnswerer{answer: "a"}, &stubFetcher{})

	rec := postAnswer(t, h, `{"image_url":"http://images.local/cat.jpg"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = postAnswer(t, h, `{"question":"سؤال"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAnswerEndpoint_FetchFailure(t *testing.T) {
	h := newTestHandler(
		&stubCaptioner{caption: "c"},
		&stubAnswerer{answer: "a"},
		&stubFetcher{err: apperrors.NewInvalidInputError("undecodable image payload", nil)},
	)

	rec := postAnswer(t, h, `{"image_url":"http://images.local/cat.jpg","question":"سؤال"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestAnswerEndpoint_CaptionFailureIsHTTPError(t *testing.T) {
	h := newTestHandler(
		&stubCaptioner{err: apperrors.NewBackendUnavailableError("caption server unreachable", nil)},
		&stubAnswerer{answer: "unused"},
		&stubFetcher{},
	)

	rec := postAnswer(t, h, `{"image_url":"http://images.local/cat.jpg","question":"سؤال"}`)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestAnswerEndpoint_AnswerFailureIsSoft(t *testing.T) {
	h := newTestHandler(
		&stubCaptioner{caption: "وصف الصورة"},
		&stubAnswerer{err: apperrors.NewBackendUnavailableError("rate limited", nil)},
		&stubFetcher{},
	)

	rec := postAnswer(t, h, `{"image_url":"http://images.local/cat.jpg","question":"سؤال","reference":"نعم"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp AnswerResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "وصف الصورة", resp.Caption)
	assert.False(t, resp.Answered)
	assert.NotEmpty(t, resp.AnswerError)
	assert.Nil(t, resp.Score, "an unanswered item must not be scored")
}

func TestHealthz(t *testing.T) {
	h := newTestHandler(&stubCaptioner{caption: "c"}, &stubAnswerer{answer: "a"}, &stubFetcher{})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "available", body["status"])
	assert.Equal(t, "stub-captioner", body["captioner"])
	assert.Equal(t, "wer", body["metric"])
}
