package transport

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/Mahmood-Anaam/arabic-visual-question-answering/internal/apperrors"
	"github.com/Mahmood-Anaam/arabic-visual-question-answering/internal/config"
	"github.com/Mahmood-Anaam/arabic-visual-question-answering/internal/evaluation"
	"github.com/Mahmood-Anaam/arabic-visual-question-answering/internal/logger"
	"github.com/Mahmood-Anaam/arabic-visual-question-answering/internal/pipeline"
	"github.com/Mahmood-Anaam/arabic-visual-question-answering/internal/storage"
)

// AnswerRequest asks one question about one image. Reference is optional;
// when present the answer is also scored against it.
type AnswerRequest struct {
	ImageURL  string `json:"image_url" binding:"required,url"`
	Question  string `json:"question" binding:"required"`
	Reference string `json:"reference,omitempty"`
}

// AnswerResponse carries the pipeline result. A soft answering failure keeps
// the caption and reports the failure in answer_error instead of an HTTP
// error status.
type AnswerResponse struct {
	Caption     string   `json:"caption"`
	Answer      string   `json:"answer,omitempty"`
	Answered    bool     `json:"answered"`
	AnswerError string   `json:"answer_error,omitempty"`
	Score       *float64 `json:"score,omitempty"`
	Metric      string   `json:"metric,omitempty"`
	ElapsedMS   int64    `json:"elapsed_ms"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func validateImageURL(imageURL string) error {
	parsed, err := url.Parse(imageURL)
	if err != nil {
		return apperrors.NewInvalidInputError("invalid image URL", err)
	}
	if parsed.Host == "" {
		return apperrors.NewInvalidInputError("image URL must have a host", nil)
	}
	return nil
}

// NewHandler wires the HTTP surface over the pipeline. The evaluator is used
// only for requests that carry a reference answer.
func NewHandler(p *pipeline.Pipeline, e evaluation.Evaluator, f storage.ImageFetcher, cfg *config.Config) http.Handler {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(
		gin.Recovery(),
		requestSizeLimiter(cfg.Server.MaxRequestBodySize),
	)

	r.GET("/healthz", healthCheck(p, e))
	r.POST("/v1/answer", answerQuestion(p, e, f, cfg))

	return r
}

func answerQuestion(p *pipeline.Pipeline, e evaluation.Evaluator, f storage.ImageFetcher, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		started := time.Now()
		ctx, cancel := context.WithTimeout(c.Request.Context(), cfg.Server.RequestTimeout.Std())
		defer cancel()

		var req AnswerRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, http.StatusBadRequest, "invalid request format", err)
			return
		}
		if err := validateImageURL(req.ImageURL); err != nil {
			respondError(c, apperrors.GetStatusCode(err), "invalid image URL", err)
			return
		}

		logger.WithFields(logrus.Fields{
			"image_url": req.ImageURL,
			"ip":        c.ClientIP(),
		}).Info("Processing answer request")

		img, err := f.FetchImage(ctx, req.ImageURL)
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				err = apperrors.NewBackendUnavailableError("image fetch timed out", err)
			}
			respondError(c, apperrors.GetStatusCode(err), "failed to fetch image", err)
			return
		}

		result, err := p.Process(ctx, img, req.Question)
		if err != nil {
			respondError(c, apperrors.GetStatusCode(err), "captioning failed", err)
			return
		}

		resp := AnswerResponse{
			Caption:  result.Caption,
			Answer:   result.Answer,
			Answered: result.Answered(),
		}
		if result.AnswerErr != nil {
			resp.AnswerError = result.AnswerErr.Error()
		}

		if req.Reference != "" && result.Answered() {
			score, err := e.Evaluate(result.Answer, req.Reference)
			if err != nil {
				respondError(c, apperrors.GetStatusCode(err), "evaluation failed", err)
				return
			}
			resp.Score = &score.Value
			resp.Metric = e.Name()
		}

		resp.ElapsedMS = time.Since(started).Milliseconds()
		logger.WithFields(logrus.Fields{
			"image_url":  req.ImageURL,
			"answered":   resp.Answered,
			"elapsed_ms": resp.ElapsedMS,
		}).Info("Answer request completed")

		c.JSON(http.StatusOK, resp)
	}
}

func healthCheck(p *pipeline.Pipeline, e evaluation.Evaluator) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "available",
			"captioner": p.CaptionerName(),
			"answerer":  p.AnswererName(),
			"metric":    e.Name(),
			"time":      time.Now().UTC().Format(time.RFC3339),
		})
	}
}

func requestSizeLimiter(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

func respondError(c *gin.Context, code int, message string, err error) {
	logger.WithError(err).WithFields(logrus.Fields{
		"status_code": code,
		"path":        c.Request.URL.Path,
		"ip":          c.ClientIP(),
	}).Error("Request failed")

	c.AbortWithStatusJSON(code, ErrorResponse{
		Error:   http.StatusText(code),
		Message: fmt.Sprintf("%s: %v", message, err),
	})
}
