// Package factory builds pipeline capabilities from validated configuration.
// Construction is the last place a misconfiguration can surface before any
// image is processed, so every branch checks its backend prerequisites.
package factory

import (
	"context"
	"fmt"
	"strings"

	"github.com/Mahmood-Anaam/arabic-visual-question-answering/internal/answering"
	"github.com/Mahmood-Anaam/arabic-visual-question-answering/internal/apperrors"
	"github.com/Mahmood-Anaam/arabic-visual-question-answering/internal/captioning"
	"github.com/Mahmood-Anaam/arabic-visual-question-answering/internal/config"
	"github.com/Mahmood-Anaam/arabic-visual-question-answering/internal/evaluation"
	"github.com/Mahmood-Anaam/arabic-visual-question-answering/internal/storage"
)

// NewCaptioner builds the captioning backend named in the configuration.
func NewCaptioner(cfg *config.Config) (captioning.Captioner, error) {
	c := cfg.Captioner
	switch c.Backend {
	case config.CaptionerViolet:
		if strings.TrimSpace(c.Endpoint) == "" {
			return nil, apperrors.NewConfigurationError("captioner.endpoint is required for the violet backend", nil)
		}
		return captioning.NewVioletCaptioner(c.Endpoint, c.Timeout.Std(), c.CaptionCount), nil
	case config.CaptionerBiT:
		if strings.TrimSpace(c.Endpoint) == "" {
			return nil, apperrors.NewConfigurationError("captioner.endpoint is required for the bit backend", nil)
		}
		return captioning.NewBiTCaptioner(c.Endpoint, c.Timeout.Std(), c.CaptionCount), nil
	case config.CaptionerTesseract:
		return captioning.NewTesseractCaptioner(c.Language)
	default:
		return nil, apperrors.NewConfigurationError(fmt.Sprintf("unsupported captioner backend: %s", c.Backend), nil)
	}
}

// NewAnswerer builds the answering backend named in the configuration. The
// context is used for client initialization only, not for later calls.
func NewAnswerer(ctx context.Context, cfg *config.Config) (answering.Answerer, error) {
	a := cfg.Answerer
	switch a.Backend {
	case config.AnswererGemini:
		return answering.NewGeminiAnswerer(ctx, a.APIKey, a.Model, a.PromptTemplate, a.Temperature, a.Timeout.Std())
	default:
		return nil, apperrors.NewConfigurationError(fmt.Sprintf("unsupported answerer backend: %s", a.Backend), nil)
	}
}

// NewEvaluator builds the scoring metric named in the configuration.
func NewEvaluator(cfg *config.Config) (evaluation.Evaluator, error) {
	e := cfg.Evaluator
	switch e.Metric {
	case config.MetricBLEU:
		return evaluation.NewBLEUEvaluator(e.BLEUMaxOrder, e.Normalize), nil
	case config.MetricWER:
		return evaluation.NewWordErrorEvaluator(e.Normalize), nil
	case config.MetricLevenshtein:
		return evaluation.NewLevenshteinEvaluator(e.Normalize), nil
	default:
		return nil, apperrors.NewConfigurationError(fmt.Sprintf("unsupported evaluator metric: %s", e.Metric), nil)
	}
}

// NewImageFetcher builds the image source named in the configuration.
func NewImageFetcher(cfg *config.Config) (storage.ImageFetcher, error) {
	s := cfg.Storage
	switch s.Backend {
	case config.StorageHTTP:
		return storage.NewHTTPImageFetcher(s.FetchTimeout.Std()), nil
	case config.StorageAzure:
		if s.AzureAccount == "" || s.AzureKey == "" {
			return nil, apperrors.NewConfigurationError("storage.azure_account and storage.azure_key are required for the azure backend", nil)
		}
		return storage.NewAzureImageFetcher(s.AzureAccount, s.AzureKey)
	case config.StorageLocal:
		return storage.NewLocalImageFetcher(s.LocalDir), nil
	default:
		return nil, apperrors.NewConfigurationError(fmt.Sprintf("unsupported storage backend: %s", s.Backend), nil)
	}
}
