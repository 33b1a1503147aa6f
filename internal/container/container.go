// Package container wires the application's dependency graph from a loaded
// configuration. Construction fails fast: no capability is half-built.
package container

import (
	"context"
	"net/http"

	"github.com/Mahmood-Anaam/arabic-visual-question-answering/internal/answering"
	"github.com/Mahmood-Anaam/arabic-visual-question-answering/internal/batch"
	"github.com/Mahmood-Anaam/arabic-visual-question-answering/internal/captioning"
	"github.com/Mahmood-Anaam/arabic-visual-question-answering/internal/config"
	"github.com/Mahmood-Anaam/arabic-visual-question-answering/internal/dataset"
	"github.com/Mahmood-Anaam/arabic-visual-question-answering/internal/evaluation"
	"github.com/Mahmood-Anaam/arabic-visual-question-answering/internal/factory"
	"github.com/Mahmood-Anaam/arabic-visual-question-answering/internal/pipeline"
	"github.com/Mahmood-Anaam/arabic-visual-question-answering/internal/storage"
	"github.com/Mahmood-Anaam/arabic-visual-question-answering/internal/transport"
)

// Container holds the constructed application dependencies.
type Container struct {
	config    *config.Config
	fetcher   storage.ImageFetcher
	captioner captioning.Captioner
	answerer  answering.Answerer
	evaluator evaluation.Evaluator
	pipeline  *pipeline.Pipeline
	handler   http.Handler
}

// New loads configuration from path (empty means defaults plus environment)
// and builds the full dependency graph.
func New(ctx context.Context, path string) (*Container, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	return FromConfig(ctx, cfg)
}

// FromConfig builds the dependency graph from an already validated config.
func FromConfig(ctx context.Context, cfg *config.Config) (*Container, error) {
	fetcher, err := factory.NewImageFetcher(cfg)
	if err != nil {
		return nil, err
	}
	captioner, err := factory.NewCaptioner(cfg)
	if err != nil {
		return nil, err
	}
	answerer, err := factory.NewAnswerer(ctx, cfg)
	if err != nil {
		captioner.Close()
		return nil, err
	}
	evaluator, err := factory.NewEvaluator(cfg)
	if err != nil {
		captioner.Close()
		answerer.Close()
		return nil, err
	}

	p := pipeline.New(captioner, answerer)
	handler := transport.NewHandler(p, evaluator, fetcher, cfg)

	return &Container{
		config:    cfg,
		fetcher:   fetcher,
		captioner: captioner,
		answerer:  answerer,
		evaluator: evaluator,
		pipeline:  p,
		handler:   handler,
	}, nil
}

// Handler returns the HTTP handler.
func (c *Container) Handler() http.Handler { return c.handler }

// Config returns the loaded configuration.
func (c *Container) Config() *config.Config { return c.config }

// Pipeline returns the caption-then-answer pipeline.
func (c *Container) Pipeline() *pipeline.Pipeline { return c.pipeline }

// Evaluator returns the configured scoring metric.
func (c *Container) Evaluator() evaluation.Evaluator { return c.evaluator }

// Runner builds a batch runner over the given dataset using the container's
// pipeline, evaluator and image fetcher.
func (c *Container) Runner(d dataset.Dataset) *batch.Runner {
	return batch.NewRunner(c.pipeline, c.evaluator, c.fetcher, d, c.config.Evaluator.PassThreshold)
}

// Close releases backend resources. Safe to call once after use.
func (c *Container) Close() error {
	err := c.captioner.Close()
	if aerr := c.answerer.Close(); err == nil {
		err = aerr
	}
	return err
}
