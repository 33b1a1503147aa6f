// Command vqa runs a batch visual-question-answering experiment over a JSONL
// dataset and writes a scored report.
package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/Mahmood-Anaam/arabic-visual-question-answering/internal/batch"
	"github.com/Mahmood-Anaam/arabic-visual-question-answering/internal/container"
	"github.com/Mahmood-Anaam/arabic-visual-question-answering/internal/dataset"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	datasetPath := flag.String("dataset", "", "path to JSONL dataset (required)")
	outPath := flag.String("out", "report.json", "report output path")
	format := flag.String("format", "json", "report format: json or csv")
	workers := flag.Int("workers", 0, "parallel workers (0 uses config value)")
	limit := flag.Int("limit", 0, "max items to process (0 uses config value)")
	flag.Parse()

	if *datasetPath == "" {
		log.Fatal("-dataset is required")
	}

	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c, err := container.New(ctx, *configPath)
	if err != nil {
		log.Fatalf("Failed to initialize container: %v", err)
	}
	defer c.Close()

	ds, err := dataset.OpenJSONL(*datasetPath)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to open dataset")
	}

	opts := batch.Options{
		Workers: c.Config().Batch.Workers,
		Limit:   c.Config().Batch.Limit,
	}
	if *workers > 0 {
		opts.Workers = *workers
	}
	if *limit > 0 {
		opts.Limit = *limit
	}

	report, err := c.Runner(ds).Run(ctx, opts)
	if err != nil {
		logrus.WithError(err).Fatal("Batch run aborted")
	}

	switch strings.ToLower(*format) {
	case "json":
		err = batch.WriteJSON(report, *outPath)
	case "csv":
		err = batch.WriteCSV(report, *outPath)
	default:
		logrus.Fatalf("Unknown report format %q", *format)
	}
	if err != nil {
		logrus.WithError(err).Fatal("Failed to write report")
	}

	logrus.WithFields(logrus.Fields{
		"run_id":     report.RunID,
		"out":        *outPath,
		"items":      report.Summary.Items,
		"succeeded":  report.Summary.Succeeded,
		"failed":     report.Summary.Failed,
		"mean_score": report.Summary.MeanScore,
	}).Info("Report written")
}
