package batch

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
)

// WriteJSON writes the full report, items and summary, as indented JSON.
func WriteJSON(r *Report, path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

// WriteCSV writes one row per item, for spreadsheet-side analysis. Scores of
// failed items are left empty rather than zeroed.
func WriteCSV(r *Report, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := []string{"index", "question_id", "image_id", "caption", "answer", "score", "error_stage", "error", "latency_ms"}
	if err := w.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for _, item := range r.Items {
		score := ""
		if item.Score != nil {
			score = strconv.FormatFloat(*item.Score, 'f', 4, 64)
		}
		row := []string{
			strconv.Itoa(item.Index),
			item.QuestionID,
			item.ImageID,
			item.Caption,
			item.Answer,
			score,
			item.ErrorStage,
			item.Error,
			strconv.FormatInt(item.Latency.Milliseconds(), 10),
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("write csv row %d: %w", item.Index, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}
