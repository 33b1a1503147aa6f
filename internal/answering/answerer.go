package answering

import (
	"context"
	"strings"

	"github.com/Mahmood-Anaam/arabic-visual-question-answering/internal/apperrors"
)

// Answerer produces a natural-language answer from a textual context (the
// generated caption) and a question. Implementations are stateless between
// calls so answers do not depend on call order.
type Answerer interface {
	Name() string
	Answer(ctx context.Context, captionText, question string) (string, error)
	Close() error
}

// BuildPrompt interpolates the caption and question into the template.
// Templates use {caption} and {question} placeholders.
func BuildPrompt(template, captionText, question string) string {
	prompt := strings.ReplaceAll(template, "{caption}", captionText)
	return strings.ReplaceAll(prompt, "{question}", question)
}

func validateQuestion(question string) error {
	if strings.TrimSpace(question) == "" {
		return apperrors.NewInvalidInputError("question must be non-empty text", nil)
	}
	return nil
}
