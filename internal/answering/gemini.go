package answering

import (
	"context"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/Mahmood-Anaam/arabic-visual-question-answering/internal/apperrors"
)

// GeminiAnswerer answers questions through the hosted Gemini API. Any
// transport or service failure, including rate limiting, surfaces as a
// backend unavailable error; the batch runner decides whether that aborts
// anything.
type GeminiAnswerer struct {
	client         *genai.Client
	model          *genai.GenerativeModel
	modelName      string
	promptTemplate string
	timeout        time.Duration
}

func NewGeminiAnswerer(ctx context.Context, apiKey, modelName, promptTemplate string, temperature float64, timeout time.Duration) (*GeminiAnswerer, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, apperrors.NewConfigurationError("gemini answerer requires an API key (answerer.api_key or GEMINI_API_KEY)", nil)
	}
	if strings.TrimSpace(modelName) == "" {
		return nil, apperrors.NewConfigurationError("gemini answerer requires answerer.model", nil)
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, apperrors.NewConfigurationError("create gemini client", err)
	}

	model := client.GenerativeModel(modelName)
	model.SetTemperature(float32(temperature))

	return &GeminiAnswerer{
		client:         client,
		model:          model,
		modelName:      modelName,
		promptTemplate: promptTemplate,
		timeout:        timeout,
	}, nil
}

func (g *GeminiAnswerer) Name() string { return "gemini" }

func (g *GeminiAnswerer) Close() error { return g.client.Close() }

func (g *GeminiAnswerer) Answer(ctx context.Context, captionText, question string) (string, error) {
	if err := validateQuestion(question); err != nil {
		return "", err
	}

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	prompt := BuildPrompt(g.promptTemplate, captionText, question)
	resp, err := g.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", apperrors.NewBackendUnavailableError("gemini request failed", err)
	}

	answer := extractText(resp)
	if answer == "" {
		return "", apperrors.NewBackendUnavailableError("gemini returned no answer text", nil)
	}
	return answer, nil
}

func extractText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	var b strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				b.WriteString(string(text))
			}
		}
		// Only the first candidate with content is used.
		if b.Len() > 0 {
			break
		}
	}
	return strings.TrimSpace(b.String())
}
