package captioning

import (
	"context"
	"image"
	"strings"
	"sync"

	"github.com/otiai10/gosseract/v2"

	"github.com/Mahmood-Anaam/arabic-visual-question-answering/internal/apperrors"
)

// TesseractCaptioner extracts scene text from the image and uses it as the
// caption. A cheap, fully local fallback for document-style images where the
// visible text answers the question better than a generated description.
// The underlying tesseract client handles one image at a time, so calls are
// serialized.
type TesseractCaptioner struct {
	mu     sync.Mutex
	client *gosseract.Client
}

func NewTesseractCaptioner(language string) (*TesseractCaptioner, error) {
	if language == "" {
		language = "ara"
	}
	client := gosseract.NewClient()
	if err := client.SetLanguage(language); err != nil {
		client.Close()
		return nil, apperrors.NewConfigurationError("tesseract language "+language+" unavailable", err)
	}
	return &TesseractCaptioner{client: client}, nil
}

func (t *TesseractCaptioner) Name() string { return "tesseract" }

func (t *TesseractCaptioner) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.client.Close()
}

func (t *TesseractCaptioner) Caption(ctx context.Context, img image.Image) (string, error) {
	raw, err := encodePNG(img)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", apperrors.NewBackendUnavailableError("caption request cancelled", err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.client.SetImageFromBytes(raw); err != nil {
		return "", apperrors.NewInvalidInputError("tesseract rejected image", err)
	}
	text, err := t.client.Text()
	if err != nil {
		return "", apperrors.NewBackendUnavailableError("tesseract extraction failed", err)
	}

	caption := strings.Join(strings.Fields(text), " ")
	if caption == "" {
		return "", apperrors.NewInvalidInputError("image contains no recognizable text", nil)
	}
	return caption, nil
}
