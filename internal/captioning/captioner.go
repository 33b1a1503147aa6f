package captioning

import (
	"bytes"
	"context"
	"encoding/base64"
	"image"
	"image/png"

	"github.com/Mahmood-Anaam/arabic-visual-question-answering/internal/apperrors"
)

// Captioner converts an image into a descriptive Arabic text caption.
// Implementations keep no state between calls; latency is backend-dependent
// and unbounded from this interface's point of view, so callers bound calls
// through ctx.
type Captioner interface {
	Name() string
	Caption(ctx context.Context, img image.Image) (string, error)
	Close() error
}

func encodePNG(img image.Image) ([]byte, error) {
	if img == nil {
		return nil, apperrors.NewInvalidInputError("nil image", nil)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, apperrors.NewInvalidInputError("image could not be re-encoded", err)
	}
	return buf.Bytes(), nil
}

func encodePNGBase64(img image.Image) (string, error) {
	raw, err := encodePNG(img)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}
