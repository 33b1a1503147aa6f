package storage

import (
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"

	"github.com/Mahmood-Anaam/arabic-visual-question-answering/internal/apperrors"
)

// LocalImageFetcher reads images from the filesystem, with refs resolved
// relative to a base directory when one is set.
type LocalImageFetcher struct {
	baseDir string
}

func NewLocalImageFetcher(baseDir string) *LocalImageFetcher {
	return &LocalImageFetcher{baseDir: baseDir}
}

func (l *LocalImageFetcher) FetchImage(ctx context.Context, ref string) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path := ref
	if l.baseDir != "" && !filepath.IsAbs(ref) {
		path = filepath.Join(l.baseDir, ref)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, apperrors.NewInvalidInputError(fmt.Sprintf("open image %s", path), err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, apperrors.NewInvalidInputError("undecodable image payload", err)
	}
	return img, nil
}
