package storage

import (
	"context"
	"image"
)

// ImageFetcher resolves a dataset image reference (URL, blob URL or local
// path, depending on the backend) into decoded pixel data.
type ImageFetcher interface {
	FetchImage(ctx context.Context, ref string) (image.Image, error)
}
