package storage

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mahmood-Anaam/arabic-visual-question-answering/internal/apperrors"
)

func encodeTestPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for x := 0; x < 4; x++ {
		for y := 0; y < 4; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 60), G: uint8(y * 60), B: 120, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestHTTPImageFetcher_Success(t *testing.T) {
	payload := encodeTestPNG(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write(payload)
	}))
	defer srv.Close()

	fetcher := NewHTTPImageFetcher(5 * time.Second)
	img, err := fetcher.FetchImage(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, 4, img.Bounds().Dx())
}

func TestHTTPImageFetcher_NotFoundIsInvalidInput(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	fetcher := NewHTTPImageFetcher(5 * time.Second)
	_, err := fetcher.FetchImage(context.Background(), srv.URL)
	require.Error(t, err)
	assert.True(t, apperrors.IsInvalidInput(err))
}

func TestHTTPImageFetcher_UndecodablePayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not an image"))
	}))
	defer srv.Close()

	fetcher := NewHTTPImageFetcher(5 * time.Second)
	_, err := fetcher.FetchImage(context.Background(), srv.URL)
	require.Error(t, err)
	assert.True(t, apperrors.IsInvalidInput(err))
}

func TestHTTPImageFetcher_RetriesServerErrors(t *testing.T) {
	payload := encodeTestPNG(t)
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write(payload)
	}))
	defer srv.Close()

	fetcher := NewHTTPImageFetcher(5 * time.Second)
	_, err := fetcher.FetchImage(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestHTTPImageFetcher_ExhaustedRetriesIsBackendError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	fetcher := NewHTTPImageFetcher(5 * time.Second)
	_, err := fetcher.FetchImage(context.Background(), srv.URL)
	require.Error(t, err)
	assert.True(t, apperrors.IsBackendUnavailable(err))
}

func TestLocalImageFetcher(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ok.png"), encodeTestPNG(t), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.png"), []byte("garbage"), 0644))

	fetcher := NewLocalImageFetcher(dir)

	img, err := fetcher.FetchImage(context.Background(), "ok.png")
	require.NoError(t, err)
	assert.Equal(t, 4, img.Bounds().Dy())

	_, err = fetcher.FetchImage(context.Background(), "bad.png")
	assert.True(t, apperrors.IsInvalidInput(err))

	_, err = fetcher.FetchImage(context.Background(), "missing.png")
	assert.True(t, apperrors.IsInvalidInput(err))
}
