package storage

import (
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"net/http"
	"time"

	"github.com/Mahmood-Anaam/arabic-visual-question-answering/internal/apperrors"
)

const fetchAttempts = 3

// HTTPImageFetcher downloads images over HTTP with bounded retries.
// 4xx responses and undecodable payloads are invalid input; transport
// failures and 5xx responses are backend errors and get retried.
type HTTPImageFetcher struct {
	client *http.Client
}

func NewHTTPImageFetcher(timeout time.Duration) *HTTPImageFetcher {
	transport := &http.Transport{
		MaxIdleConns:          10,
		MaxIdleConnsPerHost:   2,
		IdleConnTimeout:       30 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	return &HTTPImageFetcher{
		client: &http.Client{
			Transport: transport,
			Timeout:   timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("too many redirects (limit: 3)")
				}
				return nil
			},
		},
	}
}

func (h *HTTPImageFetcher) FetchImage(ctx context.Context, ref string) (image.Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
	if err != nil {
		return nil, apperrors.NewInvalidInputError(fmt.Sprintf("invalid image URL %q", ref), err)
	}
	req.Header.Set("Accept", "image/jpeg, image/png, image/gif, */*")
	req.Header.Set("User-Agent", "arabic-vqa/1.0")

	var lastErr error
	for attempt := 0; attempt < fetchAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, apperrors.NewBackendUnavailableError("image fetch cancelled", ctx.Err())
			case <-time.After(time.Duration(attempt) * time.Second):
			}
		}

		resp, err := h.client.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			resp.Body.Close()
			return nil, apperrors.NewInvalidInputError(fmt.Sprintf("image fetch returned status %d", resp.StatusCode), nil)
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			lastErr = fmt.Errorf("server error: status code %d", resp.StatusCode)
			continue
		}

		img, _, err := image.Decode(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, apperrors.NewInvalidInputError("undecodable image payload", err)
		}
		return img, nil
	}

	return nil, apperrors.NewBackendUnavailableError(
		fmt.Sprintf("failed to fetch image after %d attempts", fetchAttempts), lastErr)
}
