package captioning

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Mahmood-Anaam/arabic-visual-question-answering/internal/apperrors"
)

const captionAttempts = 3

// captionRequest is the wire format of the local caption inference servers.
// Both the Violet and BiT servers expose the same POST /captions contract.
type captionRequest struct {
	Image string `json:"image"`
	Count int    `json:"count"`
}

type captionResponse struct {
	Captions []string `json:"captions"`
	Error    string   `json:"error,omitempty"`
}

// modelServerCaptioner talks to a local caption inference server over HTTP.
type modelServerCaptioner struct {
	name     string
	endpoint string
	count    int
	client   *http.Client
}

// NewVioletCaptioner returns a Captioner backed by a Violet inference server.
func NewVioletCaptioner(endpoint string, timeout time.Duration, count int) Captioner {
	return newModelServerCaptioner("violet", endpoint, timeout, count)
}

// NewBiTCaptioner returns a Captioner backed by a BiT inference server.
func NewBiTCaptioner(endpoint string, timeout time.Duration, count int) Captioner {
	return newModelServerCaptioner("bit", endpoint, timeout, count)
}

func newModelServerCaptioner(name, endpoint string, timeout time.Duration, count int) *modelServerCaptioner {
	if count < 1 {
		count = 1
	}
	return &modelServerCaptioner{
		name:     name,
		endpoint: strings.TrimRight(endpoint, "/"),
		count:    count,
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 2,
				IdleConnTimeout:     30 * time.Second,
			},
		},
	}
}

func (c *modelServerCaptioner) Name() string { return c.name }

func (c *modelServerCaptioner) Close() error {
	c.client.CloseIdleConnections()
	return nil
}

func (c *modelServerCaptioner) Caption(ctx context.Context, img image.Image) (string, error) {
	encoded, err := encodePNGBase64(img)
	if err != nil {
		return "", err
	}

	body, err := json.Marshal(captionRequest{Image: encoded, Count: c.count})
	if err != nil {
		return "", apperrors.NewInternalError("marshal caption request", err)
	}

	var lastErr error
	for attempt := 0; attempt < captionAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", apperrors.NewBackendUnavailableError("caption request cancelled", ctx.Err())
			case <-time.After(time.Duration(attempt) * 500 * time.Millisecond):
			}
		}

		caption, retryable, err := c.requestCaptions(ctx, body)
		if err == nil {
			return caption, nil
		}
		if !retryable {
			return "", err
		}
		lastErr = err
	}

	return "", apperrors.NewBackendUnavailableError(
		fmt.Sprintf("%s caption server unreachable after %d attempts", c.name, captionAttempts), lastErr)
}

func (c *modelServerCaptioner) requestCaptions(ctx context.Context, body []byte) (caption string, retryable bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/captions", bytes.NewReader(body))
	if err != nil {
		return "", false, apperrors.NewInternalError("build caption request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", true, apperrors.NewBackendUnavailableError(fmt.Sprintf("%s caption server request failed", c.name), err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", true, apperrors.NewBackendUnavailableError("read caption response", err)
	}

	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		return "", false, apperrors.NewInvalidInputError(
			fmt.Sprintf("%s caption server rejected input: status %d", c.name, resp.StatusCode), nil)
	}
	if resp.StatusCode != http.StatusOK {
		return "", true, apperrors.NewBackendUnavailableError(
			fmt.Sprintf("%s caption server returned status %d", c.name, resp.StatusCode), nil)
	}

	var decoded captionResponse
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return "", false, apperrors.NewBackendUnavailableError("malformed caption response", err)
	}
	if decoded.Error != "" {
		return "", false, apperrors.NewBackendUnavailableError(
			fmt.Sprintf("%s caption server error: %s", c.name, decoded.Error), nil)
	}

	captions := make([]string, 0, len(decoded.Captions))
	for _, text := range decoded.Captions {
		if trimmed := strings.TrimSpace(text); trimmed != "" {
			captions = append(captions, trimmed)
		}
	}
	if len(captions) == 0 {
		return "", false, apperrors.NewInvalidInputError(
			fmt.Sprintf("%s caption server produced no caption", c.name), nil)
	}

	return strings.Join(captions, "؛ "), false, nil
}
