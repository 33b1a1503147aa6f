package storage

import (
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"net/url"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"

	"github.com/Mahmood-Anaam/arabic-visual-question-answering/internal/apperrors"
)

// AzureImageFetcher resolves image references of the form
// https://<account>.blob.core.windows.net/<container>?blob=<name>.
type AzureImageFetcher struct {
	client *azblob.Client
}

func NewAzureImageFetcher(accountName, accountKey string) (*AzureImageFetcher, error) {
	credential, err := azblob.NewSharedKeyCredential(accountName, accountKey)
	if err != nil {
		return nil, apperrors.NewConfigurationError("invalid azure storage credentials", err)
	}

	client, err := azblob.NewClientWithSharedKeyCredential(
		fmt.Sprintf("https://%s.blob.core.windows.net", accountName),
		credential,
		nil,
	)
	if err != nil {
		return nil, apperrors.NewConfigurationError("create azure blob client", err)
	}

	return &AzureImageFetcher{client: client}, nil
}

func (s *AzureImageFetcher) FetchImage(ctx context.Context, ref string) (image.Image, error) {
	parsedURL, err := url.Parse(ref)
	if err != nil || parsedURL.Path == "" {
		return nil, apperrors.NewInvalidInputError(fmt.Sprintf("invalid blob URL %q", ref), err)
	}

	containerName := parsedURL.Path[1:]
	blobName := parsedURL.Query().Get("blob")
	if blobName == "" {
		return nil, apperrors.NewInvalidInputError("blob URL missing blob query parameter", nil)
	}

	downloadResponse, err := s.client.DownloadStream(ctx, containerName, blobName, nil)
	if err != nil {
		return nil, apperrors.NewBackendUnavailableError("blob download failed", err)
	}

	retryReader := downloadResponse.Body
	defer retryReader.Close()

	img, _, err := image.Decode(retryReader)
	if err != nil {
		return nil, apperrors.NewInvalidInputError("undecodable image payload", err)
	}
	return img, nil
}
