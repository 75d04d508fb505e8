package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
)

// AzurePhotoReader reads photos uploaded by a remote capture device.
// References have the form azblob://<container>/<blob path>.
type AzurePhotoReader struct {
	client   *azblob.Client
	maxBytes int64
}

func NewAzurePhotoReader(accountName, accountKey string, maxBytes int64) (*AzurePhotoReader, error) {
	credential, err := azblob.NewSharedKeyCredential(accountName, accountKey)
	if err != nil {
		return nil, fmt.Errorf("invalid azure credentials: %w", err)
	}

	client, err := azblob.NewClientWithSharedKeyCredential(
		fmt.Sprintf("https://%s.blob.core.windows.net/", accountName),
		credential,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create blob client: %w", err)
	}

	return &AzurePhotoReader{client: client, maxBytes: maxBytes}, nil
}

func (s *AzurePhotoReader) ReadPhoto(ctx context.Context, ref string) ([]byte, error) {
	containerName, blobName, err := ParseBlobRef(ref)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.DownloadStream(ctx, containerName, blobName, nil)
	if err != nil {
		return nil, fmt.Errorf("download failed: %w", err)
	}
	body := resp.Body
	defer body.Close()

	if s.maxBytes > 0 && resp.ContentLength != nil && *resp.ContentLength > s.maxBytes {
		return nil, fmt.Errorf("%w: %d > %d bytes", ErrPhotoTooLarge, *resp.ContentLength, s.maxBytes)
	}

	return readLimited(body, s.maxBytes)
}

// ParseBlobRef splits azblob://container/path/to/blob.jpg
func ParseBlobRef(ref string) (containerName, blobName string, err error) {
	if !strings.HasPrefix(ref, SchemeAzBlob) {
		return "", "", fmt.Errorf("not a blob reference: %q", ref)
	}
	containerName, blobName, ok := strings.Cut(strings.TrimPrefix(ref, SchemeAzBlob), "/")
	if !ok || containerName == "" || blobName == "" {
		return "", "", fmt.Errorf("blob reference must be azblob://<container>/<blob>: %q", ref)
	}
	return containerName, blobName, nil
}
