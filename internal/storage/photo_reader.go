package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

const (
	SchemeFile   = "file://"
	SchemeAzBlob = "azblob://"
)

// ErrPhotoTooLarge is returned when a photo exceeds the configured size limit
var ErrPhotoTooLarge = errors.New("photo exceeds size limit")

// PhotoReader loads the full contents of a captured photo
type PhotoReader interface {
	ReadPhoto(ctx context.Context, ref string) ([]byte, error)
}

// LocalPhotoReader reads photos from the local filesystem
type LocalPhotoReader struct {
	maxBytes int64
}

func NewLocalPhotoReader(maxBytes int64) *LocalPhotoReader {
	return &LocalPhotoReader{maxBytes: maxBytes}
}

func (r *LocalPhotoReader) ReadPhoto(ctx context.Context, ref string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path := filepath.Clean(strings.TrimPrefix(ref, SchemeFile))
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}
	if r.maxBytes > 0 && info.Size() > r.maxBytes {
		return nil, fmt.Errorf("%w: %d > %d bytes", ErrPhotoTooLarge, info.Size(), r.maxBytes)
	}

	return readLimited(f, r.maxBytes)
}

// readLimited reads at most maxBytes, failing instead of truncating.
func readLimited(src io.Reader, maxBytes int64) ([]byte, error) {
	if maxBytes <= 0 {
		return io.ReadAll(src)
	}
	data, err := io.ReadAll(io.LimitReader(src, maxBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > maxBytes {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrPhotoTooLarge, maxBytes)
	}
	return data, nil
}

// RoutingPhotoReader dispatches on the reference scheme. Blob references fail
// when no blob reader is configured.
type RoutingPhotoReader struct {
	local PhotoReader
	blob  PhotoReader
}

func NewRoutingPhotoReader(local, blob PhotoReader) *RoutingPhotoReader {
	return &RoutingPhotoReader{local: local, blob: blob}
}

func (r *RoutingPhotoReader) ReadPhoto(ctx context.Context, ref string) ([]byte, error) {
	switch {
	case strings.TrimSpace(ref) == "":
		return nil, errors.New("empty photo reference")
	case strings.HasPrefix(ref, SchemeAzBlob):
		if r.blob == nil {
			return nil, fmt.Errorf("blob storage is not configured for %s", ref)
		}
		return r.blob.ReadPhoto(ctx, ref)
	default:
		return r.local.ReadPhoto(ctx, ref)
	}
}
