package storage

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

type stubReader struct {
	data  []byte
	calls []string
}

func (s *stubReader) ReadPhoto(ctx context.Context, ref string) ([]byte, error) {
	s.calls = append(s.calls, ref)
	return s.data, nil
}

func writePhoto(t *testing.T, size int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "photo.jpg")
	if err := os.WriteFile(path, bytes.Repeat([]byte{0xab}, size), 0o600); err != nil {
		t.Fatalf("Failed to write photo: %v", err)
	}
	return path
}

func TestLocalPhotoReader_Read(t *testing.T) {
	path := writePhoto(t, 128)
	reader := NewLocalPhotoReader(1024)

	for _, ref := range []string{path, SchemeFile + path} {
		data, err := reader.ReadPhoto(context.Background(), ref)
		if err != nil {
			t.Fatalf("Expected no error for %s, got %v", ref, err)
		}
		if len(data) != 128 {
			t.Errorf("Expected 128 bytes, got %d", len(data))
		}
	}
}

func TestLocalPhotoReader_Errors(t *testing.T) {
	tests := []struct {
		name  string
		ref   func(t *testing.T) string
		limit int64
		isErr error
	}{
		{
			name:  "Missing file",
			ref:   func(t *testing.T) string { return filepath.Join(t.TempDir(), "missing.jpg") },
			limit: 1024,
			isErr: os.ErrNotExist,
		},
		{
			name:  "Too large",
			ref:   func(t *testing.T) string { return writePhoto(t, 2048) },
			limit: 1024,
			isErr: ErrPhotoTooLarge,
		},
		{
			name:  "Directory",
			ref:   func(t *testing.T) string { return t.TempDir() },
			limit: 1024,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewLocalPhotoReader(tt.limit).ReadPhoto(context.Background(), tt.ref(t))
			if err == nil {
				t.Fatal("Expected error, got none")
			}
			if tt.isErr != nil && !errors.Is(err, tt.isErr) {
				t.Errorf("Expected %v, got %v", tt.isErr, err)
			}
		})
	}
}

func TestLocalPhotoReader_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewLocalPhotoReader(0).ReadPhoto(ctx, writePhoto(t, 8))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestRoutingPhotoReader(t *testing.T) {
	local := &stubReader{data: []byte("local")}
	blob := &stubReader{data: []byte("blob")}
	router := NewRoutingPhotoReader(local, blob)

	data, err := router.ReadPhoto(context.Background(), "azblob://photos/a.jpg")
	if err != nil || string(data) != "blob" {
		t.Errorf("Expected blob reader, got %q (%v)", data, err)
	}

	data, err = router.ReadPhoto(context.Background(), "/tmp/a.jpg")
	if err != nil || string(data) != "local" {
		t.Errorf("Expected local reader, got %q (%v)", data, err)
	}

	if _, err := router.ReadPhoto(context.Background(), " "); err == nil {
		t.Error("Expected error for empty reference")
	}
}

func TestRoutingPhotoReader_NoBlobBackend(t *testing.T) {
	router := NewRoutingPhotoReader(&stubReader{}, nil)
	if _, err := router.ReadPhoto(context.Background(), "azblob://photos/a.jpg"); err == nil {
		t.Error("Expected error when blob storage is not configured")
	}
}

func TestParseBlobRef(t *testing.T) {
	tests := []struct {
		ref       string
		container string
		blob      string
		wantErr   bool
	}{
		{"azblob://photos/a.jpg", "photos", "a.jpg", false},
		{"azblob://photos/2026/10/a.jpg", "photos", "2026/10/a.jpg", false},
		{"azblob://photos", "", "", true},
		{"azblob:///a.jpg", "", "", true},
		{"azblob://photos/", "", "", true},
		{"/tmp/a.jpg", "", "", true},
	}

	for _, tt := range tests {
		container, blob, err := ParseBlobRef(tt.ref)
		if tt.wantErr {
			if err == nil {
				t.Errorf("Expected error for %q", tt.ref)
			}
			continue
		}
		if err != nil {
			t.Errorf("Unexpected error for %q: %v", tt.ref, err)
			continue
		}
		if container != tt.container || blob != tt.blob {
			t.Errorf("ParseBlobRef(%q) = (%q, %q), want (%q, %q)", tt.ref, container, blob, tt.container, tt.blob)
		}
	}
}

func TestNewAzurePhotoReader_InvalidKey(t *testing.T) {
	if _, err := NewAzurePhotoReader("photos", "not base64!", 0); err == nil {
		t.Error("Expected error for non-base64 account key")
	}
}
