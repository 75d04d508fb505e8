package config

import (
	"strings"
	"testing"
	"time"

	apperrors "go-vision-capture/internal/errors"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("VISION_API_KEY", "test-key")
}

func TestLoadFromEnv_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if cfg.ServerAddress() != "127.0.0.1:8080" {
		t.Errorf("Expected address 127.0.0.1:8080, got %s", cfg.ServerAddress())
	}
	if cfg.AnalysisTimeout != 20*time.Second {
		t.Errorf("Expected analysis timeout 20s, got %s", cfg.AnalysisTimeout)
	}
	if cfg.VisionEndpoint != DefaultVisionEndpoint {
		t.Errorf("Expected default endpoint, got %s", cfg.VisionEndpoint)
	}
	if cfg.CaptureQuality != 1.0 {
		t.Errorf("Expected capture quality 1.0, got %g", cfg.CaptureQuality)
	}
	if cfg.CaptureAspectRatio != "4:3" {
		t.Errorf("Expected aspect ratio 4:3, got %s", cfg.CaptureAspectRatio)
	}
	if cfg.CameraPermission != PermissionProbe {
		t.Errorf("Expected probe permission mode, got %s", cfg.CameraPermission)
	}
	if cfg.StorageBackend != StorageLocal {
		t.Errorf("Expected local storage, got %s", cfg.StorageBackend)
	}
	if cfg.UIVariant != "results" {
		t.Errorf("Expected results variant, got %s", cfg.UIVariant)
	}
	if cfg.AzureEnabled() {
		t.Error("Expected azure to be disabled without credentials")
	}
}

func TestLoadFromEnv_MissingAPIKey(t *testing.T) {
	t.Setenv("VISION_API_KEY", "")

	_, err := LoadFromEnv()
	if err == nil {
		t.Fatal("Expected error for missing API key")
	}
	if !apperrors.IsType(err, apperrors.ErrorTypeConfiguration) {
		t.Errorf("Expected configuration error, got %v", err)
	}
	if !strings.Contains(err.Error(), "VISION_API_KEY") {
		t.Errorf("Expected error to name VISION_API_KEY, got %v", err)
	}
}

func TestLoadFromEnv_Overrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("HOST", "0.0.0.0")
	t.Setenv("PORT", "9000")
	t.Setenv("ANALYSIS_TIMEOUT", "15s")
	t.Setenv("VISION_ENDPOINT", "http://127.0.0.1:9999/")
	t.Setenv("CAPTURE_QUALITY", "0.5")
	t.Setenv("CAPTURE_ASPECT_RATIO", "16:9")
	t.Setenv("CAMERA_PERMISSION", "GRANTED")
	t.Setenv("UI_VARIANT", "capture")

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if cfg.ServerAddress() != "0.0.0.0:9000" {
		t.Errorf("Expected 0.0.0.0:9000, got %s", cfg.ServerAddress())
	}
	if cfg.AnalysisTimeout != 15*time.Second {
		t.Errorf("Expected 15s, got %s", cfg.AnalysisTimeout)
	}
	if cfg.VisionEndpoint != "http://127.0.0.1:9999/" {
		t.Errorf("Expected loopback endpoint, got %s", cfg.VisionEndpoint)
	}
	if cfg.CaptureQuality != 0.5 {
		t.Errorf("Expected 0.5, got %g", cfg.CaptureQuality)
	}
	if cfg.CameraPermission != PermissionGranted {
		t.Errorf("Expected granted, got %s", cfg.CameraPermission)
	}
	if cfg.UIVariant != "capture" {
		t.Errorf("Expected capture variant, got %s", cfg.UIVariant)
	}
}

func TestLoadFromEnv_InvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"Port out of range", "PORT", "70000"},
		{"Port not numeric", "PORT", "http"},
		{"Remote plain http endpoint", "VISION_ENDPOINT", "http://vision.googleapis.com/"},
		{"Timeout too long", "ANALYSIS_TIMEOUT", "5m"},
		{"Timeout too short", "ANALYSIS_TIMEOUT", "10ms"},
		{"Quality above one", "CAPTURE_QUALITY", "1.5"},
		{"Bad aspect ratio", "CAPTURE_ASPECT_RATIO", "wide"},
		{"Command without output", "CAPTURE_COMMAND", "libcamera-still -n"},
		{"Unknown permission mode", "CAMERA_PERMISSION", "maybe"},
		{"Azure without credentials", "STORAGE_BACKEND", "azure"},
		{"Unknown storage", "STORAGE_BACKEND", "s3"},
		{"Negative photo size", "MAX_PHOTO_SIZE", "-1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequiredEnv(t)
			t.Setenv(tt.key, tt.value)

			_, err := LoadFromEnv()
			if err == nil {
				t.Fatalf("Expected error for %s=%q", tt.key, tt.value)
			}
			if !apperrors.IsType(err, apperrors.ErrorTypeConfiguration) {
				t.Errorf("Expected configuration error, got %v", err)
			}
		})
	}
}

func TestAzureEnabled(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("STORAGE_BACKEND", "azure")
	t.Setenv("AZURE_STORAGE_ACCOUNT", "photos")
	t.Setenv("AZURE_STORAGE_KEY", "c2VjcmV0")

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !cfg.AzureEnabled() {
		t.Error("Expected azure to be enabled")
	}
}
