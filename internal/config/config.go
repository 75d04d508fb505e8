package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	apperrors "go-vision-capture/internal/errors"
	"go-vision-capture/pkg/validation"

	"github.com/joho/godotenv"
)

const (
	DefaultVisionEndpoint = "https://vision.googleapis.com/"
	DefaultCaptureCommand = "libcamera-still -n -o {output} -q {quality} --camera {camera}"

	PermissionProbe   = "probe"
	PermissionGranted = "granted"
	PermissionDenied  = "denied"

	StorageLocal = "local"
	StorageAzure = "azure"
)

type Config struct {
	Host               string
	Port               string
	RequestTimeout     time.Duration
	AnalysisTimeout    time.Duration
	MaxRequestBodySize int64
	MaxPhotoSize       int64

	VisionAPIKey   string
	VisionEndpoint string

	PhotoDir           string
	CaptureCommand     string
	CaptureQuality     float64
	CaptureAspectRatio string
	CameraPermission   string
	CameraDevice       string

	StorageBackend      string
	AzureStorageAccount string
	AzureStorageKey     string

	UIVariant string
	LogLevel  string
	LogFormat string
}

func (c *Config) ServerAddress() string {
	host := strings.TrimSpace(c.Host)
	port := strings.TrimSpace(c.Port)
	return net.JoinHostPort(host, port)
}

// AzureEnabled reports whether blob photo references can be resolved.
func (c *Config) AzureEnabled() bool {
	return c.AzureStorageAccount != "" && c.AzureStorageKey != ""
}

// LoadFromEnv reads a .env file from the working directory when present and
// then builds the configuration from the environment. A missing API key is a
// configuration error so the process never starts serving without one.
func LoadFromEnv() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, apperrors.NewConfigError("failed to load .env file", err)
	}

	cfg := &Config{
		Host:               getEnvOrDefault("HOST", "127.0.0.1"),
		Port:               getEnvOrDefault("PORT", "8080"),
		RequestTimeout:     parseDurationOrDefault("REQUEST_TIMEOUT", 60*time.Second),
		AnalysisTimeout:    parseDurationOrDefault("ANALYSIS_TIMEOUT", 20*time.Second),
		MaxRequestBodySize: parseIntOrDefault("MAX_REQUEST_BODY_SIZE", 64*1024),
		MaxPhotoSize:       parseIntOrDefault("MAX_PHOTO_SIZE", 20*1024*1024), // 20MB

		VisionAPIKey:   strings.TrimSpace(os.Getenv("VISION_API_KEY")),
		VisionEndpoint: getEnvOrDefault("VISION_ENDPOINT", DefaultVisionEndpoint),

		PhotoDir:           getEnvOrDefault("PHOTO_DIR", filepath.Join(os.TempDir(), "vision-capture")),
		CaptureCommand:     getEnvOrDefault("CAPTURE_COMMAND", DefaultCaptureCommand),
		CaptureQuality:     parseFloatOrDefault("CAPTURE_QUALITY", 1.0),
		CaptureAspectRatio: getEnvOrDefault("CAPTURE_ASPECT_RATIO", "4:3"),
		CameraPermission:   strings.ToLower(getEnvOrDefault("CAMERA_PERMISSION", PermissionProbe)),
		CameraDevice:       getEnvOrDefault("CAMERA_DEVICE", "/dev/video0"),

		StorageBackend:      strings.ToLower(getEnvOrDefault("STORAGE_BACKEND", StorageLocal)),
		AzureStorageAccount: os.Getenv("AZURE_STORAGE_ACCOUNT"),
		AzureStorageKey:     os.Getenv("AZURE_STORAGE_KEY"),

		UIVariant: strings.ToLower(getEnvOrDefault("UI_VARIANT", "results")),
		LogLevel:  getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat: getEnvOrDefault("LOG_FORMAT", "json"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks every setting and returns the first problem found.
func (c *Config) Validate() error {
	if c.VisionAPIKey == "" {
		return apperrors.NewConfigError("VISION_API_KEY is required", nil)
	}
	if err := validation.NewURLValidator().ValidateEndpoint(c.VisionEndpoint); err != nil {
		return apperrors.NewConfigError(fmt.Sprintf("invalid VISION_ENDPOINT: %q", c.VisionEndpoint), err)
	}

	p, err := strconv.Atoi(strings.TrimSpace(c.Port))
	if err != nil || p < 1 || p > 65535 {
		return apperrors.NewConfigError(fmt.Sprintf("invalid PORT: %q", c.Port), err)
	}
	if c.MaxRequestBodySize <= 0 || c.MaxPhotoSize <= 0 {
		return apperrors.NewConfigError(fmt.Sprintf("size limits must be > 0 (got body=%d, photo=%d)",
			c.MaxRequestBodySize, c.MaxPhotoSize), nil)
	}
	if c.RequestTimeout <= 0 {
		return apperrors.NewConfigError(fmt.Sprintf("REQUEST_TIMEOUT must be > 0 (got %s)", c.RequestTimeout), nil)
	}
	if c.AnalysisTimeout < time.Second || c.AnalysisTimeout > 2*time.Minute {
		return apperrors.NewConfigError(fmt.Sprintf("ANALYSIS_TIMEOUT must be within 1s..2m (got %s)", c.AnalysisTimeout), nil)
	}
	if c.CaptureQuality <= 0 || c.CaptureQuality > 1 {
		return apperrors.NewConfigError(fmt.Sprintf("CAPTURE_QUALITY must be within (0,1] (got %g)", c.CaptureQuality), nil)
	}
	if !validAspectRatio(c.CaptureAspectRatio) {
		return apperrors.NewConfigError(fmt.Sprintf("invalid CAPTURE_ASPECT_RATIO: %q", c.CaptureAspectRatio), nil)
	}
	if strings.TrimSpace(c.CaptureCommand) == "" || !strings.Contains(c.CaptureCommand, "{output}") {
		return apperrors.NewConfigError("CAPTURE_COMMAND must contain an {output} placeholder", nil)
	}

	switch c.CameraPermission {
	case PermissionProbe, PermissionGranted, PermissionDenied:
	default:
		return apperrors.NewConfigError(fmt.Sprintf("invalid CAMERA_PERMISSION: %q", c.CameraPermission), nil)
	}

	switch c.StorageBackend {
	case StorageLocal:
	case StorageAzure:
		if !c.AzureEnabled() {
			return apperrors.NewConfigError("STORAGE_BACKEND=azure requires AZURE_STORAGE_ACCOUNT and AZURE_STORAGE_KEY", nil)
		}
	default:
		return apperrors.NewConfigError(fmt.Sprintf("invalid STORAGE_BACKEND: %q", c.StorageBackend), nil)
	}

	return nil
}

// validAspectRatio accepts "W:H" with positive integers.
func validAspectRatio(s string) bool {
	w, h, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return false
	}
	wi, err1 := strconv.Atoi(w)
	hi, err2 := strconv.Atoi(h)
	return err1 == nil && err2 == nil && wi > 0 && hi > 0
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(strings.TrimSpace(value)); err == nil && duration > 0 {
			return duration
		}
	}
	return defaultValue
}

func parseIntOrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func parseFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
			return f
		}
	}
	return defaultValue
}
