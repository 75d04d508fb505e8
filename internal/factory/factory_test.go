package factory

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"go-vision-capture/internal/config"
	"go-vision-capture/internal/controller"
	"go-vision-capture/internal/device"
)

func testConfig(t *testing.T) *config.Config {
	return &config.Config{
		MaxPhotoSize:   1 << 20,
		PhotoDir:       filepath.Join(t.TempDir(), "photos"),
		CaptureCommand: config.DefaultCaptureCommand,
		CameraDevice:   filepath.Join(t.TempDir(), "video0"),
	}
}

func TestStorageFactory_Local(t *testing.T) {
	cfg := testConfig(t)
	reader, err := NewStorageFactory(cfg).CreateReader(LocalStorage)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	path := filepath.Join(t.TempDir(), "p.jpg")
	if err := os.WriteFile(path, []byte{1, 2, 3}, 0o600); err != nil {
		t.Fatalf("Failed to write photo: %v", err)
	}
	data, err := reader.ReadPhoto(context.Background(), path)
	if err != nil || len(data) != 3 {
		t.Errorf("Expected 3 bytes, got %d (%v)", len(data), err)
	}

	if _, err := reader.ReadPhoto(context.Background(), "azblob://photos/p.jpg"); err == nil {
		t.Error("Expected blob reference to fail without azure storage")
	}
}

func TestStorageFactory_AzureRequiresCredentials(t *testing.T) {
	if _, err := NewStorageFactory(testConfig(t)).CreateReader(AzureStorage); err == nil {
		t.Error("Expected error without azure credentials")
	}
}

func TestStorageFactory_Azure(t *testing.T) {
	cfg := testConfig(t)
	cfg.AzureStorageAccount = "devstoreaccount1"
	cfg.AzureStorageKey = "Eby8vdM02xNOcqFlqUwJPLlmEtlCDXJ1OUzFT50uSRZ6IFsuFq2UVErCz4I6tq/K1SZFPTOtr/KBHBeksoGMGw=="

	if _, err := NewStorageFactory(cfg).CreateReader(AzureStorage); err != nil {
		t.Errorf("Unexpected error: %v", err)
	}
}

func TestStorageFactory_Unsupported(t *testing.T) {
	if _, err := NewStorageFactory(testConfig(t)).CreateReader(StorageType("s3")); err == nil {
		t.Error("Expected error for unsupported storage type")
	}
}

func TestDeviceFactory_CreatePermissionGate(t *testing.T) {
	f := NewDeviceFactory(testConfig(t))

	tests := []struct {
		mode     PermissionMode
		expected interface{}
	}{
		{ProbePermission, device.DevicePermissionGate{}},
		{GrantedPermission, device.StaticPermissionGate{State: controller.PermissionGranted}},
		{DeniedPermission, device.StaticPermissionGate{State: controller.PermissionDenied}},
	}

	for _, tt := range tests {
		gate, err := f.CreatePermissionGate(tt.mode)
		if err != nil {
			t.Errorf("%s: unexpected error %v", tt.mode, err)
			continue
		}
		switch expected := tt.expected.(type) {
		case device.DevicePermissionGate:
			if _, ok := gate.(device.DevicePermissionGate); !ok {
				t.Errorf("%s: expected device gate, got %T", tt.mode, gate)
			}
		case device.StaticPermissionGate:
			got, ok := gate.(device.StaticPermissionGate)
			if !ok || got.State != expected.State {
				t.Errorf("%s: expected %+v, got %+v", tt.mode, expected, gate)
			}
		}
	}

	if _, err := f.CreatePermissionGate(PermissionMode("ask")); err == nil {
		t.Error("Expected error for unsupported permission mode")
	}
}

func TestDeviceFactory_CreateCaptureSession(t *testing.T) {
	cfg := testConfig(t)
	session, err := NewDeviceFactory(cfg).CreateCaptureSession()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if session == nil {
		t.Fatal("Expected capture session")
	}
	if info, err := os.Stat(cfg.PhotoDir); err != nil || !info.IsDir() {
		t.Errorf("Expected photo directory to be created, got %v", err)
	}
}
