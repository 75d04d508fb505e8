package factory

import (
	"fmt"

	"go-vision-capture/internal/config"
	"go-vision-capture/internal/controller"
	"go-vision-capture/internal/device"
	"go-vision-capture/internal/storage"
)

// StorageType represents different photo storage backends
type StorageType string

const (
	// LocalStorage reads photos from the local file system
	LocalStorage StorageType = config.StorageLocal
	// AzureStorage additionally resolves azblob:// references
	AzureStorage StorageType = config.StorageAzure
)

// PermissionMode selects how camera permission is resolved
type PermissionMode string

const (
	ProbePermission   PermissionMode = config.PermissionProbe
	GrantedPermission PermissionMode = config.PermissionGranted
	DeniedPermission  PermissionMode = config.PermissionDenied
)

// StorageFactory creates photo readers
type StorageFactory interface {
	CreateReader(storageType StorageType) (controller.PhotoReader, error)
}

// DeviceFactory creates the camera adapters
type DeviceFactory interface {
	CreatePermissionGate(mode PermissionMode) (controller.PermissionGate, error)
	CreateCaptureSession() (controller.CaptureSession, error)
}

// storageFactory implements StorageFactory
type storageFactory struct {
	cfg *config.Config
}

func NewStorageFactory(cfg *config.Config) StorageFactory {
	return &storageFactory{cfg: cfg}
}

// CreateReader returns a reader that always handles local paths. The azure
// backend routes blob references to Azure Blob Storage.
func (f *storageFactory) CreateReader(storageType StorageType) (controller.PhotoReader, error) {
	local := storage.NewLocalPhotoReader(f.cfg.MaxPhotoSize)

	switch storageType {
	case LocalStorage, "":
		return storage.NewRoutingPhotoReader(local, nil), nil
	case AzureStorage:
		if !f.cfg.AzureEnabled() {
			return nil, fmt.Errorf("azure storage requires AZURE_STORAGE_ACCOUNT and AZURE_STORAGE_KEY")
		}
		blob, err := storage.NewAzurePhotoReader(f.cfg.AzureStorageAccount, f.cfg.AzureStorageKey, f.cfg.MaxPhotoSize)
		if err != nil {
			return nil, fmt.Errorf("failed to create azure photo reader: %w", err)
		}
		return storage.NewRoutingPhotoReader(local, blob), nil
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", storageType)
	}
}

// deviceFactory implements DeviceFactory
type deviceFactory struct {
	cfg *config.Config
}

func NewDeviceFactory(cfg *config.Config) DeviceFactory {
	return &deviceFactory{cfg: cfg}
}

func (f *deviceFactory) CreatePermissionGate(mode PermissionMode) (controller.PermissionGate, error) {
	switch mode {
	case ProbePermission, "":
		return device.DevicePermissionGate{DevicePath: f.cfg.CameraDevice}, nil
	case GrantedPermission:
		return device.StaticPermissionGate{State: controller.PermissionGranted}, nil
	case DeniedPermission:
		return device.StaticPermissionGate{State: controller.PermissionDenied}, nil
	default:
		return nil, fmt.Errorf("unsupported permission mode: %s", mode)
	}
}

func (f *deviceFactory) CreateCaptureSession() (controller.CaptureSession, error) {
	return device.NewCommandCaptureSession(f.cfg.CaptureCommand, f.cfg.PhotoDir)
}

// ComponentFactory combines all factories
type ComponentFactory struct {
	StorageFactory StorageFactory
	DeviceFactory  DeviceFactory
}

func NewComponentFactory(cfg *config.Config) *ComponentFactory {
	return &ComponentFactory{
		StorageFactory: NewStorageFactory(cfg),
		DeviceFactory:  NewDeviceFactory(cfg),
	}
}
