// Package device adapts the host camera to the controller's permission gate
// and capture session contracts.
package device

import (
	"context"
	"errors"
	"io/fs"
	"os"

	"go-vision-capture/internal/controller"
	"go-vision-capture/internal/logger"
)

// StaticPermissionGate answers with a configured state
type StaticPermissionGate struct {
	State controller.PermissionState
}

func (g StaticPermissionGate) RequestCameraPermission(ctx context.Context) (controller.PermissionState, error) {
	return g.State, nil
}

// DevicePermissionGate grants access when the camera device node can be
// opened for reading by this process.
type DevicePermissionGate struct {
	DevicePath string
}

func (g DevicePermissionGate) RequestCameraPermission(ctx context.Context) (controller.PermissionState, error) {
	if err := ctx.Err(); err != nil {
		return controller.PermissionUnknown, err
	}

	f, err := os.Open(g.DevicePath)
	switch {
	case err == nil:
		f.Close()
		return controller.PermissionGranted, nil
	case errors.Is(err, fs.ErrPermission), errors.Is(err, fs.ErrNotExist):
		logger.WithError(err).WithField("device", g.DevicePath).Info("Camera device not accessible")
		return controller.PermissionDenied, nil
	default:
		return controller.PermissionUnknown, err
	}
}
