package controller

import (
	"context"
	"errors"

	"go-vision-capture/pkg/models"
)

// ErrCaptureCancelled is returned by a CaptureSession when the user backs out
// of a capture. The controller treats it as a no-op.
var ErrCaptureCancelled = errors.New("capture cancelled")

// PermissionGate resolves camera access once per session
type PermissionGate interface {
	RequestCameraPermission(ctx context.Context) (PermissionState, error)
}

// CaptureSession abstracts the camera hardware
type CaptureSession interface {
	Open(ctx context.Context) error
	Capture(ctx context.Context, opts models.CaptureOptions) (models.PhotoRef, error)
	Close(ctx context.Context) error
}

// PhotoReader loads a captured photo by reference
type PhotoReader interface {
	ReadPhoto(ctx context.Context, ref string) ([]byte, error)
}

// Labeler sends image bytes to the labeling service
type Labeler interface {
	DetectLabels(ctx context.Context, image []byte) (models.LabelResult, error)
}

type PermissionState int

const (
	PermissionUnknown PermissionState = iota
	PermissionGranted
	PermissionDenied
)

func (s PermissionState) String() string {
	switch s {
	case PermissionGranted:
		return "granted"
	case PermissionDenied:
		return "denied"
	default:
		return "unknown"
	}
}

func (s PermissionState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// ParsePermissionState maps configuration values onto a state
func ParsePermissionState(s string) PermissionState {
	switch s {
	case "granted":
		return PermissionGranted
	case "denied":
		return PermissionDenied
	default:
		return PermissionUnknown
	}
}

type ScreenState int

const (
	ScreenIdle ScreenState = iota
	ScreenCameraOpen
)

func (s ScreenState) String() string {
	if s == ScreenCameraOpen {
		return "camera_open"
	}
	return "idle"
}

func (s ScreenState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

type AnalysisState int

const (
	AnalysisNotStarted AnalysisState = iota
	AnalysisInFlight
	AnalysisSucceeded
	AnalysisFailed
)

func (s AnalysisState) String() string {
	switch s {
	case AnalysisInFlight:
		return "in_flight"
	case AnalysisSucceeded:
		return "succeeded"
	case AnalysisFailed:
		return "failed"
	default:
		return "not_started"
	}
}

func (s AnalysisState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Phase is the top-level screen the presenter renders
type Phase string

const (
	PhasePermissionPending Phase = "permission_pending"
	PhasePermissionDenied  Phase = "permission_denied"
	PhaseCameraOpen        Phase = "camera_open"
	PhaseIdle              Phase = "idle"
)

// Snapshot is an immutable copy of the controller state
type Snapshot struct {
	Phase      Phase
	Permission PermissionState
	Screen     ScreenState
	Facing     models.CameraFacing
	Photo      *models.CapturedPhoto
	Analysis   AnalysisState
	Labels     models.LabelResult
	// LastError is the failure of the most recent analysis, cleared by a new
	// capture, a delete or a successful analysis.
	LastError error
}

// HasPhoto reports whether a photo is currently held
func (s Snapshot) HasPhoto() bool {
	return s.Photo != nil
}
