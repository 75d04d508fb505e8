package models

import "time"

// Label is one label annotation returned by the labeling service.
type Label struct {
	Description string  `json:"description"`
	Score       float64 `json:"score"`
}

// LabelResult keeps the order the service returned, highest confidence first.
type LabelResult []Label

// Clone returns an independent copy so callers cannot mutate controller state.
func (r LabelResult) Clone() LabelResult {
	if r == nil {
		return nil
	}
	out := make(LabelResult, len(r))
	copy(out, r)
	return out
}

// CameraFacing selects the physical camera used for capture
type CameraFacing string

const (
	FacingBack  CameraFacing = "back"
	FacingFront CameraFacing = "front"
)

// Flip returns the opposite facing
func (f CameraFacing) Flip() CameraFacing {
	if f == FacingFront {
		return FacingBack
	}
	return FacingFront
}

// CaptureOptions are passed to the capture session for one still capture.
type CaptureOptions struct {
	Quality     float64      `json:"quality"`
	AspectRatio string       `json:"aspect_ratio"`
	Facing      CameraFacing `json:"facing"`
}

// PhotoRef is what a capture session hands back: a local path or a blob
// reference understood by the storage layer.
type PhotoRef struct {
	Path string `json:"path"`
}

// CapturedPhoto is the single photo owned by the controller
type CapturedPhoto struct {
	ID      string       `json:"id"`
	Ref     string       `json:"ref"`
	TakenAt time.Time    `json:"taken_at"`
	Facing  CameraFacing `json:"facing"`
}
