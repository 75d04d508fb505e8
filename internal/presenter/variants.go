package presenter

import (
	"fmt"
	"strings"

	apperrors "go-vision-capture/internal/errors"
)

// Action is a user interaction the bridge can dispatch to the controller
type Action string

const (
	ActionToggleCamera Action = "toggle_camera"
	ActionOpenCamera   Action = "open_camera"
	ActionCloseCamera  Action = "close_camera"
	ActionFlipCamera   Action = "flip_camera"
	ActionCapture      Action = "capture"
	ActionDeletePhoto  Action = "delete_photo"
	ActionAnalyze      Action = "analyze"
)

const (
	VariantViewfinder = "viewfinder"
	VariantCapture    = "capture"
	VariantAnalyze    = "analyze"
	VariantResults    = "results"
)

// Variant decides which actions and which parts of the state a screen shows
type Variant interface {
	GetVariantName() string
	Offers(action Action) bool
	ShowsPhoto() bool
	// ShowsAnalysis reports whether the analysis state and its alerts are rendered
	ShowsAnalysis() bool
	// ShowsLabelList is false when labels are delivered in the alert instead
	ShowsLabelList() bool
}

// baseVariant offers a fixed action set
type baseVariant struct {
	name    string
	actions map[Action]bool
}

func newBaseVariant(name string, actions ...Action) baseVariant {
	set := make(map[Action]bool, len(actions))
	for _, a := range actions {
		set[a] = true
	}
	return baseVariant{name: name, actions: set}
}

func (v baseVariant) GetVariantName() string    { return v.name }
func (v baseVariant) Offers(action Action) bool { return v.actions[action] }

var cameraActions = []Action{ActionToggleCamera, ActionOpenCamera, ActionCloseCamera}

var captureActions = append(append([]Action{}, cameraActions...), ActionCapture, ActionFlipCamera, ActionDeletePhoto)

var analyzeActions = append(append([]Action{}, captureActions...), ActionAnalyze)

// ViewfinderVariant only toggles the camera on and off
type ViewfinderVariant struct{ baseVariant }

func NewViewfinderVariant() Variant {
	return ViewfinderVariant{newBaseVariant(VariantViewfinder, cameraActions...)}
}

func (ViewfinderVariant) ShowsPhoto() bool     { return false }
func (ViewfinderVariant) ShowsAnalysis() bool  { return false }
func (ViewfinderVariant) ShowsLabelList() bool { return false }

// CaptureVariant takes, previews and deletes a photo
type CaptureVariant struct{ baseVariant }

func NewCaptureVariant() Variant {
	return CaptureVariant{newBaseVariant(VariantCapture, captureActions...)}
}

func (CaptureVariant) ShowsPhoto() bool     { return true }
func (CaptureVariant) ShowsAnalysis() bool  { return false }
func (CaptureVariant) ShowsLabelList() bool { return false }

// AnalyzeVariant sends the photo for labeling and shows the labels in an alert
type AnalyzeVariant struct{ baseVariant }

func NewAnalyzeVariant() Variant {
	return AnalyzeVariant{newBaseVariant(VariantAnalyze, analyzeActions...)}
}

func (AnalyzeVariant) ShowsPhoto() bool     { return true }
func (AnalyzeVariant) ShowsAnalysis() bool  { return true }
func (AnalyzeVariant) ShowsLabelList() bool { return false }

// ResultsVariant lists the labels under the preview with a loading indicator
type ResultsVariant struct{ baseVariant }

func NewResultsVariant() Variant {
	return ResultsVariant{newBaseVariant(VariantResults, analyzeActions...)}
}

func (ResultsVariant) ShowsPhoto() bool     { return true }
func (ResultsVariant) ShowsAnalysis() bool  { return true }
func (ResultsVariant) ShowsLabelList() bool { return true }

// NewVariant returns the variant registered under name
func NewVariant(name string) (Variant, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case VariantViewfinder:
		return NewViewfinderVariant(), nil
	case VariantCapture:
		return NewCaptureVariant(), nil
	case VariantAnalyze:
		return NewAnalyzeVariant(), nil
	case VariantResults, "":
		return NewResultsVariant(), nil
	default:
		return nil, apperrors.NewConfigError(fmt.Sprintf("unknown UI variant %q", name), nil)
	}
}
