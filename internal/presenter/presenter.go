// Package presenter turns controller snapshots into rendering-agnostic
// screens and maps failures onto the alerts shown to the user.
package presenter

import (
	"fmt"
	"math"
	"strings"
	"time"

	"go-vision-capture/internal/controller"
	apperrors "go-vision-capture/internal/errors"
	"go-vision-capture/pkg/models"
)

const (
	PendingMessage = "Waiting for camera permission..."
	DeniedMessage  = "This is the Photo Page. Camera access was not granted, so photos cannot be taken."
	NoPhotoAlert   = "Please take a photo first."
)

// Presenter renders screens for one variant
type Presenter struct {
	variant Variant
}

func New(variant Variant) *Presenter {
	return &Presenter{variant: variant}
}

// SetVariant changes the rendered variant
func (p *Presenter) SetVariant(variant Variant) {
	p.variant = variant
}

func (p *Presenter) GetVariantName() string {
	return p.variant.GetVariantName()
}

// Allows reports whether the variant offers action at all, whatever the state
func (p *Presenter) Allows(action Action) bool {
	return p.variant.Offers(action)
}

// Render builds the screen for snap
func (p *Presenter) Render(snap controller.Snapshot) models.Screen {
	screen := models.Screen{
		Variant: p.variant.GetVariantName(),
		Mode:    string(snap.Phase),
		Actions: []string{},
	}

	switch snap.Phase {
	case controller.PhasePermissionPending:
		screen.Message = PendingMessage
		return screen
	case controller.PhasePermissionDenied:
		screen.Message = DeniedMessage
		return screen
	}

	screen.Facing = string(snap.Facing)
	for _, action := range availableActions(snap) {
		if p.variant.Offers(action) {
			screen.Actions = append(screen.Actions, string(action))
		}
	}

	if snap.Phase == controller.PhaseCameraOpen {
		return screen
	}

	if p.variant.ShowsPhoto() && snap.Photo != nil {
		screen.Photo = &models.PhotoView{
			ID:      snap.Photo.ID,
			Ref:     snap.Photo.Ref,
			TakenAt: snap.Photo.TakenAt.UTC().Format(time.RFC3339),
		}
	}

	if !p.variant.ShowsAnalysis() || snap.Photo == nil {
		return screen
	}

	screen.Analysis = snap.Analysis.String()
	switch snap.Analysis {
	case controller.AnalysisInFlight:
		screen.Loading = p.variant.ShowsLabelList()
	case controller.AnalysisSucceeded:
		if p.variant.ShowsLabelList() {
			screen.Labels = LabelViews(snap.Labels)
		} else {
			screen.Alert = LabelsAlert(snap.Labels)
		}
	case controller.AnalysisFailed:
		screen.Alert = AlertFor(snap.LastError)
	}
	return screen
}

// RenderError renders snap with the alert for err taking precedence
func (p *Presenter) RenderError(snap controller.Snapshot, err error) models.Screen {
	screen := p.Render(snap)
	if alert := AlertFor(err); alert != "" {
		screen.Alert = alert
	}
	return screen
}

// availableActions lists what the controller accepts in the snapshot's state
func availableActions(snap controller.Snapshot) []Action {
	if snap.Phase == controller.PhaseCameraOpen {
		return []Action{ActionToggleCamera, ActionCloseCamera, ActionCapture, ActionFlipCamera}
	}

	actions := []Action{ActionFlipCamera}
	if snap.Analysis != controller.AnalysisInFlight {
		actions = append([]Action{ActionToggleCamera, ActionOpenCamera}, actions...)
	}
	if snap.Photo != nil {
		actions = append(actions, ActionDeletePhoto)
		if snap.Analysis != controller.AnalysisInFlight {
			actions = append(actions, ActionAnalyze)
		}
	}
	return actions
}

// AlertFor maps a failure to the text shown to the user. It returns an empty
// string for nil.
func AlertFor(err error) string {
	if err == nil {
		return ""
	}
	switch {
	case apperrors.IsType(err, apperrors.ErrorTypePermission):
		return DeniedMessage
	case apperrors.IsType(err, apperrors.ErrorTypeCapture):
		return "Could not take a photo. Please try again."
	case apperrors.IsType(err, apperrors.ErrorTypeNoPhoto):
		return NoPhotoAlert
	case apperrors.IsType(err, apperrors.ErrorTypeAlreadyInFlight):
		return "The photo is already being analyzed."
	case apperrors.IsType(err, apperrors.ErrorTypeFileReadFailed):
		return "Could not read the photo. Please take it again."
	case apperrors.IsType(err, apperrors.ErrorTypeRequestFailed):
		if apperrors.ReasonOf(err) == apperrors.ReasonTimeout {
			return "The analysis timed out. Please try again."
		}
		return "Could not analyze the photo. Please try again."
	case apperrors.IsType(err, apperrors.ErrorTypeInvalidState):
		return "That action is not available right now."
	case apperrors.IsType(err, apperrors.ErrorTypeForbidden):
		return "That action is not available on this screen."
	case apperrors.IsType(err, apperrors.ErrorTypeValidation):
		return "Invalid request."
	default:
		return "Something went wrong."
	}
}

// FormatPercent renders a score in [0,1] as a rounded percentage, 0.98 -> "98%"
func FormatPercent(score float64) string {
	return fmt.Sprintf("%d%%", int(math.Round(score*100)))
}

func LabelViews(labels models.LabelResult) []models.LabelView {
	views := make([]models.LabelView, 0, len(labels))
	for _, l := range labels {
		views = append(views, models.LabelView{
			Description: l.Description,
			Score:       l.Score,
			Percent:     FormatPercent(l.Score),
		})
	}
	return views
}

// LabelsAlert is the single-alert rendering of a label result
func LabelsAlert(labels models.LabelResult) string {
	if len(labels) == 0 {
		return "No labels found."
	}
	lines := make([]string, 0, len(labels))
	for _, l := range labels {
		lines = append(lines, fmt.Sprintf("%s: %s", l.Description, FormatPercent(l.Score)))
	}
	return strings.Join(lines, "\n")
}
