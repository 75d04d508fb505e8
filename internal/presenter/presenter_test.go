package presenter

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"go-vision-capture/internal/controller"
	apperrors "go-vision-capture/internal/errors"
	"go-vision-capture/pkg/models"
)

func idleWithPhoto(analysis controller.AnalysisState) controller.Snapshot {
	return controller.Snapshot{
		Phase:      controller.PhaseIdle,
		Permission: controller.PermissionGranted,
		Screen:     controller.ScreenIdle,
		Facing:     models.FacingBack,
		Photo: &models.CapturedPhoto{
			ID:      "p1",
			Ref:     "/photos/p1.jpg",
			TakenAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		},
		Analysis: analysis,
	}
}

func TestFormatPercent(t *testing.T) {
	tests := []struct {
		score    float64
		expected string
	}{
		{0.98, "98%"},
		{0.91, "91%"},
		{0.9149, "91%"},
		{0.0049, "0%"},
		{1, "100%"},
	}
	for _, tt := range tests {
		if got := FormatPercent(tt.score); got != tt.expected {
			t.Errorf("FormatPercent(%v): expected %s, got %s", tt.score, tt.expected, got)
		}
	}
}

func TestRender_ResultsShowsLabelsInOrder(t *testing.T) {
	snap := idleWithPhoto(controller.AnalysisSucceeded)
	snap.Labels = models.LabelResult{
		{Description: "Cat", Score: 0.98},
		{Description: "Animal", Score: 0.91},
	}

	screen := New(NewResultsVariant()).Render(snap)

	if len(screen.Labels) != 2 {
		t.Fatalf("Expected 2 labels, got %d", len(screen.Labels))
	}
	if screen.Labels[0].Description != "Cat" || screen.Labels[0].Percent != "98%" {
		t.Errorf("Unexpected first label %+v", screen.Labels[0])
	}
	if screen.Labels[1].Description != "Animal" || screen.Labels[1].Percent != "91%" {
		t.Errorf("Unexpected second label %+v", screen.Labels[1])
	}
	if screen.Alert != "" || screen.Loading {
		t.Errorf("Expected no alert and no loading, got %q / %v", screen.Alert, screen.Loading)
	}
	if screen.Photo == nil || screen.Photo.TakenAt != "2024-05-01T12:00:00Z" {
		t.Errorf("Expected photo preview, got %+v", screen.Photo)
	}
}

func TestRender_AnalyzeVariantUsesAlert(t *testing.T) {
	snap := idleWithPhoto(controller.AnalysisSucceeded)
	snap.Labels = models.LabelResult{
		{Description: "Cat", Score: 0.98},
		{Description: "Animal", Score: 0.91},
	}

	screen := New(NewAnalyzeVariant()).Render(snap)

	if screen.Labels != nil {
		t.Errorf("Expected no label list, got %+v", screen.Labels)
	}
	if screen.Alert != "Cat: 98%\nAnimal: 91%" {
		t.Errorf("Unexpected alert %q", screen.Alert)
	}
}

func TestRender_Loading(t *testing.T) {
	screen := New(NewResultsVariant()).Render(idleWithPhoto(controller.AnalysisInFlight))
	if !screen.Loading {
		t.Error("Expected loading indicator while in flight")
	}
	for _, action := range screen.Actions {
		if action == string(ActionAnalyze) || action == string(ActionOpenCamera) {
			t.Errorf("Expected %s to be unavailable while in flight", action)
		}
	}
}

func TestRender_FailedAnalysisAlert(t *testing.T) {
	snap := idleWithPhoto(controller.AnalysisFailed)
	snap.LastError = apperrors.NewRequestFailedError(apperrors.ReasonTimeout, nil)

	screen := New(NewResultsVariant()).Render(snap)
	if screen.Alert != "The analysis timed out. Please try again." {
		t.Errorf("Unexpected alert %q", screen.Alert)
	}
}

func TestRender_PermissionPhases(t *testing.T) {
	tests := []struct {
		phase   controller.Phase
		message string
	}{
		{controller.PhasePermissionPending, PendingMessage},
		{controller.PhasePermissionDenied, DeniedMessage},
	}
	for _, tt := range tests {
		screen := New(NewResultsVariant()).Render(controller.Snapshot{Phase: tt.phase})
		if screen.Message != tt.message {
			t.Errorf("%s: expected message %q, got %q", tt.phase, tt.message, screen.Message)
		}
		if len(screen.Actions) != 0 {
			t.Errorf("%s: expected no actions, got %v", tt.phase, screen.Actions)
		}
	}
}

func TestRender_ActionsPerVariant(t *testing.T) {
	idle := controller.Snapshot{Phase: controller.PhaseIdle, Permission: controller.PermissionGranted}
	open := controller.Snapshot{Phase: controller.PhaseCameraOpen, Permission: controller.PermissionGranted, Screen: controller.ScreenCameraOpen}

	tests := []struct {
		name     string
		variant  Variant
		snap     controller.Snapshot
		expected []string
	}{
		{"viewfinder idle", NewViewfinderVariant(), idle, []string{"toggle_camera", "open_camera"}},
		{"viewfinder open", NewViewfinderVariant(), open, []string{"toggle_camera", "close_camera"}},
		{"capture open", NewCaptureVariant(), open, []string{"toggle_camera", "close_camera", "capture", "flip_camera"}},
		{"capture with photo", NewCaptureVariant(), idleWithPhoto(controller.AnalysisNotStarted), []string{"toggle_camera", "open_camera", "flip_camera", "delete_photo"}},
		{"results with photo", NewResultsVariant(), idleWithPhoto(controller.AnalysisNotStarted), []string{"toggle_camera", "open_camera", "flip_camera", "delete_photo", "analyze"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			screen := New(tt.variant).Render(tt.snap)
			if !reflect.DeepEqual(screen.Actions, tt.expected) {
				t.Errorf("Expected %v, got %v", tt.expected, screen.Actions)
			}
		})
	}
}

func TestRender_ViewfinderHidesPhoto(t *testing.T) {
	screen := New(NewViewfinderVariant()).Render(idleWithPhoto(controller.AnalysisNotStarted))
	if screen.Photo != nil || screen.Analysis != "" {
		t.Errorf("Expected no photo or analysis, got %+v", screen)
	}
}

func TestAlertFor(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{"nil", nil, ""},
		{"no photo", apperrors.NewNoPhotoError(), NoPhotoAlert},
		{"permission", apperrors.NewPermissionError("denied", nil), DeniedMessage},
		{"in flight", apperrors.NewAlreadyInFlightError(), "The photo is already being analyzed."},
		{"status", apperrors.NewRequestFailedError("status 500", nil), "Could not analyze the photo. Please try again."},
		{"capture", apperrors.NewCaptureError("failed", nil), "Could not take a photo. Please try again."},
		{"unknown", errors.New("boom"), "Something went wrong."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AlertFor(tt.err); got != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestRenderError_AlertTakesPrecedence(t *testing.T) {
	snap := controller.Snapshot{Phase: controller.PhaseIdle, Permission: controller.PermissionGranted}
	screen := New(NewResultsVariant()).RenderError(snap, apperrors.NewNoPhotoError())
	if screen.Alert != "Please take a photo first." {
		t.Errorf("Unexpected alert %q", screen.Alert)
	}
}

func TestNewVariant(t *testing.T) {
	for _, name := range []string{"viewfinder", "capture", "analyze", "results", ""} {
		v, err := NewVariant(name)
		if err != nil {
			t.Errorf("%q: unexpected error %v", name, err)
			continue
		}
		if name != "" && v.GetVariantName() != name {
			t.Errorf("Expected %s, got %s", name, v.GetVariantName())
		}
	}
	if _, err := NewVariant("carousel"); !apperrors.IsType(err, apperrors.ErrorTypeConfiguration) {
		t.Errorf("Expected configuration error, got %v", err)
	}
}

func TestPresenter_Allows(t *testing.T) {
	p := New(NewViewfinderVariant())
	if !p.Allows(ActionToggleCamera) || p.Allows(ActionAnalyze) {
		t.Error("Viewfinder should only allow camera actions")
	}
	p.SetVariant(NewResultsVariant())
	if !p.Allows(ActionAnalyze) || p.GetVariantName() != VariantResults {
		t.Error("Results variant should allow analyze")
	}
}
