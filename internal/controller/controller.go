// Package controller implements the capture-analyze workflow: camera
// permission, viewfinder, single photo capture and one label request at a
// time. All state lives in a Controller and changes only through its methods.
package controller

import (
	"context"
	"errors"
	"sync"
	"time"

	apperrors "go-vision-capture/internal/errors"
	"go-vision-capture/internal/logger"
	"go-vision-capture/internal/observer"
	"go-vision-capture/pkg/models"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type Options struct {
	Gate    PermissionGate
	Session CaptureSession
	Reader  PhotoReader
	Labeler Labeler
	// Events is optional
	Events observer.Subject
	// Defaults fill zero fields of the options passed to Capture
	Defaults models.CaptureOptions

	Now   func() time.Time
	NewID func() string
}

type Controller struct {
	gate    PermissionGate
	session CaptureSession
	reader  PhotoReader
	labeler Labeler
	events  observer.Subject

	defaults models.CaptureOptions
	now      func() time.Time
	newID    func() string

	// serializes Start so the gate is asked at most once
	startMu sync.Mutex

	mu         sync.Mutex
	permission PermissionState
	screen     ScreenState
	facing     models.CameraFacing
	photo      *models.CapturedPhoto
	analysis   AnalysisState
	labels     models.LabelResult
	lastErr    error
	// cameraBusy is set while the session is opening, capturing or closing
	cameraBusy bool
	// generation changes whenever the photo is replaced or deleted; an
	// analysis started under an older generation is discarded on completion
	generation     uint64
	cancelInFlight context.CancelFunc
}

func New(opts Options) (*Controller, error) {
	if opts.Gate == nil || opts.Session == nil || opts.Reader == nil || opts.Labeler == nil {
		return nil, apperrors.NewConfigError("controller requires a permission gate, capture session, photo reader and labeler", nil)
	}

	defaults := opts.Defaults
	if defaults.Quality <= 0 || defaults.Quality > 1 {
		defaults.Quality = 1
	}
	if defaults.AspectRatio == "" {
		defaults.AspectRatio = "4:3"
	}
	if defaults.Facing == "" {
		defaults.Facing = models.FacingBack
	}

	now := opts.Now
	if now == nil {
		now = time.Now
	}
	newID := opts.NewID
	if newID == nil {
		newID = uuid.NewString
	}

	return &Controller{
		gate:     opts.Gate,
		session:  opts.Session,
		reader:   opts.Reader,
		labeler:  opts.Labeler,
		events:   opts.Events,
		defaults: defaults,
		now:      now,
		newID:    newID,
		facing:   defaults.Facing,
	}, nil
}

// Start asks the permission gate once. Later calls return the stored answer.
// Anything but an explicit grant, including a gate error, denies the session.
func (c *Controller) Start(ctx context.Context) (PermissionState, error) {
	c.startMu.Lock()
	defer c.startMu.Unlock()

	c.mu.Lock()
	if c.permission != PermissionUnknown {
		state := c.permission
		c.mu.Unlock()
		return state, nil
	}
	c.mu.Unlock()

	state, err := c.gate.RequestCameraPermission(ctx)
	if err != nil || state != PermissionGranted {
		state = PermissionDenied
	}

	c.mu.Lock()
	c.permission = state
	c.mu.Unlock()

	c.publish(ctx, observer.Event{
		Type:     observer.PermissionResolved,
		Success:  state == PermissionGranted,
		Metadata: map[string]interface{}{"permission": state.String()},
	})

	if err != nil {
		logger.WithError(err).Error("Camera permission request failed")
		return state, apperrors.NewPermissionError("camera permission request failed", err)
	}
	logger.WithField("permission", state.String()).Info("Camera permission resolved")
	return state, nil
}

// Snapshot returns a copy of the current state
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := Snapshot{
		Permission: c.permission,
		Screen:     c.screen,
		Facing:     c.facing,
		Analysis:   c.analysis,
		Labels:     c.labels.Clone(),
		LastError:  c.lastErr,
	}
	if c.photo != nil {
		photo := *c.photo
		snap.Photo = &photo
	}

	switch {
	case c.permission == PermissionUnknown:
		snap.Phase = PhasePermissionPending
	case c.permission == PermissionDenied:
		snap.Phase = PhasePermissionDenied
	case c.screen == ScreenCameraOpen:
		snap.Phase = PhaseCameraOpen
	default:
		snap.Phase = PhaseIdle
	}
	return snap
}

// requireGranted must be called with c.mu held
func (c *Controller) requireGranted() error {
	switch c.permission {
	case PermissionGranted:
		return nil
	case PermissionDenied:
		return apperrors.NewPermissionError("camera permission was denied", nil)
	default:
		return apperrors.NewInvalidStateError("camera permission has not been resolved")
	}
}

// OpenCamera shows the viewfinder. It is rejected while a label request is
// in flight so a new capture can never race an outstanding analysis.
func (c *Controller) OpenCamera(ctx context.Context) error {
	c.mu.Lock()
	if err := c.requireGranted(); err != nil {
		c.mu.Unlock()
		return err
	}
	if c.screen == ScreenCameraOpen {
		c.mu.Unlock()
		return nil
	}
	if c.analysis == AnalysisInFlight {
		c.mu.Unlock()
		return apperrors.NewInvalidStateError("cannot open the camera while an analysis is in flight")
	}
	if c.cameraBusy {
		c.mu.Unlock()
		return apperrors.NewInvalidStateError("camera operation already in progress")
	}
	c.cameraBusy = true
	c.mu.Unlock()

	err := c.session.Open(ctx)

	c.mu.Lock()
	c.cameraBusy = false
	if err == nil {
		c.screen = ScreenCameraOpen
	}
	c.mu.Unlock()

	if err != nil {
		logger.WithError(err).Error("Failed to open camera")
		return apperrors.NewCaptureError("failed to open camera", err)
	}
	c.publish(ctx, observer.Event{Type: observer.CameraOpened, Success: true})
	return nil
}

// CloseCamera hides the viewfinder without capturing. The photo, if any, is
// kept. Session close errors are logged only.
func (c *Controller) CloseCamera(ctx context.Context) error {
	c.mu.Lock()
	if err := c.requireGranted(); err != nil {
		c.mu.Unlock()
		return err
	}
	if c.screen != ScreenCameraOpen {
		c.mu.Unlock()
		return nil
	}
	if c.cameraBusy {
		c.mu.Unlock()
		return apperrors.NewInvalidStateError("camera operation already in progress")
	}
	c.cameraBusy = true
	c.mu.Unlock()

	c.closeSession(ctx)

	c.mu.Lock()
	c.screen = ScreenIdle
	c.cameraBusy = false
	c.mu.Unlock()

	c.publish(ctx, observer.Event{Type: observer.CameraClosed, Success: true})
	return nil
}

// ToggleCamera opens the viewfinder when idle and closes it when open
func (c *Controller) ToggleCamera(ctx context.Context) error {
	if c.Snapshot().Screen == ScreenCameraOpen {
		return c.CloseCamera(ctx)
	}
	return c.OpenCamera(ctx)
}

// FlipCamera switches between the back and front camera for later captures
func (c *Controller) FlipCamera() (models.CameraFacing, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.requireGranted(); err != nil {
		return c.facing, err
	}
	c.facing = c.facing.Flip()
	return c.facing, nil
}

// Capture takes a photo while the viewfinder is open. On success the new
// photo replaces the old one, labels are cleared and the viewfinder closes.
// On failure the viewfinder stays open for a manual retry. A cancelled
// capture returns (nil, nil).
func (c *Controller) Capture(ctx context.Context, opts models.CaptureOptions) (*models.CapturedPhoto, error) {
	c.mu.Lock()
	if err := c.requireGranted(); err != nil {
		c.mu.Unlock()
		return nil, err
	}
	if c.screen != ScreenCameraOpen {
		c.mu.Unlock()
		return nil, apperrors.NewInvalidStateError("camera is not open")
	}
	if c.cameraBusy {
		c.mu.Unlock()
		return nil, apperrors.NewCaptureError("camera is busy", nil)
	}
	c.cameraBusy = true
	opts = c.resolveOptions(opts)
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.cameraBusy = false
		c.mu.Unlock()
	}()

	ref, err := c.session.Capture(ctx, opts)
	if err == nil && ref.Path == "" {
		err = errors.New("capture session returned no photo")
	}
	if err != nil {
		if errors.Is(err, ErrCaptureCancelled) || errors.Is(err, context.Canceled) {
			logger.WithError(err).Info("Capture cancelled")
			c.publish(ctx, observer.Event{Type: observer.CaptureCancelled})
			return nil, nil
		}
		logger.WithError(err).WithField("facing", opts.Facing).Error("Capture failed")
		c.publish(ctx, observer.Event{Type: observer.CaptureFailed, ErrorMessage: err.Error()})
		return nil, apperrors.NewCaptureError("failed to capture photo", err)
	}

	photo := &models.CapturedPhoto{
		ID:      c.newID(),
		Ref:     ref.Path,
		TakenAt: c.now(),
		Facing:  opts.Facing,
	}

	c.mu.Lock()
	c.photo = photo
	c.labels = nil
	c.analysis = AnalysisNotStarted
	c.lastErr = nil
	c.generation++
	c.screen = ScreenIdle
	c.mu.Unlock()

	// the viewfinder closes after every successful capture
	c.closeSession(ctx)

	logger.WithFields(logrus.Fields{
		"photo_id": photo.ID,
		"facing":   photo.Facing,
	}).Info("Photo captured")
	c.publish(ctx, observer.Event{Type: observer.PhotoCaptured, PhotoID: photo.ID, Success: true})

	result := *photo
	return &result, nil
}

// DeletePhoto clears the photo and labels and resets the analysis state,
// whatever the prior state. An in-flight request is cancelled and its
// result discarded.
func (c *Controller) DeletePhoto(ctx context.Context) error {
	c.mu.Lock()
	if err := c.requireGranted(); err != nil {
		c.mu.Unlock()
		return err
	}
	var photoID string
	if c.photo != nil {
		photoID = c.photo.ID
	}
	c.photo = nil
	c.labels = nil
	c.analysis = AnalysisNotStarted
	c.lastErr = nil
	c.generation++
	cancel := c.cancelInFlight
	c.cancelInFlight = nil
	c.mu.Unlock()

	if cancel != nil {
		cancel()
		logger.WithField("photo_id", photoID).Info("Cancelled in-flight analysis for deleted photo")
	}
	c.publish(ctx, observer.Event{Type: observer.PhotoDeleted, PhotoID: photoID, Success: true})
	return nil
}

// resolveOptions must be called with c.mu held
func (c *Controller) resolveOptions(opts models.CaptureOptions) models.CaptureOptions {
	if opts.Quality <= 0 || opts.Quality > 1 {
		opts.Quality = c.defaults.Quality
	}
	if opts.AspectRatio == "" {
		opts.AspectRatio = c.defaults.AspectRatio
	}
	if opts.Facing == "" {
		opts.Facing = c.facing
	}
	return opts
}

func (c *Controller) closeSession(ctx context.Context) {
	if err := c.session.Close(ctx); err != nil {
		logger.WithError(err).Warn("Failed to close camera session")
	}
}

func (c *Controller) publish(ctx context.Context, event observer.Event) {
	if c.events == nil {
		return
	}
	event.Timestamp = c.now()
	c.events.NotifyObservers(context.WithoutCancel(ctx), event)
}
