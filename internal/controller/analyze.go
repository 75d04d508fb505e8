package controller

import (
	"context"
	"errors"
	"time"

	apperrors "go-vision-capture/internal/errors"
	"go-vision-capture/internal/logger"
	"go-vision-capture/internal/observer"
	"go-vision-capture/pkg/models"

	"github.com/sirupsen/logrus"
)

// Analyze sends the current photo to the labeling service.
//
// The in-flight guard is taken under the lock before the photo is read and
// released by a deferred call on every exit path, panics included, so the
// analysis state is never left InFlight. A failure keeps previously shown
// labels. Once the current photo has been labeled successfully the stored
// labels are returned without another request.
func (c *Controller) Analyze(ctx context.Context) (labels models.LabelResult, err error) {
	c.mu.Lock()
	if err := c.requireGranted(); err != nil {
		c.mu.Unlock()
		return nil, err
	}
	if c.photo == nil {
		c.mu.Unlock()
		return nil, apperrors.NewNoPhotoError()
	}
	if c.analysis == AnalysisInFlight {
		c.mu.Unlock()
		return nil, apperrors.NewAlreadyInFlightError()
	}
	if c.screen == ScreenCameraOpen || c.cameraBusy {
		c.mu.Unlock()
		return nil, apperrors.NewInvalidStateError("close the camera before analyzing")
	}
	if c.analysis == AnalysisSucceeded {
		stored := c.labels.Clone()
		c.mu.Unlock()
		return stored, nil
	}

	photo := *c.photo
	generation := c.generation
	reqCtx, cancel := context.WithCancel(ctx)
	c.analysis = AnalysisInFlight
	c.cancelInFlight = cancel
	c.mu.Unlock()

	start := time.Now()
	c.publish(ctx, observer.Event{Type: observer.AnalysisStarted, PhotoID: photo.ID})

	completed := false
	defer func() {
		if !completed && err == nil {
			err = apperrors.NewInternalError("analysis aborted", nil)
		}
		labels, err = c.finishAnalysis(ctx, generation, cancel, photo.ID, start, labels, err)
	}()

	data, readErr := c.reader.ReadPhoto(reqCtx, photo.Ref)
	if readErr != nil {
		return nil, apperrors.NewFileReadError(photo.Ref, readErr)
	}

	result, reqErr := c.labeler.DetectLabels(reqCtx, data)
	if reqErr != nil {
		return nil, asRequestFailed(reqCtx, reqErr)
	}

	completed = true
	return result.Clone(), nil
}

// finishAnalysis releases the in-flight guard and records the outcome. An
// outcome for a photo that was deleted or replaced meanwhile is dropped.
func (c *Controller) finishAnalysis(
	ctx context.Context,
	generation uint64,
	cancel context.CancelFunc,
	photoID string,
	start time.Time,
	labels models.LabelResult,
	err error,
) (models.LabelResult, error) {
	cancel()
	duration := time.Since(start)

	c.mu.Lock()
	if generation != c.generation {
		c.mu.Unlock()
		logger.WithField("photo_id", photoID).Info("Discarding analysis result for a deleted photo")
		return nil, apperrors.NewInvalidStateError("photo was deleted while the analysis was in flight")
	}

	c.cancelInFlight = nil
	if err != nil {
		c.analysis = AnalysisFailed
		c.lastErr = err
	} else {
		c.analysis = AnalysisSucceeded
		c.labels = labels.Clone()
		c.lastErr = nil
	}
	c.mu.Unlock()

	fields := logrus.Fields{
		"photo_id":    photoID,
		"duration_ms": duration.Milliseconds(),
	}
	if err != nil {
		logger.WithError(err).WithFields(fields).Error("Photo analysis failed")
		c.publish(ctx, observer.Event{
			Type:         observer.AnalysisFailed,
			PhotoID:      photoID,
			Duration:     duration,
			ErrorMessage: err.Error(),
		})
		return nil, err
	}

	fields["labels"] = len(labels)
	logger.WithFields(fields).Info("Photo analysis completed")
	c.publish(ctx, observer.Event{
		Type:     observer.AnalysisCompleted,
		PhotoID:  photoID,
		Duration: duration,
		Success:  true,
		Metadata: map[string]interface{}{"labels": len(labels)},
	})
	return labels, nil
}

// asRequestFailed makes sure every labeler failure surfaces as RequestFailed
func asRequestFailed(ctx context.Context, err error) error {
	if apperrors.IsType(err, apperrors.ErrorTypeRequestFailed) {
		return err
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return apperrors.NewRequestFailedError(apperrors.ReasonTimeout, err)
	case errors.Is(err, context.Canceled) || ctx.Err() != nil:
		return apperrors.NewRequestFailedError("cancelled", err)
	default:
		return apperrors.NewRequestFailedError(err.Error(), err)
	}
}
