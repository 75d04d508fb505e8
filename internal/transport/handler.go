package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go-vision-capture/internal/config"
	"go-vision-capture/internal/controller"
	apperrors "go-vision-capture/internal/errors"
	"go-vision-capture/internal/logger"
	"go-vision-capture/internal/presenter"
	"go-vision-capture/pkg/models"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Controller is the part of the capture-analyze controller the bridge drives
type Controller interface {
	Snapshot() controller.Snapshot
	ToggleCamera(ctx context.Context) error
	OpenCamera(ctx context.Context) error
	CloseCamera(ctx context.Context) error
	FlipCamera() (models.CameraFacing, error)
	Capture(ctx context.Context, opts models.CaptureOptions) (*models.CapturedPhoto, error)
	DeletePhoto(ctx context.Context) error
	Analyze(ctx context.Context) (models.LabelResult, error)
}

// MetricsSource exposes event counters
type MetricsSource interface {
	GetMetrics() map[string]interface{}
}

type handler struct {
	ctrl      Controller
	presenter *presenter.Presenter
	metrics   MetricsSource
	timeout   time.Duration
}

func NewHandler(ctrl Controller, p *presenter.Presenter, metrics MetricsSource, cfg *config.Config) http.Handler {
	h := &handler{
		ctrl:      ctrl,
		presenter: p,
		metrics:   metrics,
		timeout:   cfg.RequestTimeout,
	}

	r := gin.New()
	r.Use(
		gin.Recovery(),
		requestLogger(),
		requestSizeLimiter(cfg.MaxRequestBodySize),
		errorHandler(h),
	)

	r.GET("/health", healthCheck)
	r.GET("/screen", h.screen)
	r.GET("/metrics", h.getMetrics)

	camera := r.Group("/camera")
	camera.POST("/toggle", h.allow(presenter.ActionToggleCamera), h.cameraAction(h.ctrl.ToggleCamera))
	camera.POST("/open", h.allow(presenter.ActionOpenCamera), h.cameraAction(h.ctrl.OpenCamera))
	camera.POST("/close", h.allow(presenter.ActionCloseCamera), h.cameraAction(h.ctrl.CloseCamera))
	camera.POST("/flip", h.allow(presenter.ActionFlipCamera), h.flipCamera)
	camera.POST("/capture", h.allow(presenter.ActionCapture), h.capture)

	r.DELETE("/photo", h.allow(presenter.ActionDeletePhoto), h.cameraAction(h.ctrl.DeletePhoto))
	r.POST("/analyze", h.allow(presenter.ActionAnalyze), h.analyze)

	return r
}

func (h *handler) render() models.Screen {
	return h.presenter.Render(h.ctrl.Snapshot())
}

func (h *handler) screen(c *gin.Context) {
	c.JSON(http.StatusOK, h.render())
}

func (h *handler) getMetrics(c *gin.Context) {
	metrics := map[string]interface{}{}
	if h.metrics != nil {
		metrics = h.metrics.GetMetrics()
	}
	c.JSON(http.StatusOK, models.MetricsResponse{Metrics: metrics})
}

// allow rejects actions the configured variant does not offer
func (h *handler) allow(action presenter.Action) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !h.presenter.Allows(action) {
			err := apperrors.NewForbiddenError(fmt.Sprintf("action %s is not offered by the %s screen", action, h.presenter.GetVariantName()))
			respondError(c, h, err)
			return
		}
		c.Next()
	}
}

func (h *handler) cameraAction(op func(ctx context.Context) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
		defer cancel()

		if err := op(ctx); err != nil {
			c.Error(err)
			return
		}
		c.JSON(http.StatusOK, h.render())
	}
}

func (h *handler) flipCamera(c *gin.Context) {
	if _, err := h.ctrl.FlipCamera(); err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, h.render())
}

func (h *handler) capture(c *gin.Context) {
	var req models.CaptureRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.Error(apperrors.NewValidationError("invalid capture request", err))
		return
	}

	opts := models.CaptureOptions{AspectRatio: req.AspectRatio}
	if req.Quality != nil {
		opts.Quality = *req.Quality
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	photo, err := h.ctrl.Capture(ctx, opts)
	if err != nil {
		c.Error(err)
		return
	}
	if photo == nil {
		logger.WithField("path", c.Request.URL.Path).Debug("Capture returned without a photo")
	}
	c.JSON(http.StatusOK, h.render())
}

func (h *handler) analyze(c *gin.Context) {
	startTime := time.Now()
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	labels, err := h.ctrl.Analyze(ctx)
	if err != nil {
		c.Error(err)
		return
	}

	logger.WithFields(logrus.Fields{
		"labels":             len(labels),
		"processing_time_ms": time.Since(startTime).Milliseconds(),
	}).Info("Analyze request completed")
	c.JSON(http.StatusOK, h.render())
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "available",
		"version": "1.0.0",
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

// Middleware and helper functions
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.WithFields(logrus.Fields{
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"status_code": c.Writer.Status(),
			"duration_ms": time.Since(start).Milliseconds(),
			"ip":          c.ClientIP(),
		}).Debug("Request handled")
	}
}

func requestSizeLimiter(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

func errorHandler(h *handler) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 && !c.Writer.Written() {
			respondError(c, h, c.Errors.Last().Err)
		}
	}
}

func determineStatusCode(err error) int {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusRequestTimeout
	default:
		return http.StatusInternalServerError
	}
}

// respondError answers with the failure, the alert to show and the screen to
// render after it
func respondError(c *gin.Context, h *handler, err error) {
	code := determineStatusCode(err)

	fields := logrus.Fields{
		"status_code": code,
		"path":        c.Request.URL.Path,
		"method":      c.Request.Method,
		"ip":          c.ClientIP(),
	}
	if code >= http.StatusInternalServerError {
		logger.WithError(err).WithFields(fields).Error("Request failed")
	} else {
		logger.WithError(err).WithFields(fields).Warn("Request rejected")
	}

	screen := h.presenter.RenderError(h.ctrl.Snapshot(), err)
	c.AbortWithStatusJSON(code, models.ErrorResponse{
		Error:   http.StatusText(code),
		Message: err.Error(),
		Alert:   presenter.AlertFor(err),
		Screen:  &screen,
	})
}
