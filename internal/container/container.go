package container

import (
	"context"
	"fmt"
	"net/http"

	"go-vision-capture/internal/config"
	"go-vision-capture/internal/controller"
	"go-vision-capture/internal/factory"
	"go-vision-capture/internal/logger"
	"go-vision-capture/internal/observer"
	"go-vision-capture/internal/presenter"
	"go-vision-capture/internal/transport"
	"go-vision-capture/internal/vision"
	"go-vision-capture/pkg/models"
)

// Container holds all application dependencies
type Container struct {
	config     *config.Config
	events     *observer.EventPublisher
	metrics    *observer.MetricsObserver
	controller *controller.Controller
	presenter  *presenter.Presenter
	handler    http.Handler
}

// NewContainer builds the dependency graph from an already validated config
func NewContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	components := factory.NewComponentFactory(cfg)

	gate, err := components.DeviceFactory.CreatePermissionGate(factory.PermissionMode(cfg.CameraPermission))
	if err != nil {
		return nil, fmt.Errorf("failed to create permission gate: %w", err)
	}
	session, err := components.DeviceFactory.CreateCaptureSession()
	if err != nil {
		return nil, fmt.Errorf("failed to create capture session: %w", err)
	}
	reader, err := components.StorageFactory.CreateReader(factory.StorageType(cfg.StorageBackend))
	if err != nil {
		return nil, fmt.Errorf("failed to create photo reader: %w", err)
	}

	labeler, err := vision.NewClient(ctx, vision.Config{
		APIKey:   cfg.VisionAPIKey,
		Endpoint: cfg.VisionEndpoint,
		Timeout:  cfg.AnalysisTimeout,
	})
	if err != nil {
		return nil, err
	}

	events := observer.NewEventPublisher()
	metrics := observer.NewMetricsObserver()
	events.Subscribe(observer.NewLoggingObserver(logger.Logger))
	events.Subscribe(metrics)

	ctrl, err := controller.New(controller.Options{
		Gate:    gate,
		Session: session,
		Reader:  reader,
		Labeler: labeler,
		Events:  events,
		Defaults: models.CaptureOptions{
			Quality:     cfg.CaptureQuality,
			AspectRatio: cfg.CaptureAspectRatio,
		},
	})
	if err != nil {
		return nil, err
	}

	variant, err := presenter.NewVariant(cfg.UIVariant)
	if err != nil {
		return nil, err
	}
	p := presenter.New(variant)

	handler := transport.NewHandler(ctrl, p, metrics, cfg)

	return &Container{
		config:     cfg,
		events:     events,
		metrics:    metrics,
		controller: ctrl,
		presenter:  p,
		handler:    handler,
	}, nil
}

// Handler returns the HTTP handler
func (c *Container) Handler() http.Handler {
	return c.handler
}

// Controller returns the capture-analyze controller
func (c *Container) Controller() *controller.Controller {
	return c.controller
}

// Config returns the configuration
func (c *Container) Config() *config.Config {
	return c.config
}
