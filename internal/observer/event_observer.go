package observer

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Event is emitted by the controller on every state transition of interest
type Event struct {
	Type         EventType              `json:"event_type"`
	Timestamp    time.Time              `json:"timestamp"`
	PhotoID      string                 `json:"photo_id,omitempty"`
	Duration     time.Duration          `json:"duration,omitempty"`
	Success      bool                   `json:"success"`
	ErrorMessage string                 `json:"error_message,omitempty"`
	Metadata     map[string]interface{} `json:"metadata,omitempty"`
}

// EventType represents the type of controller event
type EventType string

const (
	PermissionResolved EventType = "permission_resolved"
	CameraOpened       EventType = "camera_opened"
	CameraClosed       EventType = "camera_closed"
	PhotoCaptured      EventType = "photo_captured"
	CaptureFailed      EventType = "capture_failed"
	CaptureCancelled   EventType = "capture_cancelled"
	PhotoDeleted       EventType = "photo_deleted"
	AnalysisStarted    EventType = "analysis_started"
	AnalysisCompleted  EventType = "analysis_completed"
	AnalysisFailed     EventType = "analysis_failed"
)

// Observer defines the interface for event observers
type Observer interface {
	OnEvent(ctx context.Context, event Event)
	GetObserverName() string
}

// Subject defines the interface for event publishers
type Subject interface {
	Subscribe(observer Observer)
	Unsubscribe(observer Observer)
	NotifyObservers(ctx context.Context, event Event)
}

// LoggingObserver logs controller events
type LoggingObserver struct {
	logger *logrus.Logger
}

func NewLoggingObserver(logger *logrus.Logger) Observer {
	return &LoggingObserver{
		logger: logger,
	}
}

func (o *LoggingObserver) OnEvent(ctx context.Context, event Event) {
	fields := logrus.Fields{
		"event_type": event.Type,
		"success":    event.Success,
	}
	if event.PhotoID != "" {
		fields["photo_id"] = event.PhotoID
	}
	if event.Duration > 0 {
		fields["duration_ms"] = event.Duration.Milliseconds()
	}
	if event.ErrorMessage != "" {
		fields["error"] = event.ErrorMessage
	}
	for k, v := range event.Metadata {
		fields[k] = v
	}

	entry := o.logger.WithFields(fields)
	switch event.Type {
	case AnalysisFailed, CaptureFailed:
		entry.Warn("Controller operation failed")
	case CameraOpened, CameraClosed:
		entry.Debug("Camera viewfinder toggled")
	case CaptureCancelled:
		entry.Info("Capture cancelled")
	default:
		entry.Info("Controller event")
	}
}

func (o *LoggingObserver) GetObserverName() string {
	return "logging_observer"
}

// MetricsObserver collects counters from controller events
type MetricsObserver struct {
	mu                   sync.RWMutex
	captures             int64
	captureFailures      int64
	captureCancellations int64
	photosDeleted        int64
	analysesStarted      int64
	analysesSucceeded    int64
	analysesFailed       int64
	labelsReturned       int64
	totalAnalysisTime    time.Duration
}

func NewMetricsObserver() *MetricsObserver {
	return &MetricsObserver{}
}

func (o *MetricsObserver) OnEvent(ctx context.Context, event Event) {
	o.mu.Lock()
	defer o.mu.Unlock()

	switch event.Type {
	case PhotoCaptured:
		o.captures++
	case CaptureFailed:
		o.captureFailures++
	case CaptureCancelled:
		o.captureCancellations++
	case PhotoDeleted:
		o.photosDeleted++
	case AnalysisStarted:
		o.analysesStarted++
	case AnalysisCompleted:
		o.analysesSucceeded++
		o.totalAnalysisTime += event.Duration
		if n, ok := event.Metadata["labels"].(int); ok {
			o.labelsReturned += int64(n)
		}
	case AnalysisFailed:
		o.analysesFailed++
	}
}

func (o *MetricsObserver) GetObserverName() string {
	return "metrics_observer"
}

// GetMetrics returns current metrics
func (o *MetricsObserver) GetMetrics() map[string]interface{} {
	o.mu.RLock()
	defer o.mu.RUnlock()

	avg := time.Duration(0)
	if o.analysesSucceeded > 0 {
		avg = o.totalAnalysisTime / time.Duration(o.analysesSucceeded)
	}

	return map[string]interface{}{
		"captures":              o.captures,
		"capture_failures":      o.captureFailures,
		"capture_cancellations": o.captureCancellations,
		"photos_deleted":        o.photosDeleted,
		"analyses_started":      o.analysesStarted,
		"analyses_succeeded":    o.analysesSucceeded,
		"analyses_failed":       o.analysesFailed,
		"labels_returned":       o.labelsReturned,
		"avg_analysis_ms":       avg.Milliseconds(),
	}
}

// EventPublisher implements the Subject interface
type EventPublisher struct {
	mu        sync.RWMutex
	observers []Observer
}

func NewEventPublisher() *EventPublisher {
	return &EventPublisher{
		observers: make([]Observer, 0),
	}
}

func (p *EventPublisher) Subscribe(observer Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.observers = append(p.observers, observer)
}

func (p *EventPublisher) Unsubscribe(observer Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i, obs := range p.observers {
		if obs.GetObserverName() == observer.GetObserverName() {
			p.observers = append(p.observers[:i], p.observers[i+1:]...)
			break
		}
	}
}

// NotifyObservers fans the event out concurrently. A panicking observer is
// logged and does not affect the others.
func (p *EventPublisher) NotifyObservers(ctx context.Context, event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	p.mu.RLock()
	observers := make([]Observer, len(p.observers))
	copy(observers, p.observers)
	p.mu.RUnlock()

	for _, observer := range observers {
		go func(obs Observer) {
			defer func() {
				if r := recover(); r != nil {
					logrus.WithField("observer", obs.GetObserverName()).
						WithField("panic", r).
						Error("Observer panicked while handling event")
				}
			}()
			obs.OnEvent(ctx, event)
		}(observer)
	}
}
