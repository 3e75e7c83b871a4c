package observer

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"go-photo-engine/pkg/models"
)

// ProcessingEvent represents one lifecycle event of a processing request
type ProcessingEvent struct {
	EventType EventType              `json:"event_type"`
	Timestamp time.Time              `json:"timestamp"`
	RequestID string                 `json:"request_id"`
	Mode      models.ProcessingMode  `json:"mode,omitempty"`
	Elapsed   time.Duration          `json:"elapsed,omitempty"`
	Success   bool                   `json:"success"`
	ErrorMsg  string                 `json:"error_message,omitempty"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// EventType represents the type of processing event
type EventType string

const (
	// ProcessingStarted when a request enters the state machine
	ProcessingStarted EventType = "processing_started"
	// StrategyPlanned when the planner has chosen an execution mode
	StrategyPlanned EventType = "strategy_planned"
	// FallbackTriggered when the primary mode failed and the fallback
	// attempt begins
	FallbackTriggered EventType = "fallback_triggered"
	// CacheServed when a request is answered entirely from the cache
	CacheServed EventType = "cache_served"
	// ProcessingCompleted when a request reaches the Completed state
	ProcessingCompleted EventType = "processing_completed"
	// ProcessingFailed when a request reaches the Failed state
	ProcessingFailed EventType = "processing_failed"
	// ProcessingCancelled when the caller cancelled a request
	ProcessingCancelled EventType = "processing_cancelled"
)

// Observer defines the interface for event observers
type Observer interface {
	OnEvent(ctx context.Context, event ProcessingEvent)
	GetObserverName() string
}

// Subject defines the interface for event publishers
type Subject interface {
	Subscribe(observer Observer)
	Unsubscribe(observer Observer)
	NotifyObservers(ctx context.Context, event ProcessingEvent)
}

// LoggingObserver logs processing events
type LoggingObserver struct {
	logger *logrus.Logger
}

// NewLoggingObserver creates a new logging observer
func NewLoggingObserver(logger *logrus.Logger) Observer {
	return &LoggingObserver{
		logger: logger,
	}
}

// OnEvent handles processing events by logging them
func (o *LoggingObserver) OnEvent(ctx context.Context, event ProcessingEvent) {
	fields := logrus.Fields{
		"event_type": event.EventType,
		"request_id": event.RequestID,
		"success":    event.Success,
	}
	if event.Mode != "" {
		fields["mode"] = event.Mode
	}
	if event.Elapsed > 0 {
		fields["elapsed_ms"] = event.Elapsed.Milliseconds()
	}
	if event.ErrorMsg != "" {
		fields["error"] = event.ErrorMsg
	}
	for k, v := range event.Metadata {
		fields[k] = v
	}

	switch event.EventType {
	case ProcessingStarted:
		o.logger.WithFields(fields).Info("Processing started")
	case StrategyPlanned:
		o.logger.WithFields(fields).Debug("Strategy planned")
	case FallbackTriggered:
		o.logger.WithFields(fields).Warn("Primary mode failed, running fallback")
	case CacheServed:
		o.logger.WithFields(fields).Debug("Request served from cache")
	case ProcessingCompleted:
		o.logger.WithFields(fields).Info("Processing completed")
	case ProcessingFailed:
		o.logger.WithFields(fields).Error("Processing failed")
	case ProcessingCancelled:
		o.logger.WithFields(fields).Info("Processing cancelled")
	default:
		o.logger.WithFields(fields).Info("Processing event occurred")
	}
}

// GetObserverName returns the observer name
func (o *LoggingObserver) GetObserverName() string {
	return "logging_observer"
}

// MetricsObserver collects counters from processing events
type MetricsObserver struct {
	mu                  sync.RWMutex
	totalRequests       int64
	completedRequests   int64
	failedRequests      int64
	cancelledRequests   int64
	fallbackAttempts    int64
	cacheServed         int64
	totalProcessingTime time.Duration
}

// NewMetricsObserver creates a new metrics observer
func NewMetricsObserver() *MetricsObserver {
	return &MetricsObserver{}
}

// OnEvent handles processing events by collecting metrics
func (o *MetricsObserver) OnEvent(ctx context.Context, event ProcessingEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()

	switch event.EventType {
	case ProcessingStarted:
		o.totalRequests++
	case ProcessingCompleted:
		o.completedRequests++
		o.totalProcessingTime += event.Elapsed
	case ProcessingFailed:
		o.failedRequests++
	case ProcessingCancelled:
		o.cancelledRequests++
	case FallbackTriggered:
		o.fallbackAttempts++
	case CacheServed:
		o.cacheServed++
	}
}

// GetObserverName returns the observer name
func (o *MetricsObserver) GetObserverName() string {
	return "metrics_observer"
}

// GetMetrics returns current counters
func (o *MetricsObserver) GetMetrics() map[string]interface{} {
	o.mu.RLock()
	defer o.mu.RUnlock()

	avgProcessingTime := time.Duration(0)
	if o.completedRequests > 0 {
		avgProcessingTime = o.totalProcessingTime / time.Duration(o.completedRequests)
	}

	return map[string]interface{}{
		"total_requests":      o.totalRequests,
		"completed_requests":  o.completedRequests,
		"failed_requests":     o.failedRequests,
		"cancelled_requests":  o.cancelledRequests,
		"fallback_attempts":   o.fallbackAttempts,
		"cache_served":        o.cacheServed,
		"avg_processing_time": avgProcessingTime.String(),
	}
}

// EventPublisher implements the Subject interface
type EventPublisher struct {
	mu        sync.RWMutex
	observers []Observer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher() *EventPublisher {
	return &EventPublisher{
		observers: make([]Observer, 0),
	}
}

// Subscribe adds an observer
func (p *EventPublisher) Subscribe(observer Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.observers = append(p.observers, observer)
}

// Unsubscribe removes an observer
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

// NotifyObservers notifies all observers of an event
func (p *EventPublisher) NotifyObservers(ctx context.Context, event ProcessingEvent) {
	p.mu.RLock()
	observers := make([]Observer, len(p.observers))
	copy(observers, p.observers)
	p.mu.RUnlock()

	for _, observer := range observers {
		go func(obs Observer) {
			defer func() {
				if r := recover(); r != nil {
					// Log panic but don't crash the application
					logrus.WithField("observer", obs.GetObserverName()).
						WithField("panic", r).
						Error("Observer panicked while handling event")
				}
			}()
			obs.OnEvent(ctx, event)
		}(observer)
	}
}
