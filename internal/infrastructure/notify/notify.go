// Package notify delivers post-commit ledger notifications. Delivery is
// fire-and-forget: a full buffer drops the notification rather than slow
// down or fail the ledger operation that produced it.
package notify

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/nexusbank/ledger/internal/domain"
	"github.com/nexusbank/ledger/internal/infrastructure/metrics"
)

// Sink receives notifications from the dispatcher.
type Sink interface {
	Deliver(ctx context.Context, n domain.Notification) error
}

// Dispatcher implements usecase.Notifier with a buffered channel and a
// single delivery worker.
type Dispatcher struct {
	sink    Sink
	logger  *slog.Logger
	queue   chan domain.Notification
	metrics *metrics.Metrics
}

// Config for Dispatcher. Metrics may be nil.
type Config struct {
	Sink    Sink
	Logger  *slog.Logger
	Buffer  int
	Metrics *metrics.Metrics
}

// NewDispatcher creates a new Dispatcher.
func NewDispatcher(cfg Config) *Dispatcher {
	if cfg.Buffer <= 0 {
		cfg.Buffer = 256
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Sink == nil {
		cfg.Sink = NewLogSink(cfg.Logger)
	}

	return &Dispatcher{
		sink:    cfg.Sink,
		logger:  cfg.Logger,
		queue:   make(chan domain.Notification, cfg.Buffer),
		metrics: cfg.Metrics,
	}
}

// Start runs the delivery worker until the context is cancelled.
func (d *Dispatcher) Start(ctx context.Context) error {
	d.logger.Info("notification dispatcher started",
		slog.Int("buffer", cap(d.queue)))

	for {
		select {
		case <-ctx.Done():
			d.logger.Info("notification dispatcher shutting down")
			return ctx.Err()
		case n := <-d.queue:
			if err := d.sink.Deliver(ctx, n); err != nil {
				d.logger.Error("failed to deliver notification",
					slog.String("event_type", n.EventType),
					slog.String("error", err.Error()))
				continue
			}
			if d.metrics != nil {
				d.metrics.NotificationsSent.Inc()
			}
		}
	}
}

// Notify enqueues a notification without blocking. When the buffer is
// full the notification is dropped and logged.
func (d *Dispatcher) Notify(ctx context.Context, n domain.Notification) {
	select {
	case d.queue <- n:
	default:
		if d.metrics != nil {
			d.metrics.NotificationsDropped.Inc()
		}
		d.logger.Warn("notification buffer full, dropping",
			slog.String("event_type", n.EventType))
	}
}

// LogSink is a sink that logs notifications.
type LogSink struct {
	logger *slog.Logger
}

// NewLogSink creates a new LogSink.
func NewLogSink(logger *slog.Logger) *LogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSink{logger: logger}
}

// Deliver logs the notification.
func (s *LogSink) Deliver(ctx context.Context, n domain.Notification) error {
	payload, err := json.Marshal(n.Payload)
	if err != nil {
		return err
	}

	s.logger.Info("notification delivered",
		slog.String("event_type", n.EventType),
		slog.String("payload", string(payload)))

	return nil
}
