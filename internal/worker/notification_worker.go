package worker

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/spec-kit/violation-service/internal/events"
	"github.com/spec-kit/violation-service/internal/service"
)

const defaultQueueSize = 256

// EventRecorder counts processed events.
type EventRecorder interface {
	RecordEvent(eventType string)
}

// NotificationWorker moves notification delivery off the request path. Events
// are queued by the dispatcher and handled by Run.
type NotificationWorker struct {
	notifications *service.NotificationService
	metrics       EventRecorder
	logger        *zap.Logger
	queue         chan events.Event
	done          chan struct{}
	closeOnce     sync.Once
}

// NewNotificationWorker builds a worker with a bounded queue.
func NewNotificationWorker(notifications *service.NotificationService, metrics EventRecorder, logger *zap.Logger, queueSize int) *NotificationWorker {
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationWorker{
		notifications: notifications,
		metrics:       metrics,
		logger:        logger,
		queue:         make(chan events.Event, queueSize),
		done:          make(chan struct{}),
	}
}

// Register subscribes the worker to every notified event type.
func (w *NotificationWorker) Register(dispatcher events.Dispatcher) {
	if dispatcher == nil {
		return
	}
	for _, t := range service.NotifiedEvents {
		dispatcher.Subscribe(t, w.Enqueue)
	}
}

// Enqueue queues event without blocking. A full queue drops the event.
func (w *NotificationWorker) Enqueue(_ context.Context, event events.Event) error {
	select {
	case w.queue <- event:
	default:
		w.logger.Warn("notification queue full, dropping event",
			zap.String("event_type", string(event.Type)),
			zap.String("event_id", event.ID))
	}
	return nil
}

// Run handles queued events until ctx is cancelled, then drains what is left.
func (w *NotificationWorker) Run(ctx context.Context) {
	defer w.closeOnce.Do(func() { close(w.done) })
	for {
		select {
		case event := <-w.queue:
			w.handle(ctx, event)
		case <-ctx.Done():
			w.drain()
			return
		}
	}
}

// Done is closed once Run has returned.
func (w *NotificationWorker) Done() <-chan struct{} {
	return w.done
}

func (w *NotificationWorker) drain() {
	for {
		select {
		case event := <-w.queue:
			w.handle(context.Background(), event)
		default:
			return
		}
	}
}

func (w *NotificationWorker) handle(ctx context.Context, event events.Event) {
	if w.metrics != nil {
		w.metrics.RecordEvent(string(event.Type))
	}
	if err := w.notifications.Handle(ctx, event); err != nil {
		w.logger.Warn("notification delivery failed",
			zap.String("event_type", string(event.Type)),
			zap.String("user_id", event.UserID),
			zap.Error(err))
	}
}
