// Package notifier delivers engine events to operators. Delivery is fire-and-forget:
// a notifier never returns an error and never blocks the trading path.
package notifier

import (
	"sync"

	"github.com/rxtech-lab/argo-riskgate/internal/logger"
	"github.com/rxtech-lab/argo-riskgate/internal/metrics"
	"github.com/rxtech-lab/argo-riskgate/internal/types"
	"go.uber.org/zap"
)

// DefaultQueueSize is the buffer of an AsyncNotifier created with a non-positive size.
const DefaultQueueSize = 256

// Notifier receives engine events.
type Notifier interface {
	Notify(event types.Event)
}

// Func adapts a function to Notifier.
type Func func(event types.Event)

func (f Func) Notify(event types.Event) {
	f(event)
}

// Nop discards every event.
type Nop struct{}

func (Nop) Notify(types.Event) {}

// Multi fans an event out to every notifier in order.
type Multi []Notifier

func (m Multi) Notify(event types.Event) {
	for _, n := range m {
		if n != nil {
			n.Notify(event)
		}
	}
}

// LogNotifier writes events to the log at a level matching their severity.
type LogNotifier struct {
	logger *logger.Logger
}

func NewLogNotifier(log *logger.Logger) *LogNotifier {
	return &LogNotifier{logger: log.Named("events")}
}

func (n *LogNotifier) Notify(event types.Event) {
	fields := []zap.Field{
		zap.String("type", string(event.Type)),
		zap.String("symbol", event.Symbol),
		zap.Time("time", event.Time),
	}

	if event.PositionID != "" {
		fields = append(fields, zap.String("position_id", event.PositionID))
	}

	if len(event.Fields) > 0 {
		fields = append(fields, zap.Any("fields", event.Fields))
	}

	switch event.Severity {
	case types.SeverityCritical:
		n.logger.Error(event.Message, fields...)
	case types.SeverityWarning:
		n.logger.Warn(event.Message, fields...)
	default:
		n.logger.Info(event.Message, fields...)
	}
}

// AsyncNotifier queues events for a slow inner notifier.
// When the queue is full the event is dropped and counted.
type AsyncNotifier struct {
	inner   Notifier
	queue   chan types.Event
	metrics *metrics.Metrics
	logger  *logger.Logger

	mu     sync.RWMutex
	closed bool
	done   chan struct{}
}

// NewAsyncNotifier starts delivering queued events to inner.
func NewAsyncNotifier(inner Notifier, size int, m *metrics.Metrics, log *logger.Logger) *AsyncNotifier {
	if size <= 0 {
		size = DefaultQueueSize
	}

	n := &AsyncNotifier{
		inner:   inner,
		queue:   make(chan types.Event, size),
		metrics: m,
		logger:  log.Named("notifier"),
		done:    make(chan struct{}),
	}

	go n.run()

	return n
}

func (n *AsyncNotifier) Notify(event types.Event) {
	n.mu.RLock()
	defer n.mu.RUnlock()

	if n.closed {
		return
	}

	select {
	case n.queue <- event:
	default:
		n.metrics.NotificationDropped()
		n.logger.Warn("Notification queue full, dropping event", zap.String("type", string(event.Type)))
	}
}

// Close stops accepting events and waits for queued ones to be delivered.
func (n *AsyncNotifier) Close() {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		<-n.done

		return
	}

	n.closed = true
	close(n.queue)
	n.mu.Unlock()

	<-n.done
}

func (n *AsyncNotifier) run() {
	defer close(n.done)

	for event := range n.queue {
		n.deliver(event)
	}
}

func (n *AsyncNotifier) deliver(event types.Event) {
	defer func() {
		if r := recover(); r != nil {
			n.logger.Error("Notifier panicked", zap.Any("panic", r), zap.String("type", string(event.Type)))
		}
	}()

	n.inner.Notify(event)
}
