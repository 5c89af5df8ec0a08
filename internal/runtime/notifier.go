package runtime

import (
	"context"
	"log/slog"
	"time"

	"github.com/weftworks/weft/pkg/domain"
	"github.com/weftworks/weft/pkg/ports"
)

const defaultQueueSize = 64

// notifier decouples the run loop from event delivery. The loop pushes onto
// a bounded channel and a single goroutine drains it toward the observer;
// the loop never waits on delivery. A full queue drops the event, a
// panicking observer is contained, and Close never blocks the run.
type notifier struct {
	ch     chan domain.Event
	logger *slog.Logger
}

func newNotifier(observer ports.Observer, logger *slog.Logger, queueSize int) *notifier {
	n := &notifier{logger: logger}
	if observer == nil {
		return n
	}
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	n.ch = make(chan domain.Event, queueSize)

	go func() {
		// Deliveries run against Background: the run's context may be
		// done before queued events are flushed.
		ctx := context.Background()
		for ev := range n.ch {
			deliver(ctx, observer, ev, logger)
		}
	}()

	return n
}

func deliver(ctx context.Context, observer ports.Observer, ev domain.Event, logger *slog.Logger) {
	defer func() {
		if r := recover(); r != nil {
			logger.Warn("observer panicked, event dropped", "type", ev.Type, "panic", r)
		}
	}()
	observer.Notify(ctx, ev)
}

// Emit enqueues an event without blocking. Events with no timestamp are
// stamped here.
func (n *notifier) Emit(ev domain.Event) {
	if n.ch == nil {
		return
	}
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now().UTC()
	}
	select {
	case n.ch <- ev:
	default:
		// Slow observer: drop rather than delay the run.
		n.logger.Warn("event queue full, dropping event", "type", ev.Type, "step", ev.Step)
	}
}

// Close stops the drain goroutine once the queue is empty. It does not wait
// for in-flight deliveries.
func (n *notifier) Close() {
	if n.ch != nil {
		close(n.ch)
	}
}
