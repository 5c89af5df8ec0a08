package observability

import (
	"context"
	"log/slog"

	"github.com/weftworks/weft/pkg/domain"
	"github.com/weftworks/weft/pkg/ports"
)

// LogObserver writes one structured log line per progress event.
type LogObserver struct {
	logger *slog.Logger
}

// NewLogObserver wraps a logger as an observer. A nil logger falls back to
// slog.Default.
func NewLogObserver(logger *slog.Logger) *LogObserver {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogObserver{logger: logger}
}

var _ ports.Observer = (*LogObserver)(nil)

// Notify implements ports.Observer.
func (o *LogObserver) Notify(ctx context.Context, ev domain.Event) {
	switch ev.Type {
	case domain.EventStepComplete:
		o.logger.Info("step complete", "run_id", ev.RunID, "step", ev.Step, "node", ev.Node)
	case domain.EventError:
		o.logger.Warn("run error", "run_id", ev.RunID, "step", ev.Step, "node", ev.Node, "err", ev.Error)
	case domain.EventWorkflowComplete:
		o.logger.Info("workflow complete", "run_id", ev.RunID, "steps", ev.Step)
	default:
		o.logger.Debug("event", "run_id", ev.RunID, "type", string(ev.Type))
	}
}
