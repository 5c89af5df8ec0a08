package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/weftworks/weft/pkg/domain"
)

// StreamManager fans progress events out to active SSE connections, keyed
// by run ID. It implements ports.Observer so it can be attached directly to
// the engine; delivery is best-effort and never blocks the run.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan<- string]struct{} // RunID -> set of channels
}

func NewStreamManager() *StreamManager {
	return &StreamManager{
		subscribers: make(map[string]map[chan<- string]struct{}),
	}
}

// Subscribe registers a listener for one run. The returned cancel func must
// be called when the client disconnects.
func (sm *StreamManager) Subscribe(runID string) (chan string, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan string, 10)
	if _, ok := sm.subscribers[runID]; !ok {
		sm.subscribers[runID] = make(map[chan<- string]struct{})
	}
	sm.subscribers[runID][ch] = struct{}{}

	return ch, func() {
		sm.mu.Lock()
		defer sm.mu.Unlock()
		if subs, ok := sm.subscribers[runID]; ok {
			delete(subs, ch)
			close(ch)
			if len(subs) == 0 {
				delete(sm.subscribers, runID)
			}
		}
	}
}

// Broadcast delivers a message to every subscriber of the run. Slow clients
// with full buffers are skipped.
func (sm *StreamManager) Broadcast(runID string, msg string) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if subs, ok := sm.subscribers[runID]; ok {
		for ch := range subs {
			select {
			case ch <- msg:
			default:
				slog.Warn("SSE: client buffer full, dropping event", "run_id", runID)
			}
		}
	}
}

// Notify implements ports.Observer.
func (sm *StreamManager) Notify(ctx context.Context, ev domain.Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		slog.Warn("SSE: failed to marshal event", "err", err)
		return
	}
	sm.Broadcast(ev.RunID, string(data))
}
