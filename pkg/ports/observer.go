package ports

import (
	"context"

	"github.com/weftworks/weft/pkg/domain"
)

// Observer receives best-effort progress events from running workflows.
// Implementations must expect to be called from the engine's notification
// goroutine: a slow or failing observer never delays or fails the run, and
// delivery errors are swallowed at the point of emission.
type Observer interface {
	Notify(ctx context.Context, event domain.Event)
}

// ObserverFunc adapts a plain function to the Observer interface.
type ObserverFunc func(ctx context.Context, event domain.Event)

// Notify implements Observer.
func (f ObserverFunc) Notify(ctx context.Context, event domain.Event) {
	f(ctx, event)
}

// NopObserver discards all events.
type NopObserver struct{}

// Notify implements Observer.
func (NopObserver) Notify(context.Context, domain.Event) {}
