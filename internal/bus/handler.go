package bus

import (
	"context"
	"sync"
)

// Handler consumes a per-subscriber sequential stream of envelopes.
type Handler interface {
	Name() string
	Handle(ctx context.Context, env Envelope)
}

// StartHandlers spawns one long-lived receive loop per handler, each over its
// own subscription. The returned function blocks until every loop has drained
// after ctx is cancelled; call it during shutdown to join the subscriber tasks.
func StartHandlers(ctx context.Context, b *Bus, handlers ...Handler) (wait func()) {
	var wg sync.WaitGroup
	for _, h := range handlers {
		events := b.Subscribe(ctx)
		wg.Add(1)
		go func(h Handler, events <-chan Envelope) {
			defer wg.Done()
			for env := range events {
				h.Handle(ctx, env)
			}
		}(h, events)
	}
	return wg.Wait
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc struct {
	HandlerName string
	Fn          func(ctx context.Context, env Envelope)
}

func (h HandlerFunc) Name() string { return h.HandlerName }

func (h HandlerFunc) Handle(ctx context.Context, env Envelope) { h.Fn(ctx, env) }
