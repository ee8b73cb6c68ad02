package bus

import (
	"context"
	"fmt"
	"sync"

	"server/internal/domain"
)

// StatusBus is an in-process pub/sub channel keyed by pipeline id. The
// orchestrator publishes a full status snapshot on every stage transition and
// the SSE handler subscribes instead of hammering the store. Delivery is
// best-effort while the publish context remains active; the bus is not
// durable.
type StatusBus struct {
	mu   sync.RWMutex
	subs map[string][]chan domain.PipelineView
}

// New creates an empty status bus.
func New() *StatusBus {
	return &StatusBus{subs: make(map[string][]chan domain.PipelineView)}
}

// Publish delivers the snapshot to every subscriber of the pipeline id. A
// subscriber that cannot accept before the context is done causes an error;
// remaining subscribers are skipped.
func (b *StatusBus) Publish(ctx context.Context, pipelineID string, view domain.PipelineView) error {
	// Held for the duration of delivery so Close cannot close a channel
	// mid-send.
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subs[pipelineID] {
		select {
		case ch <- view:
		case <-ctx.Done():
			return fmt.Errorf("publish pipeline %q: %w", pipelineID, ctx.Err())
		}
	}
	return nil
}

// Subscription receives status snapshots for one pipeline id until closed.
type Subscription struct {
	bus        *StatusBus
	pipelineID string
	ch         chan domain.PipelineView
	once       sync.Once
}

// Subscribe registers a new subscriber for the pipeline id. The caller must
// Close the subscription when done.
func (b *StatusBus) Subscribe(pipelineID string) *Subscription {
	ch := make(chan domain.PipelineView, 16)
	b.mu.Lock()
	b.subs[pipelineID] = append(b.subs[pipelineID], ch)
	b.mu.Unlock()
	return &Subscription{bus: b, pipelineID: pipelineID, ch: ch}
}

// C returns the receive channel. It is closed by Close.
func (s *Subscription) C() <-chan domain.PipelineView {
	return s.ch
}

// Close unregisters the subscriber and closes its channel.
func (s *Subscription) Close() {
	s.once.Do(func() {
		b := s.bus
		b.mu.Lock()
		lst := b.subs[s.pipelineID]
		out := lst[:0]
		for _, c := range lst {
			if c != s.ch {
				out = append(out, c)
			}
		}
		if len(out) == 0 {
			delete(b.subs, s.pipelineID)
		} else {
			b.subs[s.pipelineID] = out
		}
		b.mu.Unlock()
		close(s.ch)
	})
}
