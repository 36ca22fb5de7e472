package proxy

import (
	"fmt"
	"sync"

	"github.com/redforge/server/internal/bridge"
)

// pending holds captured settings between the create and register phases of
// the two-phase protocol, keyed by handle. Exactly one record may exist per
// handle; registering consumes it. Safe for concurrent use: create calls can
// arrive on the scripting isolate while the engine thread registers.
type pending[T any] struct {
	mu sync.Mutex
	m  map[bridge.Handle]T
}

func newPending[T any]() *pending[T] {
	return &pending[T]{m: make(map[bridge.Handle]T)}
}

// put stores settings for a freshly allocated handle.
func (p *pending[T]) put(h bridge.Handle, settings T) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.m[h]; ok {
		return fmt.Errorf("%w: %d", ErrDuplicateHandle, h)
	}
	p.m[h] = settings
	return nil
}

// take removes and returns the settings for h.
func (p *pending[T]) take(h bridge.Handle) (T, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	settings, ok := p.m[h]
	if !ok {
		var zero T
		return zero, fmt.Errorf("%w: %d", ErrUnknownHandle, h)
	}
	delete(p.m, h)
	return settings, nil
}

// len reports how many records are waiting for their register call.
func (p *pending[T]) len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.m)
}
