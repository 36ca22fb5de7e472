package proxy

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/redforge/server/internal/bridge"
)

// Kind tags a queued registration request.
type Kind int

const (
	KindBlock Kind = iota
	KindItem
	KindEntity
	KindContainer
	KindGoal
)

func (k Kind) String() string {
	switch k {
	case KindBlock:
		return "block"
	case KindItem:
		return "item"
	case KindEntity:
		return "entity"
	case KindContainer:
		return "container"
	case KindGoal:
		return "goal"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

type request struct {
	handle    bridge.Handle
	kind      Kind
	namespace string
	path      string
}

// Queue lets a non-engine goroutine (the scripting isolate, the content
// loader) request type registration. Enqueue allocates the handle and
// captures settings synchronously, so the caller can keep configuring the
// handle, while the actual native registration is deferred to FlushAll on
// the engine goroutine. The FIFO imposes one total registration order no
// matter which goroutines the requests came from.
type Queue struct {
	ctx *Context
	log *zap.Logger

	mu   sync.Mutex
	reqs []request
}

// NewQueue creates a registration queue feeding the given context.
func NewQueue(ctx *Context, log *zap.Logger) *Queue {
	return &Queue{ctx: ctx, log: log}
}

// EnqueueBlock captures settings and queues registration under ns:path.
// Safe from any goroutine; returns the handle immediately.
func (q *Queue) EnqueueBlock(s BlockSettings, namespace, path string) bridge.Handle {
	h := q.ctx.CreateBlock(s)
	q.append(request{handle: h, kind: KindBlock, namespace: namespace, path: path})
	return h
}

// EnqueueItem captures settings and queues registration under ns:path.
func (q *Queue) EnqueueItem(s ItemSettings, namespace, path string) bridge.Handle {
	h := q.ctx.CreateItem(s)
	q.append(request{handle: h, kind: KindItem, namespace: namespace, path: path})
	return h
}

// EnqueueEntity captures settings and queues registration under ns:path.
// Behavior lists can still be attached to the returned handle until the
// queue is flushed.
func (q *Queue) EnqueueEntity(s EntitySettings, namespace, path string) bridge.Handle {
	h := q.ctx.CreateEntity(s)
	q.append(request{handle: h, kind: KindEntity, namespace: namespace, path: path})
	return h
}

// EnqueueContainer captures settings and queues registration under ns:path.
func (q *Queue) EnqueueContainer(s ContainerSettings, namespace, path string) bridge.Handle {
	h := q.ctx.CreateContainer(s)
	q.append(request{handle: h, kind: KindContainer, namespace: namespace, path: path})
	return h
}

// EnqueueGoal captures a custom-goal definition and queues registration.
func (q *Queue) EnqueueGoal(s GoalSettings, namespace, path string) bridge.Handle {
	h := q.ctx.CreateGoal(s)
	q.append(request{handle: h, kind: KindGoal, namespace: namespace, path: path})
	return h
}

func (q *Queue) append(r request) {
	q.mu.Lock()
	q.reqs = append(q.reqs, r)
	q.mu.Unlock()
}

// Len reports the number of undrained requests.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.reqs)
}

// FlushAll drains the queue in enqueue order, registering each request.
// Must run on the engine's registration goroutine before the freeze point;
// afterwards it is a protocol error and a no-op. A failed registration is
// logged and skipped, never fatal to the batch. Flushing an empty queue is
// a no-op.
func (q *Queue) FlushAll() error {
	if q.ctx.Frozen() {
		q.log.Error("flush after registry freeze")
		return ErrFrozen
	}

	q.mu.Lock()
	reqs := q.reqs
	q.reqs = nil
	q.mu.Unlock()

	if len(reqs) == 0 {
		return nil
	}

	registered := 0
	for _, r := range reqs {
		var ok bool
		switch r.kind {
		case KindBlock:
			ok = q.ctx.RegisterBlock(r.handle, r.namespace, r.path)
		case KindItem:
			ok = q.ctx.RegisterItem(r.handle, r.namespace, r.path)
		case KindEntity:
			ok = q.ctx.RegisterEntity(r.handle, r.namespace, r.path)
		case KindContainer:
			ok = q.ctx.RegisterContainer(r.handle, r.namespace, r.path)
		case KindGoal:
			ok = q.ctx.RegisterGoal(r.handle, r.namespace, r.path)
		}
		if !ok {
			// Register already logged the cause; keep draining.
			continue
		}
		registered++
	}
	q.log.Info("registration queue flushed",
		zap.Int("requested", len(reqs)), zap.Int("registered", registered))
	return nil
}
