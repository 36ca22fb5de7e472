package proxy

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/redforge/server/internal/bridge"
)

func mustID(t *testing.T, namespace, path string) bridge.Identifier {
	t.Helper()
	id, err := bridge.NewIdentifier(namespace, path)
	require.NoError(t, err)
	return id
}

func newTestQueue() (*Queue, *Context) {
	ctx := newTestContext()
	return NewQueue(ctx, zap.NewNop()), ctx
}

func TestQueueFlushRegistersInOrder(t *testing.T) {
	q, ctx := newTestQueue()

	bh := q.EnqueueBlock(DefaultBlockSettings(), "redforge", "cinder_brick")
	ih := q.EnqueueItem(DefaultItemSettings(), "redforge", "cinder")
	gh := q.EnqueueGoal(GoalSettings{Flags: []string{"move"}}, "redforge", "circle_prey")
	assert.Equal(t, 3, q.Len())

	// Nothing registered until the engine flushes.
	_, ok := ctx.Block(bh)
	assert.False(t, ok)

	require.NoError(t, q.FlushAll())
	assert.Equal(t, 0, q.Len())

	_, ok = ctx.Block(bh)
	assert.True(t, ok)
	_, ok = ctx.Item(ih)
	assert.True(t, ok)
	_, ok = ctx.GoalDefinition("redforge:circle_prey")
	assert.True(t, ok)
	_ = gh
}

func TestQueueBehaviorAttachBeforeFlush(t *testing.T) {
	q, ctx := newTestQueue()

	h := q.EnqueueEntity(EntitySettings{}, "redforge", "ash_hopper")
	// Attachment between enqueue and flush still lands on the type.
	ctx.SetEntityGoals(h, `[{"type":"panic","priority":1}]`)

	require.NoError(t, q.FlushAll())
	e, ok := ctx.Entity(h)
	require.True(t, ok)
	require.NotNil(t, e.Goals)
	assert.Contains(t, *e.Goals, "panic")
}

func TestQueueConcurrentEnqueue(t *testing.T) {
	q, ctx := newTestQueue()

	const workers = 4
	const perWorker = 50
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				q.EnqueueItem(DefaultItemSettings(), "redforge", fmt.Sprintf("item_%d_%d", w, i))
			}
		}(w)
	}
	wg.Wait()

	require.Equal(t, workers*perWorker, q.Len())
	require.NoError(t, q.FlushAll())

	for w := 0; w < workers; w++ {
		for i := 0; i < perWorker; i++ {
			id := mustID(t, "redforge", fmt.Sprintf("item_%d_%d", w, i))
			_, ok := ctx.ItemByID(id)
			assert.True(t, ok, "missing %s", id)
		}
	}
}

func TestQueueFIFOAcrossGoroutines(t *testing.T) {
	q, ctx := newTestQueue()

	// Three goroutines enqueue in a forced completion order: each one waits
	// for the previous enqueue to return before starting its own, so the
	// observed order is a, b, c.
	const n = 3
	handles := make([]bridge.Handle, n)
	steps := make([]chan struct{}, n)
	for i := range steps {
		steps[i] = make(chan struct{})
	}
	for i := 0; i < n; i++ {
		go func(i int) {
			if i > 0 {
				<-steps[i-1]
			}
			handles[i] = q.EnqueueItem(DefaultItemSettings(), "redforge", fmt.Sprintf("ordered_%d", i))
			close(steps[i])
		}(i)
	}
	<-steps[n-1]

	// The pending slice is the total registration order FlushAll drains.
	q.mu.Lock()
	drained := make([]bridge.Handle, 0, n)
	for _, r := range q.reqs {
		drained = append(drained, r.handle)
	}
	q.mu.Unlock()
	assert.Equal(t, handles, drained, "flush order must match observed enqueue order")

	require.NoError(t, q.FlushAll())
	for i, h := range handles {
		_, ok := ctx.Item(h)
		assert.True(t, ok, "ordered_%d not registered", i)
	}
}

func TestQueueFailedRegistrationSkipped(t *testing.T) {
	q, ctx := newTestQueue()

	q.EnqueueItem(DefaultItemSettings(), "redforge", "dup")
	q.EnqueueItem(DefaultItemSettings(), "redforge", "dup") // identifier collision
	after := q.EnqueueItem(DefaultItemSettings(), "redforge", "survivor")

	require.NoError(t, q.FlushAll())

	// The collision is dropped; everything after it still registers.
	_, ok := ctx.Item(after)
	assert.True(t, ok)
}

func TestQueueFlushAfterFreeze(t *testing.T) {
	q, ctx := newTestQueue()
	q.EnqueueItem(DefaultItemSettings(), "redforge", "late")

	ctx.Freeze()
	assert.ErrorIs(t, q.FlushAll(), ErrFrozen)
}

func TestQueueFlushEmptyIsNoop(t *testing.T) {
	q, _ := newTestQueue()
	assert.NoError(t, q.FlushAll())
}
