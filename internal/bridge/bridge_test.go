package bridge

import (
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllocatorMonotonic(t *testing.T) {
	a := NewAllocator()
	prev := Handle(0)
	for i := 0; i < 1000; i++ {
		h := a.Next()
		assert.Greater(t, h, prev)
		prev = h
	}
}

func TestAllocatorConcurrentUnique(t *testing.T) {
	a := NewAllocator()
	const workers = 8
	const perWorker = 1000

	var mu sync.Mutex
	var all []Handle
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			local := make([]Handle, 0, perWorker)
			for i := 0; i < perWorker; i++ {
				local = append(local, a.Next())
			}
			mu.Lock()
			all = append(all, local...)
			mu.Unlock()
		}()
	}
	wg.Wait()

	require.Len(t, all, workers*perWorker)
	sort.Slice(all, func(i, j int) bool { return all[i] < all[j] })
	for i := 1; i < len(all); i++ {
		require.NotEqual(t, all[i-1], all[i], "duplicate handle issued")
	}
}

func TestNewIdentifier(t *testing.T) {
	id, err := NewIdentifier("redforge", "ember_ore")
	require.NoError(t, err)
	assert.Equal(t, "redforge:ember_ore", id.String())
	assert.False(t, id.IsZero())

	_, err = NewIdentifier("", "ember_ore")
	assert.Error(t, err)
	_, err = NewIdentifier("RedForge", "ember_ore")
	assert.Error(t, err, "uppercase namespace must be rejected")
	_, err = NewIdentifier("redforge", "")
	assert.Error(t, err)
	_, err = NewIdentifier("redforge", "ember ore")
	assert.Error(t, err)

	// Paths may contain slashes, namespaces may not.
	_, err = NewIdentifier("redforge", "ores/ember")
	assert.NoError(t, err)
	_, err = NewIdentifier("red/forge", "ember")
	assert.Error(t, err)
}

func TestParseIdentifier(t *testing.T) {
	id, err := ParseIdentifier("redforge:ember_ore")
	require.NoError(t, err)
	assert.Equal(t, "redforge", id.Namespace)
	assert.Equal(t, "ember_ore", id.Path)

	_, err = ParseIdentifier("no-colon")
	assert.Error(t, err)
}
