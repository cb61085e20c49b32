package loader

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadingManagerProgress(t *testing.T) {
	var mu sync.Mutex
	var progress []Progress
	var loads int
	m := NewLoadingManager(
		WithProgressHandler(func(p Progress) {
			mu.Lock()
			progress = append(progress, p)
			mu.Unlock()
		}),
		WithLoadHandler(func(Progress) { loads++ }),
		WithEndDelay(time.Hour),
	)
	defer m.Stop()

	m.ItemStart("a")
	m.ItemStart("b")
	m.ItemStart("c")
	m.ItemEnd("a", nil)
	m.ItemEnd("b", errors.New("missing"))
	assert.Equal(t, 0, loads)
	m.ItemEnd("c", nil)
	assert.Equal(t, 1, loads)

	require.Len(t, progress, 3)
	assert.Equal(t, Progress{Item: "a", Loaded: 1, Total: 3}, progress[0])
	assert.Equal(t, Progress{Item: "b", Loaded: 2, Total: 3, Failed: 1}, progress[1])
	assert.InDelta(t, 1.0, progress[2].Ratio(), 1e-9)
	assert.False(t, m.Ended())
}

func TestLoadingManagerExtraEndIgnored(t *testing.T) {
	m := NewLoadingManager(WithEndDelay(time.Hour))
	defer m.Stop()
	m.ItemStart("a")
	m.ItemEnd("a", nil)
	m.ItemEnd("a", nil)
	assert.Equal(t, Progress{Loaded: 1, Total: 1}, m.Progress())
}

func TestLoadingManagerEndsAfterDelay(t *testing.T) {
	ended := make(chan struct{}, 2)
	m := NewLoadingManager(
		WithEndDelay(20*time.Millisecond),
		WithEndedHandler(func() { ended <- struct{}{} }),
	)
	m.ItemStart("a")
	start := time.Now()
	m.ItemEnd("a", errors.New("failed items still settle"))

	select {
	case <-m.EndedChan():
	case <-time.After(2 * time.Second):
		t.Fatal("ended state never reached")
	}
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
	assert.True(t, m.Ended())
	require.Eventually(t, func() bool { return len(ended) == 1 }, time.Second, time.Millisecond)
}

func TestProgressRatioEmpty(t *testing.T) {
	assert.Equal(t, 1.0, Progress{}.Ratio())
	assert.Equal(t, 0.25, Progress{Loaded: 1, Total: 4}.Ratio())
}

func TestLoadingManagerHoldDefersLoad(t *testing.T) {
	var loads int
	m := NewLoadingManager(WithLoadHandler(func(Progress) { loads++ }), WithEndDelay(time.Hour))
	defer m.Stop()

	m.Hold()
	m.ItemStart("fast")
	m.ItemEnd("fast", nil)
	assert.Equal(t, 0, loads)
	m.ItemStart("slow")
	m.Release()
	assert.Equal(t, 0, loads)
	m.ItemEnd("slow", nil)
	assert.Equal(t, 1, loads)
	m.Release()
	assert.Equal(t, 1, loads)
}
