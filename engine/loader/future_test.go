package loader

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFutureCompletesOnce(t *testing.T) {
	f, complete := NewFuture[int]()
	_, _, done := f.Result()
	assert.False(t, done)

	complete(7, nil)
	complete(9, errors.New("late"))

	v, err, done := f.Result()
	assert.True(t, done)
	assert.NoError(t, err)
	assert.Equal(t, 7, v)

	select {
	case <-f.Done():
	default:
		t.Fatal("Done channel not closed")
	}
}

func TestFutureAwait(t *testing.T) {
	f, complete := NewFuture[string]()
	go func() {
		time.Sleep(5 * time.Millisecond)
		complete("ok", nil)
	}()
	v, err := f.Await(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ok", v)
}

func TestFutureAwaitContext(t *testing.T) {
	f, _ := NewFuture[string]()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()
	_, err := f.Await(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestFutureOnCompleteRunsOnce(t *testing.T) {
	f, complete := NewFuture[int]()
	var calls atomic.Int32
	f.OnComplete(func(v int, err error) { calls.Add(1) })
	complete(1, nil)
	complete(2, nil)
	assert.Equal(t, int32(1), calls.Load())

	// Registered after completion: runs immediately.
	var got int
	f.OnComplete(func(v int, err error) { got = v })
	assert.Equal(t, 1, got)
}

func TestThen(t *testing.T) {
	doubled := Then(Resolved(21, nil), func(v int) (int, error) { return v * 2, nil })
	v, err := doubled.Await(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 42, v)

	boom := errors.New("boom")
	called := false
	failed := Then(Resolved(0, boom), func(v int) (string, error) {
		called = true
		return "", nil
	})
	_, err = failed.Await(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.False(t, called)
}
