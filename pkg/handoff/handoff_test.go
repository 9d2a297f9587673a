package handoff

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLatestKeepsNewest(t *testing.T) {
	var dropped []int
	l := NewLatest(func(v int) { dropped = append(dropped, v) })

	l.Put(1)
	l.Put(2)
	l.Put(3)

	v, err := l.Take(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, v)
	assert.Equal(t, []int{1, 2}, dropped)
}

func TestTakeWaits(t *testing.T) {
	l := NewLatest[string](nil)
	go func() {
		time.Sleep(10 * time.Millisecond)
		l.Put("frame")
	}()
	v, err := l.Take(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "frame", v)
}

func TestTakeCancelled(t *testing.T) {
	l := NewLatest[int](nil)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := l.Take(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestDrain(t *testing.T) {
	var dropped []int
	l := NewLatest(func(v int) { dropped = append(dropped, v) })
	l.Drain()
	l.Put(7)
	l.Drain()
	assert.Equal(t, []int{7}, dropped)
}
