package handoff

import (
	"context"
)

// Latest is a single-slot mailbox.  Put never blocks: a value that nobody
// has taken yet is replaced, and handed to Drop so it can be released.  Take
// blocks until there is a value.
type Latest[T any] struct {
	c    chan T
	Drop func(T)
}

func NewLatest[T any](drop func(T)) *Latest[T] {
	return &Latest[T]{
		c:    make(chan T, 1),
		Drop: drop,
	}
}

// Put stores v, replacing anything still waiting.  It must only be called
// from one goroutine.
func (l *Latest[T]) Put(v T) {
	for {
		select {
		case l.c <- v:
			return
		default:
		}
		select {
		case old := <-l.c:
			if l.Drop != nil {
				l.Drop(old)
			}
		default:
		}
	}
}

// Take waits for the next value.
func (l *Latest[T]) Take(ctx context.Context) (T, error) {
	select {
	case v := <-l.c:
		return v, nil
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Drain empties the slot, dropping whatever was in it.
func (l *Latest[T]) Drain() {
	select {
	case old := <-l.c:
		if l.Drop != nil {
			l.Drop(old)
		}
	default:
	}
}
