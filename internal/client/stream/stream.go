// Package stream implements hot broadcast channels of results. A subscriber
// sees only what is published after it subscribed; nothing is replayed.
package stream

import (
	"context"
	"sync"
)

// Result is a value or an error, never both.
type Result[T any] struct {
	Value T
	Err   error
}

func Success[T any](v T) Result[T] { return Result[T]{Value: v} }

func Failure[T any](err error) Result[T] { return Result[T]{Err: err} }

// OK reports whether r carries a value.
func (r Result[T]) OK() bool { return r.Err == nil }

const DefaultBuffer = 16

type subscriber[T any] struct {
	ch   chan Result[T]
	done chan struct{}
	once sync.Once
}

func (s *subscriber[T]) close() {
	s.once.Do(func() { close(s.done) })
}

// Broadcaster fans every published result out to the current subscribers.
// Publish waits for buffer space in each subscriber's channel, so a result
// is never dropped for a live subscriber; cancelling a subscription releases
// a blocked publisher.
type Broadcaster[T any] struct {
	mu     sync.RWMutex
	subs   map[*subscriber[T]]struct{}
	buffer int
}

func NewBroadcaster[T any](buffer int) *Broadcaster[T] {
	if buffer < 0 {
		buffer = 0
	}
	return &Broadcaster[T]{subs: make(map[*subscriber[T]]struct{}), buffer: buffer}
}

// Subscribe registers a subscriber. The returned cancel func unsubscribes;
// the channel is not closed, so readers should select on their own context.
//
// A subscriber must keep reading or call cancel. Once its buffer is full,
// Publish waits on it until the publisher's context ends.
func (b *Broadcaster[T]) Subscribe() (<-chan Result[T], func()) {
	s := &subscriber[T]{
		ch:   make(chan Result[T], b.buffer),
		done: make(chan struct{}),
	}

	b.mu.Lock()
	b.subs[s] = struct{}{}
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		delete(b.subs, s)
		b.mu.Unlock()
		s.close()
	}
	return s.ch, cancel
}

// Publish delivers r to every subscriber registered at call time. If ctx
// ends while a subscriber is still full, that subscriber misses r, the
// remaining ones get r only if they have buffer space, and ctx's error is
// returned.
func (b *Broadcaster[T]) Publish(ctx context.Context, r Result[T]) error {
	b.mu.RLock()
	targets := make([]*subscriber[T], 0, len(b.subs))
	for s := range b.subs {
		targets = append(targets, s)
	}
	b.mu.RUnlock()

	var err error
	for _, s := range targets {
		if err != nil {
			select {
			case s.ch <- r:
			case <-s.done:
			default:
			}
			continue
		}

		select {
		case s.ch <- r:
		case <-s.done:
		case <-ctx.Done():
			err = ctx.Err()
		}
	}
	return err
}

// Subscribers returns the current subscriber count.
func (b *Broadcaster[T]) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Next waits for the next result on ch.
func Next[T any](ctx context.Context, ch <-chan Result[T]) (Result[T], error) {
	select {
	case r := <-ch:
		return r, nil
	case <-ctx.Done():
		return Result[T]{}, ctx.Err()
	}
}
