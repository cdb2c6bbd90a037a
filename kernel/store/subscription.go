package store

import (
	"context"
	"sync"

	"github.com/openziti/fabstatus/kernel/model"
)

// Subscription is an unbounded, ordered queue of change events. Pushing never blocks, so a consumer
// that itself writes to the store cannot deadlock against its own subscription.
type Subscription struct {
	mu     sync.Mutex
	queue  []model.Event
	closed bool
	signal chan struct{}
}

func newSubscription() *Subscription {
	return &Subscription{signal: make(chan struct{}, 1)}
}

func (s *Subscription) push(ev model.Event) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.queue = append(s.queue, ev)
	s.mu.Unlock()
	s.notify()
}

func (s *Subscription) close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.notify()
}

func (s *Subscription) notify() {
	select {
	case s.signal <- struct{}{}:
	default:
	}
}

// TryNext pops the oldest queued event without waiting.
func (s *Subscription) TryNext() (model.Event, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.queue) == 0 {
		return model.Event{}, false
	}
	ev := s.queue[0]
	s.queue[0] = model.Event{}
	s.queue = s.queue[1:]
	return ev, true
}

// Pending reports how many events are queued.
func (s *Subscription) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

// Channel delivers queued events on a channel that is closed once the subscription is released and
// drained, or ctx is done.
func (s *Subscription) Channel(ctx context.Context) <-chan model.Event {
	out := make(chan model.Event)
	go func() {
		defer close(out)
		for {
			ev, ok := s.TryNext()
			if !ok {
				s.mu.Lock()
				closed := s.closed
				s.mu.Unlock()
				if closed {
					return
				}
				select {
				case <-s.signal:
					continue
				case <-ctx.Done():
					return
				}
			}
			select {
			case out <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}
