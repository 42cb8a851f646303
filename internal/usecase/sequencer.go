package usecase

import (
	"context"
	"sync"
)

// sequencer runs jobs sharing a key one after another in submission order.
// Jobs with different keys run concurrently.
type sequencer struct {
	mu    sync.Mutex
	tails map[string]chan struct{}
	wg    sync.WaitGroup
}

func newSequencer() *sequencer {
	return &sequencer{tails: make(map[string]chan struct{})}
}

// Go schedules fn after every job previously scheduled for key. The returned
// channel is closed once fn has returned.
func (s *sequencer) Go(key string, fn func()) <-chan struct{} {
	done := make(chan struct{})

	s.mu.Lock()
	prev := s.tails[key]
	s.tails[key] = done
	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()
		if prev != nil {
			<-prev
		}
		fn()
		close(done)

		s.mu.Lock()
		if s.tails[key] == done {
			delete(s.tails, key)
		}
		s.mu.Unlock()
	}()
	return done
}

// Drain waits for every scheduled job or for ctx to end.
func (s *sequencer) Drain(ctx context.Context) error {
	finished := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(finished)
	}()
	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// pending reports how many keys still have queued work.
func (s *sequencer) pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tails)
}
