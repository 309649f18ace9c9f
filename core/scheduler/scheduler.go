// Package scheduler debounces pending writes per entity: scheduling a task for an entity replaces
// the task still pending for it, so only the last one runs once its delay elapsed.
package scheduler

import (
	"sync"
	"time"
)

type (
	Scheduler struct {
		mu      sync.Mutex
		wg      sync.WaitGroup
		pending map[string]*task
		stopped bool
	}

	task struct {
		timer *time.Timer
		fn    func()
	}
)

func New() *Scheduler {
	return &Scheduler{pending: make(map[string]*task)}
}

// Schedule runs fn after delay unless another task is scheduled for id (or id is cancelled) before.
// It reports false when the scheduler is stopped.
func (s *Scheduler) Schedule(id string, delay time.Duration, fn func()) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return false
	}
	s.cancel(id)

	t := &task{fn: fn}
	s.wg.Add(1)
	t.timer = time.AfterFunc(delay, func() {
		defer s.wg.Done()

		s.mu.Lock()
		if s.pending[id] != t {
			s.mu.Unlock()
			return
		}
		delete(s.pending, id)
		s.mu.Unlock()

		fn()
	})
	s.pending[id] = t
	return true
}

// Cancel drops the task pending for id, if any, and reports whether one was dropped.
func (s *Scheduler) Cancel(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancel(id)
}

func (s *Scheduler) cancel(id string) bool {
	t, ok := s.pending[id]
	if !ok {
		return false
	}
	delete(s.pending, id)
	if t.timer.Stop() {
		s.wg.Done() // its func will never run
	}
	return true
}

// Pending reports whether a task is pending for id.
func (s *Scheduler) Pending(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.pending[id]
	return ok
}

// Flush runs the pending tasks right away and waits for all running tasks.
func (s *Scheduler) Flush() {
	s.mu.Lock()
	var due []*task
	for id, t := range s.pending {
		if t.timer.Stop() {
			delete(s.pending, id)
			due = append(due, t)
		}
	}
	s.mu.Unlock()

	for _, t := range due {
		t.fn()
		s.wg.Done()
	}
	s.wg.Wait()
}

// Stop drops the pending tasks, refuses new ones and waits for the running ones.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	s.stopped = true
	for id := range s.pending {
		s.cancel(id)
	}
	s.mu.Unlock()
	s.wg.Wait()
}
