package app

import (
	"context"
	"sync"
	"time"
)

// TaskFunc runs one step of a periodic task. It returns the wait before the
// next step, and false once the task should end.
type TaskFunc func(ctx context.Context) (time.Duration, bool)

type taskHandle struct {
	cancel context.CancelFunc
}

// TaskArena runs at most one periodic task per key
type TaskArena struct {
	mu    sync.Mutex
	tasks map[string]*taskHandle
	wg    sync.WaitGroup
}

// NewTaskArena creates an empty task arena
func NewTaskArena() *TaskArena {
	return &TaskArena{
		tasks: make(map[string]*taskHandle),
	}
}

// Start launches fn under key after an initial wait. It is a no-op returning
// false when a task is already running for key.
func (a *TaskArena) Start(key string, wait time.Duration, fn TaskFunc) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, exists := a.tasks[key]; exists {
		return false
	}

	ctx, cancel := context.WithCancel(context.Background())
	h := &taskHandle{cancel: cancel}
	a.tasks[key] = h

	a.wg.Add(1)
	go a.run(ctx, key, h, wait, fn)

	return true
}

// Stop cancels the task running under key, if any
func (a *TaskArena) Stop(key string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	h, ok := a.tasks[key]
	if !ok {
		return false
	}
	h.cancel()
	delete(a.tasks, key)
	return true
}

// StopAll cancels every running task
func (a *TaskArena) StopAll() int {
	a.mu.Lock()
	defer a.mu.Unlock()

	n := len(a.tasks)
	for _, h := range a.tasks {
		h.cancel()
	}
	a.tasks = make(map[string]*taskHandle)
	return n
}

// Running reports whether a task is registered under key
func (a *TaskArena) Running(key string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	_, ok := a.tasks[key]
	return ok
}

// Len returns the number of running tasks
func (a *TaskArena) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.tasks)
}

// Wait blocks until every task goroutine has returned. Callers must not hold
// a lock that task steps acquire.
func (a *TaskArena) Wait() {
	a.wg.Wait()
}

func (a *TaskArena) run(ctx context.Context, key string, h *taskHandle, wait time.Duration, fn TaskFunc) {
	defer a.wg.Done()
	defer a.release(key, h)

	timer := time.NewTimer(wait)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		next, keep := fn(ctx)
		if !keep || ctx.Err() != nil {
			return
		}
		timer.Reset(next)
	}
}

// release drops the handle unless a newer task already replaced it
func (a *TaskArena) release(key string, h *taskHandle) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if cur, ok := a.tasks[key]; ok && cur == h {
		delete(a.tasks, key)
	}
	h.cancel()
}
