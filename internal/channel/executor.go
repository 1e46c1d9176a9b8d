package channel

import (
	"sync"

	"go.uber.org/zap"

	"github.com/muurk/ssdpd/internal/logging"
)

// Task is a unit of background work owned by an Executor.
type Task interface {
	// Run blocks until the task finishes or is aborted.
	Run() error
	// Abort makes Run return promptly.
	Abort()
}

// Executor runs tasks on their own goroutines and tears them all down as a unit.
type Executor struct {
	mu      sync.Mutex
	tasks   []Task
	aborted bool
	wg      sync.WaitGroup
}

// NewExecutor creates an empty executor
func NewExecutor() *Executor {
	return &Executor{}
}

// Submit starts t on a new goroutine.
func (e *Executor) Submit(t Task) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.aborted {
		return ErrExecutorAborted
	}

	e.tasks = append(e.tasks, t)
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		if err := t.Run(); err != nil {
			logging.Error("Executor task exited with error", zap.Error(err))
		}
	}()
	return nil
}

// Abort aborts every submitted task and waits for them to return.
// Further calls are no-ops.
func (e *Executor) Abort() {
	e.mu.Lock()
	if e.aborted {
		e.mu.Unlock()
		return
	}
	e.aborted = true
	tasks := e.tasks
	e.tasks = nil
	e.mu.Unlock()

	for _, t := range tasks {
		t.Abort()
	}
	e.wg.Wait()
}
