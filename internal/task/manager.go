// Package task manages the goroutines owned by a bridge: listener accept loops,
// concurrently dispatched connection handlers and the serial writer.
package task

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/arloliu/go-uartbridge/logger"
)

// ErrStopped is returned when a task is started on a stopped Manager.
var ErrStopped = errors.New("task manager already stopped")

// Func performs one iteration of a looping task.
// It returns true to keep running, or false to stop the goroutine.
type Func func() bool

// Manager manages the lifecycle of goroutines.
//
// Every goroutine observes the manager's context; Stop cancels it and Wait
// blocks until all goroutines have returned. After Wait the manager can be
// reused with a fresh context derived from the parent.
//
//	mgr := task.NewManager(ctx, logger)
//	_ = mgr.Start("accept", func() bool {
//	    // ... one accept ...
//	    return true
//	})
//	mgr.Stop()
//	mgr.Wait()
type Manager struct {
	pctx   context.Context
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	logger logger.Logger
	count  atomic.Int32
	mu     sync.RWMutex // protect ctx and cancel
	taskMu sync.RWMutex // protect task creation during Wait()
}

// NewManager creates a Manager whose tasks are cancelled together with ctx.
func NewManager(ctx context.Context, l logger.Logger) *Manager {
	mgr := &Manager{pctx: ctx, logger: l}
	mgr.ctx, mgr.cancel = context.WithCancel(ctx)

	return mgr
}

// Context returns the context observed by the running tasks.
func (mgr *Manager) Context() context.Context {
	mgr.mu.RLock()
	defer mgr.mu.RUnlock()

	return mgr.ctx
}

// Start runs fn repeatedly in a new goroutine until it returns false or the
// manager is stopped.
func (mgr *Manager) Start(name string, fn Func) error {
	return mgr.spawn(name, func(ctx context.Context) {
		for {
			select {
			case <-ctx.Done():
				return
			default:
				if !mgr.callWithRecover(name, fn) {
					return
				}
			}
		}
	})
}

// Go runs fn once in a new goroutine.
func (mgr *Manager) Go(name string, fn func()) error {
	return mgr.spawn(name, func(context.Context) {
		mgr.callWithRecover(name, func() bool {
			fn()
			return false
		})
	})
}

func (mgr *Manager) spawn(name string, body func(ctx context.Context)) error {
	mgr.taskMu.RLock()
	defer mgr.taskMu.RUnlock()

	ctx := mgr.Context()
	select {
	case <-ctx.Done():
		return fmt.Errorf("start %s: %w", name, ErrStopped)
	default:
	}

	mgr.wg.Add(1)
	mgr.count.Add(1)

	go func() {
		defer func() {
			mgr.count.Add(-1)
			mgr.logger.Debug("task terminated", "name", name, "task_count", mgr.Count())
			mgr.wg.Done()
		}()

		body(ctx)
	}()

	return nil
}

// callWithRecover calls fn with panic protection; a panic stops the task.
func (mgr *Manager) callWithRecover(name string, fn Func) (keepRunning bool) {
	defer func() {
		if r := recover(); r != nil {
			mgr.logger.Error("panic in task", "name", name, "panic", r)
			keepRunning = false
		}
	}()

	return fn()
}

// Stop signals all running goroutines.
func (mgr *Manager) Stop() {
	mgr.mu.Lock()
	if mgr.cancel != nil {
		mgr.cancel()
	}
	mgr.mu.Unlock()
}

// Wait waits for all goroutines to terminate.
func (mgr *Manager) Wait() {
	mgr.taskMu.Lock()
	defer mgr.taskMu.Unlock()

	mgr.wg.Wait()

	mgr.mu.Lock()
	if mgr.ctx.Err() != nil {
		mgr.ctx, mgr.cancel = context.WithCancel(mgr.pctx)
	}
	mgr.mu.Unlock()
}

// Count returns the number of currently running goroutines.
func (mgr *Manager) Count() int {
	return int(mgr.count.Load())
}
