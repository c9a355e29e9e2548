// Package goroutine runs named background tasks with a concurrency cap,
// panic recovery and error collection.
package goroutine

import (
	"context"
	"errors"
	"log/slog"
	"runtime/debug"
	"sync"

	"github.com/shandysiswandi/wireq/internal/pkg/stacktrace"
)

// DefaultMaxGoroutine is used when NewManager receives a non-positive limit.
const DefaultMaxGoroutine = 16

// Manager schedules tasks on goroutines up to a fixed concurrency limit.
//
// Errors returned by tasks are collected and surfaced by Wait. A panicking
// task is recovered and logged, never crashing the process.
type Manager struct {
	sema chan struct{}
	wg   sync.WaitGroup

	mu     sync.Mutex
	errs   []error
	closed bool
}

// NewManager creates a Manager with the provided maximum concurrency.
func NewManager(maxGoroutine int) *Manager {
	if maxGoroutine < 1 {
		maxGoroutine = DefaultMaxGoroutine
	}
	return &Manager{sema: make(chan struct{}, maxGoroutine)}
}

// Go schedules fn to run in a goroutine if capacity is available.
//
// A manager that is already waiting, or at its concurrency limit, skips the
// task and logs a warning instead of blocking the caller.
func (m *Manager) Go(ctx context.Context, name string, fn func(ctx context.Context) error) {
	if m == nil || fn == nil {
		return
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		slog.WarnContext(ctx, "goroutine manager is closed, skipping task", "task", name)
		return
	}

	select {
	case m.sema <- struct{}{}:
	default:
		m.mu.Unlock()
		slog.WarnContext(ctx, "goroutine limit reached, skipping task", "task", name)
		return
	}
	m.wg.Add(1)
	m.mu.Unlock()

	go func() {
		defer func() {
			<-m.sema
			m.wg.Done()

			if rvr := recover(); rvr != nil {
				stack := debug.Stack()
				if paths := stacktrace.InternalPaths(stack); len(paths) > 0 {
					slog.ErrorContext(ctx, "panic in background task", "task", name, "panic", rvr, "stack", paths)
				} else {
					slog.ErrorContext(ctx, "panic in background task", "task", name, "panic", rvr, "stack", string(stack))
				}
			}
		}()

		if err := ctx.Err(); err != nil {
			slog.WarnContext(ctx, "background task canceled before start", "task", name, "because", err)
			return
		}

		if err := fn(ctx); err != nil {
			m.mu.Lock()
			m.errs = append(m.errs, err)
			m.mu.Unlock()
		}
	}()
}

// Wait blocks until every scheduled task finishes and returns their joined
// errors. After Wait, the manager accepts no new tasks.
func (m *Manager) Wait() error {
	if m == nil {
		return nil
	}

	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()

	m.wg.Wait()

	m.mu.Lock()
	defer m.mu.Unlock()
	return errors.Join(m.errs...)
}
