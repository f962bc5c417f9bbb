// Package tasks is the in-process task queue and its handlers: deferred
// side-effect work (confirmation emails, featured-speaker detection) and the
// periodic announcement recompute.
package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"confcentral/internal/domain"
)

// Handler processes one task. A non-nil error triggers a single redelivery;
// a second failure is logged and the task dropped, so one bad job cannot
// affect others.
type Handler func(ctx context.Context, task domain.Task) error

// Queue is a channel-backed dispatcher with a fixed worker pool. Delivery is
// at least once (a task redelivered after a handler error may have partially
// run) and unordered across workers.
type Queue struct {
	logger   *slog.Logger
	handlers map[string]Handler
	tasks    chan domain.Task
	wg       sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

// NewQueue creates a queue with the given buffer size. Register handlers
// before calling Start.
func NewQueue(logger *slog.Logger, buffer int) *Queue {
	return &Queue{
		logger:   logger,
		handlers: map[string]Handler{},
		tasks:    make(chan domain.Task, buffer),
	}
}

// Register binds a handler to a task name.
func (q *Queue) Register(name string, h Handler) {
	q.handlers[name] = h
}

// Start launches the worker pool. The workers stop when ctx is cancelled or
// Close is called and the channel drains.
func (q *Queue) Start(ctx context.Context, workers int) {
	for i := 0; i < workers; i++ {
		q.wg.Add(1)
		go func() {
			defer q.wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case task, ok := <-q.tasks:
					if !ok {
						return
					}
					q.process(ctx, task)
				}
			}
		}()
	}
}

func (q *Queue) process(ctx context.Context, task domain.Task) {
	h, ok := q.handlers[task.Name]
	if !ok {
		q.logger.ErrorContext(ctx, "no handler for task", "task", task.Name, "id", task.ID)
		return
	}
	err := h(ctx, task)
	if err == nil {
		return
	}
	q.logger.WarnContext(ctx, "task failed, redelivering", "task", task.Name, "id", task.ID, "err", err)
	if err := h(ctx, task); err != nil {
		q.logger.ErrorContext(ctx, "task dropped after redelivery", "task", task.Name, "id", task.ID, "err", err)
	}
}

// Enqueue submits a named task with a parameter bag.
func (q *Queue) Enqueue(ctx context.Context, name string, params map[string]string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return fmt.Errorf("task queue closed")
	}
	select {
	case q.tasks <- domain.Task{ID: uuid.NewString(), Name: name, Params: params}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting tasks and waits for in-flight work to finish.
func (q *Queue) Close() {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.tasks)
	}
	q.mu.Unlock()
	q.wg.Wait()
}
