package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/heartmarshall/allergycare-backend/internal/domain"
)

// TaskStatus is the lifecycle state of an advisory task.
type TaskStatus string

const (
	TaskPending   TaskStatus = "pending"
	TaskSucceeded TaskStatus = "succeeded"
	TaskFailed    TaskStatus = "failed"
)

// TaskKind names the prompt variant a task runs.
type TaskKind string

const (
	TaskKindTriggers  TaskKind = "triggers"
	TaskKindLogReview TaskKind = "log_review"
)

// NoNarrativeMessage is reported by failed tasks.
const NoNarrativeMessage = "no narrative available"

// Task is a snapshot of one advisory call.
type Task struct {
	ID         string             `json:"id"`
	Kind       TaskKind           `json:"kind"`
	Status     TaskStatus         `json:"status"`
	Suggestion *domain.Suggestion `json:"suggestion,omitempty"`
	Message    string             `json:"message,omitempty"`
	CreatedAt  time.Time          `json:"createdAt"`
	FinishedAt *time.Time         `json:"finishedAt,omitempty"`

	err error
}

// Err returns the failure cause of a failed task.
func (t Task) Err() error { return t.err }

type taskState struct {
	mu   sync.Mutex
	task Task
	done chan struct{}
}

func (ts *taskState) snapshot() Task {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return ts.task
}

// registry keeps recent tasks for polling. Old tasks expire after ttl and
// the least recently used are evicted beyond size.
type registry struct {
	cache *expirable.LRU[string, *taskState]
	log   *slog.Logger
	now   func() time.Time

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

var errRegistryClosed = fmt.Errorf("%w: shutting down", domain.ErrAdvisoryUnavailable)

func newRegistry(size int, ttl time.Duration, log *slog.Logger) *registry {
	if size <= 0 {
		size = 256
	}
	return &registry{
		cache: expirable.NewLRU[string, *taskState](size, nil, ttl),
		log:   log,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// start registers a pending task and runs fn in its own goroutine. The
// goroutine keeps ctx values but not its cancellation. Once drain has begun
// the task is registered as failed and fn is not called.
func (r *registry) start(ctx context.Context, kind TaskKind, fn func(ctx context.Context) (*domain.Suggestion, error)) Task {
	ts := &taskState{
		task: Task{
			ID:        uuid.NewString(),
			Kind:      kind,
			Status:    TaskPending,
			CreatedAt: r.now(),
		},
		done: make(chan struct{}),
	}
	r.cache.Add(ts.task.ID, ts)

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		r.finish(ts, nil, errRegistryClosed)
		close(ts.done)
		return ts.snapshot()
	}
	r.wg.Add(1)
	r.mu.Unlock()

	detached := context.WithoutCancel(ctx)
	go func() {
		defer r.wg.Done()
		defer close(ts.done)
		defer func() {
			if p := recover(); p != nil {
				r.log.ErrorContext(detached, "advisory task panicked", slog.String("task_id", ts.task.ID), slog.Any("panic", p))
				r.finish(ts, nil, errors.New("advisory task panicked"))
			}
		}()

		suggestion, err := fn(detached)
		if err == nil && suggestion == nil {
			err = domain.ErrAdvisoryUnavailable
		}
		r.finish(ts, suggestion, err)

		if err != nil {
			r.log.WarnContext(detached, "advisory task failed",
				slog.String("task_id", ts.task.ID),
				slog.String("kind", string(kind)),
				slog.String("error", err.Error()),
			)
			return
		}
		r.log.InfoContext(detached, "advisory task succeeded",
			slog.String("task_id", ts.task.ID),
			slog.String("kind", string(kind)),
			slog.String("source", string(suggestion.Source)),
		)
	}()

	return ts.snapshot()
}

func (r *registry) finish(ts *taskState, suggestion *domain.Suggestion, err error) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	at := r.now()
	ts.task.FinishedAt = &at
	if err != nil || suggestion == nil {
		if err == nil {
			err = domain.ErrAdvisoryUnavailable
		}
		ts.task.Status = TaskFailed
		ts.task.Message = NoNarrativeMessage
		ts.task.err = err
		return
	}
	ts.task.Status = TaskSucceeded
	ts.task.Suggestion = suggestion
}

// get returns the current snapshot of a task.
func (r *registry) get(id string) (Task, bool) {
	ts, ok := r.cache.Get(id)
	if !ok {
		return Task{}, false
	}
	return ts.snapshot(), true
}

// wait blocks until the task finishes or ctx ends, then returns the latest
// snapshot.
func (r *registry) wait(ctx context.Context, id string) (Task, bool) {
	ts, ok := r.cache.Get(id)
	if !ok {
		return Task{}, false
	}
	select {
	case <-ts.done:
	case <-ctx.Done():
	}
	return ts.snapshot(), true
}

// drain stops accepting tasks and waits for running ones until ctx ends.
func (r *registry) drain(ctx context.Context) error {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
