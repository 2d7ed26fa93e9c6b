package queue

import (
	"context"
	"fmt"
	"sync"

	"github.com/feichai0017/document-search/internal/models"
)

var (
	_ Queue = (*AsynqQueue)(nil)
	_ Queue = (*MemoryQueue)(nil)
)

// MemoryQueue records tasks and statuses in process. It backs inline
// processing, where nothing is consumed from the queue, and tests.
type MemoryQueue struct {
	mu       sync.Mutex
	tasks    []Task
	statuses map[string]TaskStatus
	// EnqueueErr, when set, is returned by Enqueue.
	EnqueueErr error
}

func NewMemoryQueue() *MemoryQueue {
	return &MemoryQueue{statuses: make(map[string]TaskStatus)}
}

func (q *MemoryQueue) Enqueue(ctx context.Context, task *Task) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.EnqueueErr != nil {
		return q.EnqueueErr
	}
	q.tasks = append(q.tasks, *task)
	return nil
}

func (q *MemoryQueue) GetTaskStatus(ctx context.Context, taskID string) (*TaskStatus, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	s, ok := q.statuses[taskID]
	if !ok {
		return nil, fmt.Errorf("task %s: %w", taskID, models.ErrNotFound)
	}
	return &s, nil
}

func (q *MemoryQueue) SaveStatus(ctx context.Context, status *TaskStatus) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.statuses[status.TaskID] = *status
	return nil
}

// Tasks returns the enqueued tasks in order.
func (q *MemoryQueue) Tasks() []Task {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]Task(nil), q.tasks...)
}
