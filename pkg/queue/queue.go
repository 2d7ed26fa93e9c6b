package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/feichai0017/document-search/internal/models"
)

const (
	// TaskTypeOCRBatch runs one OCR batch over the pending catalog records.
	TaskTypeOCRBatch = "catalog:ocr_batch"

	// QueueCatalog is the single-writer queue for catalog mutations.
	QueueCatalog = "catalog"

	statusKeyPrefix = "docsearch:task_status:"
	statusTTL       = 24 * time.Hour
)

var (
	// ErrAlreadyQueued means a task with the same ID is waiting to run.
	ErrAlreadyQueued = errors.New("task already queued")
	// ErrTaskActive means a task with the same ID is running right now.
	ErrTaskActive = errors.New("task is running")
)

// Queue enqueues tasks and tracks their status.
type Queue interface {
	Enqueue(ctx context.Context, task *Task) error
	GetTaskStatus(ctx context.Context, taskID string) (*TaskStatus, error)
	SaveStatus(ctx context.Context, status *TaskStatus) error
}

// Task is a unit of queued work. A non-empty ID makes enqueueing coalesce
// with an existing task of the same ID.
type Task struct {
	ID        string            `json:"id"`
	Type      string            `json:"type"`
	Queue     string            `json:"queue"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	CreatedAt time.Time         `json:"createdAt"`
}

// Status values.
const (
	StatusQueued    = "queued"
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

type TaskStatus struct {
	TaskID     string    `json:"taskId"`
	Status     string    `json:"status"`
	Processed  int       `json:"processed"`
	Skipped    int       `json:"skipped"`
	Error      string    `json:"error,omitempty"`
	StartedAt  time.Time `json:"startedAt,omitempty"`
	FinishedAt time.Time `json:"finishedAt,omitempty"`
}

type AsynqQueue struct {
	client    *asynq.Client
	inspector *asynq.Inspector
	redis     redis.UniversalClient
}

type QueueConfig struct {
	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	ProcessTimeout time.Duration
}

func NewAsynqQueue(cfg *QueueConfig, rdb redis.UniversalClient) *AsynqQueue {
	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}
	return &AsynqQueue{
		client:    asynq.NewClient(redisOpt),
		inspector: asynq.NewInspector(redisOpt),
		redis:     rdb,
	}
}

// NewStatusStore returns a queue that only reads and writes statuses.
func NewStatusStore(rdb redis.UniversalClient) *AsynqQueue {
	return &AsynqQueue{redis: rdb}
}

func (q *AsynqQueue) Close() error {
	var errs []error
	if q.client != nil {
		errs = append(errs, q.client.Close())
	}
	if q.inspector != nil {
		errs = append(errs, q.inspector.Close())
	}
	return errors.Join(errs...)
}

// Enqueue adds task to its queue. It records no status; callers decide which
// IDs they track. Failed tasks are not retried; the next
// request re-runs the work. When task.ID is taken, ErrAlreadyQueued or
// ErrTaskActive reports what holds it. A finished task holding the ID is
// removed and the enqueue retried.
func (q *AsynqQueue) Enqueue(ctx context.Context, task *Task) error {
	if q.client == nil {
		return errors.New("queue has no client")
	}
	if task.Queue == "" {
		task.Queue = QueueCatalog
	}
	payload, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("failed to marshal task: %w", err)
	}

	opts := []asynq.Option{
		asynq.Queue(task.Queue),
		asynq.MaxRetry(0),
		asynq.Timeout(30 * time.Minute),
	}
	if task.ID != "" {
		opts = append(opts, asynq.TaskID(task.ID))
	}

	for attempt := 0; attempt < 2; attempt++ {
		info, err := q.client.EnqueueContext(ctx, asynq.NewTask(task.Type, payload), opts...)
		if err == nil {
			task.ID = info.ID
			return nil
		}
		if !errors.Is(err, asynq.ErrTaskIDConflict) {
			return fmt.Errorf("failed to enqueue task: %w", err)
		}

		existing, ierr := q.inspector.GetTaskInfo(task.Queue, task.ID)
		if ierr != nil {
			// Finished between the enqueue and the lookup.
			continue
		}
		switch existing.State {
		case asynq.TaskStateActive:
			return ErrTaskActive
		case asynq.TaskStateArchived, asynq.TaskStateCompleted:
			if derr := q.inspector.DeleteTask(task.Queue, task.ID); derr != nil {
				return fmt.Errorf("failed to clear finished task %s: %w", task.ID, derr)
			}
		default:
			return ErrAlreadyQueued
		}
	}
	return ErrAlreadyQueued
}

// GetTaskStatus returns the saved status of taskID, or models.ErrNotFound.
func (q *AsynqQueue) GetTaskStatus(ctx context.Context, taskID string) (*TaskStatus, error) {
	data, err := q.redis.Get(ctx, statusKeyPrefix+taskID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("task %s: %w", taskID, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get status from redis: %w", err)
	}

	var status TaskStatus
	if err := json.Unmarshal(data, &status); err != nil {
		return nil, fmt.Errorf("failed to unmarshal status: %w", err)
	}
	return &status, nil
}

func (q *AsynqQueue) SaveStatus(ctx context.Context, status *TaskStatus) error {
	data, err := json.Marshal(status)
	if err != nil {
		return fmt.Errorf("failed to marshal status: %w", err)
	}
	if err := q.redis.Set(ctx, statusKeyPrefix+status.TaskID, data, statusTTL).Err(); err != nil {
		return fmt.Errorf("failed to save status: %w", err)
	}
	return nil
}
