package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"

	"github.com/feichai0017/document-search/pkg/logger"
	"github.com/feichai0017/document-search/pkg/queue"
)

// BatchHandler runs one queued OCR batch.
type BatchHandler interface {
	HandleOCRBatch(ctx context.Context, taskID string) error
}

// DocumentWorker consumes OCR batch tasks. Catalog writes must not race, so
// it always runs with a concurrency of one on the catalog queue.
type DocumentWorker struct {
	BaseWorker
	handler BatchHandler
}

func NewDocumentWorker(cfg *Config, handler BatchHandler, log logger.Logger) (*DocumentWorker, error) {
	if cfg.RedisAddr == "" {
		return nil, fmt.Errorf("worker: redis address is required")
	}
	queues := cfg.Queues
	if len(queues) == 0 {
		queues = map[string]int{queue.QueueCatalog: 1}
	}
	if cfg.Concurrency > 1 {
		log.Warn("Ignoring worker concurrency, catalog batches run one at a time",
			logger.Int("requested", cfg.Concurrency))
	}

	log = log.Named("worker")
	server := asynq.NewServer(
		asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB},
		asynq.Config{
			Concurrency: 1,
			Queues:      queues,
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				log.Error("Task failed",
					logger.String("type", task.Type()),
					logger.Error(err),
				)
			}),
		},
	)

	w := &DocumentWorker{
		BaseWorker: BaseWorker{
			server: server,
			mux:    asynq.NewServeMux(),
			logger: log,
		},
		handler: handler,
	}
	w.registerHandlers()
	return w, nil
}

func (w *DocumentWorker) registerHandlers() {
	w.mux.HandleFunc(queue.TaskTypeOCRBatch, w.handleOCRBatch)
}

func (w *DocumentWorker) handleOCRBatch(ctx context.Context, t *asynq.Task) error {
	var task queue.Task
	if err := json.Unmarshal(t.Payload(), &task); err != nil {
		w.logger.Error("Failed to unmarshal task",
			logger.Error(err),
			logger.String("payload", string(t.Payload())),
		)
		// A payload that cannot be decoded will never succeed.
		return fmt.Errorf("failed to unmarshal task: %v: %w", err, asynq.SkipRetry)
	}

	if id := task.Metadata["requestId"]; id != "" {
		ctx = logger.WithRequestID(ctx, id)
	}
	taskID := task.ID
	if id, ok := asynq.GetTaskID(ctx); ok {
		taskID = id
	}

	log := logger.FromContext(ctx, w.logger)
	log.Info("Processing OCR batch", logger.String("taskId", taskID))

	if err := w.handler.HandleOCRBatch(ctx, taskID); err != nil {
		return err
	}

	log.Info("OCR batch task done", logger.String("taskId", taskID))
	return nil
}

func (w *DocumentWorker) Start(ctx context.Context) error {
	if err := w.server.Start(w.mux); err != nil {
		return fmt.Errorf("failed to start worker: %w", err)
	}
	w.logger.Info("Worker started", logger.String("queue", queue.QueueCatalog))

	go func() {
		<-ctx.Done()
		w.Stop()
	}()
	return nil
}
