package document

import (
	"context"
	"errors"
	"fmt"
	"path"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/feichai0017/document-search/config"
	"github.com/feichai0017/document-search/internal/agent/ocr"
	"github.com/feichai0017/document-search/internal/agent/splitter"
	"github.com/feichai0017/document-search/internal/catalog"
	"github.com/feichai0017/document-search/internal/ingest"
	"github.com/feichai0017/document-search/internal/models"
	"github.com/feichai0017/document-search/internal/search"
	ocrservice "github.com/feichai0017/document-search/internal/service/ocr"
	"github.com/feichai0017/document-search/internal/utils/validator"
	"github.com/feichai0017/document-search/pkg/lock"
	"github.com/feichai0017/document-search/pkg/logger"
	"github.com/feichai0017/document-search/pkg/queue"
	"github.com/feichai0017/document-search/pkg/storage"
)

// BatchTaskID is the fixed ID OCR batches are queued under, so concurrent
// requests coalesce into one task. A request arriving while the batch runs
// queues a single follow-up under batchFollowUpID. Status is only tracked
// under BatchTaskID: whichever task runs reports there.
const (
	BatchTaskID     = "ocr-batch"
	batchFollowUpID = BatchTaskID + ":next"
)

var _ DocumentProcessor = (*DocumentService)(nil)

type DocumentService struct {
	pipeline  *ingest.Pipeline
	store     catalog.Store
	runner    *ocrservice.Runner
	engine    *search.Engine
	artifacts storage.Storage
	validator *validator.DocumentValidator
	queue     queue.Queue
	logger    logger.Logger
	config    *ServiceConfig

	batchMu sync.Mutex
}

type ServiceConfig struct {
	// QueueMode sends OCR batches to the worker instead of running them inline.
	QueueMode       bool
	MaxSaveAttempts int
}

// Dependencies are the collaborators of a DocumentService.
type Dependencies struct {
	Pipeline  *ingest.Pipeline
	Store     catalog.Store
	Runner    *ocrservice.Runner
	Engine    *search.Engine
	Artifacts storage.Storage
	Validator *validator.DocumentValidator
	Queue     queue.Queue
}

func NewService(deps Dependencies, log logger.Logger, cfg *ServiceConfig) *DocumentService {
	if cfg == nil {
		cfg = &ServiceConfig{}
	}
	if cfg.MaxSaveAttempts <= 0 {
		cfg.MaxSaveAttempts = 3
	}
	if deps.Queue == nil {
		deps.Queue = queue.NewMemoryQueue()
	}
	if deps.Validator == nil {
		deps.Validator = validator.NewDocumentValidator(log, nil)
	}

	return &DocumentService{
		pipeline:  deps.Pipeline,
		store:     deps.Store,
		runner:    deps.Runner,
		engine:    deps.Engine,
		artifacts: deps.Artifacts,
		validator: deps.Validator,
		queue:     deps.Queue,
		logger:    log.Named("document"),
		config:    cfg,
	}
}

// GetService wires a DocumentService from the environment. The returned
// cleanup closes the Redis and queue clients.
func GetService(ctx context.Context, log logger.Logger) (*DocumentService, func(), error) {
	cfg := config.GetAppConfig()
	var closers []func() error
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				log.Warn("Cleanup failed", logger.Error(err))
			}
		}
	}

	store, err := storage.NewStorage(storage.StorageType(cfg.StorageType), cfg.LocalRoot, log)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	var rdb redis.UniversalClient
	if cfg.QueueMode() || cfg.LockBackend == config.LockBackendRedis {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		closers = append(closers, rdb.Close)
		if err := rdb.Ping(ctx).Err(); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
	}

	var locker lock.Locker = lock.NewLocalLock()
	if cfg.LockBackend == config.LockBackendRedis {
		locker = lock.NewRedisLock(rdb)
	}

	var q queue.Queue = queue.NewMemoryQueue()
	if cfg.QueueMode() {
		aq := queue.NewAsynqQueue(&queue.QueueConfig{
			RedisAddr:     cfg.RedisAddr,
			RedisPassword: cfg.RedisPassword,
			RedisDB:       cfg.RedisDB,
		}, rdb)
		closers = append(closers, aq.Close)
		q = aq
	}

	extractor, err := ocr.NewExtractor(ctx, cfg.OCREngine, log)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("failed to initialize extractor: %w", err)
	}

	factory := splitter.NewFactory(log)
	vcfg := validator.DefaultConfig()
	vcfg.MaxFileSize = cfg.MaxUploadBytes
	svc := NewService(Dependencies{
		Pipeline: ingest.NewPipeline(factory, store, log, ingest.WithDataPrefix(cfg.DataPrefix)),
		Store: catalog.NewBlobStore(store, locker, log,
			catalog.WithKey(cfg.CatalogKey),
			catalog.WithLockTTL(cfg.LockTTL),
		),
		Runner: ocrservice.NewRunner(extractor, store, log, ocrservice.WithConcurrency(cfg.OCRConcurrency)),
		Engine: search.NewEngine(log,
			search.WithLimit(cfg.SearchLimit),
			search.WithTokenScorer(search.ScorerByName(cfg.TokenScorer)),
		),
		Artifacts: store,
		Validator: validator.NewDocumentValidator(log, vcfg),
		Queue:     q,
	}, log, &ServiceConfig{QueueMode: cfg.QueueMode()})

	return svc, cleanup, nil
}

// Upload validates and ingests a document, then appends its pages to the
// catalog. In queue mode an OCR batch is requested afterwards; failing to
// enqueue does not fail the upload.
func (s *DocumentService) Upload(ctx context.Context, data []byte, fileName, fileType, notes string) ([]models.PageRecord, error) {
	log := logger.FromContext(ctx, s.logger)

	if err := s.validator.Validate(data, fileName).Err(); err != nil {
		return nil, err
	}

	records, err := s.pipeline.Ingest(ctx, data, fileName, fileType, notes)
	if err != nil {
		return nil, err
	}

	cat, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	appendRecords := func(c *catalog.Catalog) *catalog.Catalog { return c.Append(records...) }
	if err := s.saveWithRetry(ctx, appendRecords(cat), appendRecords); err != nil {
		return nil, err
	}

	log.Info("Document uploaded",
		logger.String("file_name", records[0].FileName),
		logger.Int("pages", len(records)),
	)

	if s.config.QueueMode {
		if _, err := s.enqueueBatch(ctx); err != nil {
			log.Warn("Failed to request OCR batch after upload", logger.Error(err))
		}
	}
	return records, nil
}

// Pending lists the records still awaiting OCR.
func (s *DocumentService) Pending(ctx context.Context) ([]models.PageRecord, error) {
	cat, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	idx := cat.Pending()
	out := make([]models.PageRecord, len(idx))
	for i, j := range idx {
		out[i] = cat.At(j)
	}
	return out, nil
}

// ProcessPending runs one OCR batch and saves the result. When the catalog
// changed meanwhile, the batch's transitions are replayed onto the fresh
// snapshot.
func (s *DocumentService) ProcessPending(ctx context.Context) (*ocrservice.BatchResult, error) {
	cat, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	next, result, err := s.runner.RunPending(ctx, cat)
	if err != nil {
		return nil, err
	}
	if result.Processed == 0 {
		return result, nil
	}

	replay := func(c *catalog.Catalog) *catalog.Catalog {
		ocrservice.Apply(c, result.Updates)
		return c
	}
	if err := s.saveWithRetry(ctx, next, replay); err != nil {
		return nil, err
	}
	return result, nil
}

// RequestProcessing runs a batch inline or queues one for the worker.
func (s *DocumentService) RequestProcessing(ctx context.Context) (*queue.TaskStatus, error) {
	if s.config.QueueMode {
		return s.enqueueBatch(ctx)
	}
	return s.runBatch(ctx)
}

// ProcessingStatus returns the status of the latest batch.
func (s *DocumentService) ProcessingStatus(ctx context.Context) (*queue.TaskStatus, error) {
	return s.queue.GetTaskStatus(ctx, BatchTaskID)
}

// HandleOCRBatch runs a queued batch.
func (s *DocumentService) HandleOCRBatch(ctx context.Context, taskID string) error {
	logger.FromContext(ctx, s.logger).Info("Handling OCR batch", logger.String("taskId", taskID))
	_, err := s.runBatch(ctx)
	return err
}

func (s *DocumentService) Search(ctx context.Context, term string) ([]models.SearchResult, error) {
	cat, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return s.engine.Search(cat, term), nil
}

// Preview returns the artifact stored under the display name fileName.
func (s *DocumentService) Preview(ctx context.Context, fileName string) ([]byte, error) {
	if fileName == "" || ingest.BaseName(fileName) != fileName {
		return nil, fmt.Errorf("invalid preview name %q: %w", fileName, models.ErrNotFound)
	}
	return storage.ReadAll(ctx, s.artifacts, path.Join(s.pipeline.Prefix(), fileName))
}

// load returns the current catalog, or an empty one when none was saved yet.
func (s *DocumentService) load(ctx context.Context) (*catalog.Catalog, error) {
	cat, err := s.store.Load(ctx)
	if errors.Is(err, models.ErrNotFound) {
		return catalog.New(), nil
	}
	return cat, err
}

// saveWithRetry saves cat. On a version conflict it reloads and saves
// reapply(fresh) instead, up to MaxSaveAttempts attempts in total.
func (s *DocumentService) saveWithRetry(ctx context.Context, cat *catalog.Catalog, reapply func(*catalog.Catalog) *catalog.Catalog) error {
	log := logger.FromContext(ctx, s.logger)

	for attempt := 1; ; attempt++ {
		err := s.store.Save(ctx, cat)
		if err == nil || !errors.Is(err, models.ErrConflict) || attempt >= s.config.MaxSaveAttempts {
			return err
		}
		log.Warn("Catalog changed during update, retrying", logger.Int("attempt", attempt))

		fresh, err := s.load(ctx)
		if err != nil {
			return err
		}
		cat = reapply(fresh)
	}
}

func (s *DocumentService) enqueueBatch(ctx context.Context) (*queue.TaskStatus, error) {
	task := &queue.Task{
		ID:        BatchTaskID,
		Type:      queue.TaskTypeOCRBatch,
		Queue:     queue.QueueCatalog,
		CreatedAt: time.Now().UTC(),
	}
	if id := logger.RequestID(ctx); id != "" {
		task.Metadata = map[string]string{"requestId": id}
	}

	err := s.queue.Enqueue(ctx, task)
	if errors.Is(err, queue.ErrTaskActive) {
		task.ID = batchFollowUpID
		err = s.queue.Enqueue(ctx, task)
	}
	switch {
	case err == nil && task.ID == BatchTaskID:
		status := &queue.TaskStatus{TaskID: BatchTaskID, Status: queue.StatusQueued}
		s.saveStatus(ctx, status)
		return status, nil
	case err == nil, errors.Is(err, queue.ErrAlreadyQueued):
		// The tracked status still describes the running or waiting batch.
		return &queue.TaskStatus{TaskID: task.ID, Status: queue.StatusQueued}, nil
	case errors.Is(err, queue.ErrTaskActive):
		// The follow-up itself is running; it loads the catalog after us.
		return &queue.TaskStatus{TaskID: task.ID, Status: queue.StatusRunning}, nil
	default:
		return nil, fmt.Errorf("failed to enqueue OCR batch: %w", err)
	}
}

// runBatch runs ProcessPending and records its outcome as the latest batch
// status. Inline batches are serialised per process.
func (s *DocumentService) runBatch(ctx context.Context) (*queue.TaskStatus, error) {
	s.batchMu.Lock()
	defer s.batchMu.Unlock()
	log := logger.FromContext(ctx, s.logger)

	status := &queue.TaskStatus{
		TaskID:    BatchTaskID,
		Status:    queue.StatusRunning,
		StartedAt: time.Now().UTC(),
	}
	s.saveStatus(ctx, status)

	result, err := s.ProcessPending(ctx)
	status.FinishedAt = time.Now().UTC()
	if err != nil {
		status.Status = queue.StatusFailed
		status.Error = err.Error()
	} else {
		status.Status = queue.StatusCompleted
		status.Processed = result.Processed
		status.Skipped = len(result.Skipped)
	}
	s.saveStatus(ctx, status)

	if err != nil {
		log.Error("OCR batch failed", logger.Error(err))
		return status, err
	}
	return status, nil
}

func (s *DocumentService) saveStatus(ctx context.Context, status *queue.TaskStatus) {
	// Status must be recorded even if the request was cancelled.
	if err := s.queue.SaveStatus(context.WithoutCancel(ctx), status); err != nil {
		s.logger.Warn("Failed to save batch status",
			logger.String("taskId", status.TaskID),
			logger.Error(err),
		)
	}
}
