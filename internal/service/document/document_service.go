package document

import (
	"context"

	"github.com/feichai0017/document-search/internal/models"
	"github.com/feichai0017/document-search/internal/service/ocr"
	"github.com/feichai0017/document-search/pkg/queue"
)

// DocumentProcessor is the facade used by the HTTP handlers and the worker.
type DocumentProcessor interface {
	Upload(ctx context.Context, data []byte, fileName, fileType, notes string) ([]models.PageRecord, error)
	Pending(ctx context.Context) ([]models.PageRecord, error)
	ProcessPending(ctx context.Context) (*ocr.BatchResult, error)
	RequestProcessing(ctx context.Context) (*queue.TaskStatus, error)
	ProcessingStatus(ctx context.Context) (*queue.TaskStatus, error)
	HandleOCRBatch(ctx context.Context, taskID string) error
	Search(ctx context.Context, term string) ([]models.SearchResult, error)
	Preview(ctx context.Context, fileName string) ([]byte, error)
}
