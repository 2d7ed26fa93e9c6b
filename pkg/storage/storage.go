package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/feichai0017/document-search/pkg/logger"
	"github.com/feichai0017/document-search/pkg/storage/local"
	"github.com/feichai0017/document-search/pkg/storage/minio"
	"github.com/feichai0017/document-search/pkg/storage/s3"
)

// StorageType selects the blob backend.
type StorageType string

const (
	StorageTypeLocal StorageType = "local"
	StorageTypeS3    StorageType = "s3"
	StorageTypeMinio StorageType = "minio"
)

// Storage is a flat key/value blob store. Keys use forward slashes; backends
// create any containing location on Store. Get returns models.ErrNotFound for
// missing keys.
type Storage interface {
	Store(ctx context.Context, reader io.Reader, key string) (string, error)
	Get(ctx context.Context, key string) (io.ReadCloser, error)
}

var (
	_ Storage = (*local.LocalStorage)(nil)
	_ Storage = (*s3.S3Storage)(nil)
	_ Storage = (*minio.MinioStorage)(nil)
)

// NewStorage builds the backend named by storageType. localRoot is only used
// by the local backend.
func NewStorage(storageType StorageType, localRoot string, log logger.Logger) (Storage, error) {
	switch storageType {
	case StorageTypeLocal, "":
		return local.NewLocalStorage(localRoot, log)
	case StorageTypeS3:
		return s3.GetClient(log)
	case StorageTypeMinio:
		return minio.GetClient(log)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", storageType)
	}
}

// ReadAll fetches the whole object at key.
func ReadAll(ctx context.Context, s Storage, key string) ([]byte, error) {
	rc, err := s.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return data, nil
}
