package catalog

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/feichai0017/document-search/internal/models"
	"github.com/feichai0017/document-search/pkg/lock"
	"github.com/feichai0017/document-search/pkg/logger"
	"github.com/feichai0017/document-search/pkg/storage"
)

// Store loads and saves catalog snapshots.
type Store interface {
	// Load returns models.ErrNotFound when no snapshot exists.
	Load(ctx context.Context) (*Catalog, error)
	// Save fails with models.ErrConflict when the stored snapshot is no
	// longer the one cat was loaded from.
	Save(ctx context.Context, cat *Catalog) error
}

const (
	DefaultKey     = "doc_df.csv"
	defaultLockTTL = 30 * time.Second
)

var _ Store = (*BlobStore)(nil)

// BlobStore keeps the snapshot as one object in blob storage. Saves are
// compare-and-swap on the snapshot digest, serialized by a named lock.
type BlobStore struct {
	storage storage.Storage
	locker  lock.Locker
	key     string
	lockTTL time.Duration
	logger  logger.Logger
}

type Option func(*BlobStore)

func WithKey(key string) Option {
	return func(s *BlobStore) {
		if key != "" {
			s.key = key
		}
	}
}

func WithLockTTL(ttl time.Duration) Option {
	return func(s *BlobStore) {
		if ttl > 0 {
			s.lockTTL = ttl
		}
	}
}

func NewBlobStore(st storage.Storage, locker lock.Locker, log logger.Logger, opts ...Option) *BlobStore {
	s := &BlobStore{
		storage: st,
		locker:  locker,
		key:     DefaultKey,
		lockTTL: defaultLockTTL,
		logger:  log.Named("catalog"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *BlobStore) Load(ctx context.Context) (*Catalog, error) {
	data, err := storage.ReadAll(ctx, s.storage, s.key)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	records, err := Decode(bytes.NewReader(data), s.logger)
	if err != nil {
		return nil, fmt.Errorf("decode catalog %s: %w", s.key, err)
	}

	cat := New(records...)
	cat.version = digest(data)
	return cat, nil
}

func (s *BlobStore) Save(ctx context.Context, cat *Catalog) error {
	var buf bytes.Buffer
	if err := Encode(&buf, cat.records); err != nil {
		return fmt.Errorf("encode catalog: %w", err)
	}
	next := digest(buf.Bytes())

	err := lock.WithLock(ctx, s.locker, "catalog:"+s.key, s.lockTTL, func(ctx context.Context) error {
		current, err := s.currentVersion(ctx)
		if err != nil {
			return err
		}
		if current != cat.version {
			return fmt.Errorf("snapshot %s changed: %w", s.key, models.ErrConflict)
		}
		if _, err := s.storage.Store(ctx, bytes.NewReader(buf.Bytes()), s.key); err != nil {
			return fmt.Errorf("store catalog: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	cat.version = next
	s.logger.Debug("Saved catalog", logger.Int("records", cat.Len()), logger.String("version", next))
	return nil
}

func (s *BlobStore) currentVersion(ctx context.Context) (string, error) {
	data, err := storage.ReadAll(ctx, s.storage, s.key)
	if errors.Is(err, models.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read current catalog: %w", err)
	}
	return digest(data), nil
}

func digest(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
