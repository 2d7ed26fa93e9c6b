// Package ocr drives catalog records from Pending to Done.
package ocr

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	ocragent "github.com/feichai0017/document-search/internal/agent/ocr"
	"github.com/feichai0017/document-search/internal/catalog"
	"github.com/feichai0017/document-search/internal/models"
	"github.com/feichai0017/document-search/pkg/converters"
	"github.com/feichai0017/document-search/pkg/logger"
	"github.com/feichai0017/document-search/pkg/storage"
)

// Update is one Pending to Done transition computed by a batch.
type Update struct {
	FilePath   string    `json:"filePath"`
	UploadTime time.Time `json:"uploadTime"`
	Words      []string  `json:"words"`
}

// BatchResult describes one RunPending invocation.
type BatchResult struct {
	Processed int      `json:"processed"`
	Skipped   []string `json:"skipped,omitempty"`
	Updates   []Update `json:"-"`
}

type Runner struct {
	extractor   ocragent.Extractor
	artifacts   storage.Storage
	concurrency int
	logger      logger.Logger
}

type Option func(*Runner)

// WithConcurrency bounds how many pages are recognised at once.
func WithConcurrency(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.concurrency = n
		}
	}
}

func NewRunner(extractor ocragent.Extractor, artifacts storage.Storage, log logger.Logger, opts ...Option) *Runner {
	r := &Runner{
		extractor:   extractor,
		artifacts:   artifacts,
		concurrency: 1,
		logger:      log.Named("ocr"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RunPending recognises every Pending record of cat and returns a new catalog
// with them marked Done. Done records are never read. If any extraction
// fails the batch is abandoned: the error wraps models.ErrExtractionFailure
// and cat is returned unchanged. Records whose artifact is missing stay
// Pending and are listed in BatchResult.Skipped.
func (r *Runner) RunPending(ctx context.Context, cat *catalog.Catalog) (*catalog.Catalog, *BatchResult, error) {
	log := logger.FromContext(ctx, r.logger)
	result := &BatchResult{}

	pending := cat.Pending()
	if len(pending) == 0 {
		return cat, result, nil
	}
	log.Info("Running OCR batch", logger.Int("pending", len(pending)), logger.String("extractor", r.extractor.Name()))

	updates := make([]*Update, len(pending))
	skipped := make([]bool, len(pending))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	for slot, idx := range pending {
		slot := slot
		rec := cat.At(idx)
		g.Go(func() error {
			data, err := storage.ReadAll(gctx, r.artifacts, rec.FilePath)
			if errors.Is(err, models.ErrNotFound) {
				skipped[slot] = true
				return nil
			}
			if err != nil {
				return fmt.Errorf("fetch %s: %w", rec.FilePath, err)
			}

			doc, err := r.extractor.Extract(gctx, data)
			if err != nil {
				return fmt.Errorf("extract %s: %w: %w", rec.FilePath, models.ErrExtractionFailure, err)
			}

			updates[slot] = &Update{
				FilePath:   rec.FilePath,
				UploadTime: rec.UploadTime,
				Words:      converters.FlattenWords(doc),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		log.Error("OCR batch failed, no records updated", logger.Error(err))
		return cat, nil, err
	}

	for slot, idx := range pending {
		if skipped[slot] {
			path := cat.At(idx).FilePath
			result.Skipped = append(result.Skipped, path)
			log.Warn("Artifact missing, record left pending", logger.String("file_path", path))
			continue
		}
		result.Updates = append(result.Updates, *updates[slot])
	}

	next := cat.Clone()
	result.Processed = Apply(next, result.Updates)

	log.Info("OCR batch finished",
		logger.Int("processed", result.Processed),
		logger.Int("skipped", len(result.Skipped)),
	)
	return next, result, nil
}

// Apply replays updates onto cat and returns how many took effect. Updates
// for records that are gone, already Done, or were re-uploaded are ignored.
func Apply(cat *catalog.Catalog, updates []Update) int {
	n := 0
	for _, u := range updates {
		if cat.MarkDone(u.FilePath, u.UploadTime, u.Words) {
			n++
		}
	}
	return n
}
