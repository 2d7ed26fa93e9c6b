// Package ingest splits uploaded documents into page artifacts and builds
// their pending catalog records.
package ingest

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/feichai0017/document-search/internal/agent/splitter"
	"github.com/feichai0017/document-search/internal/models"
	"github.com/feichai0017/document-search/pkg/logger"
	"github.com/feichai0017/document-search/pkg/storage"
)

// SplitterSource selects a splitter for uploaded content.
type SplitterSource interface {
	ForContent(data []byte) (splitter.Splitter, string, error)
}

type Pipeline struct {
	splitters  SplitterSource
	artifacts  storage.Storage
	prefix     string
	maxWorkers int
	now        func() time.Time
	logger     logger.Logger
}

type Option func(*Pipeline)

// WithDataPrefix sets the key prefix artifacts are stored under.
func WithDataPrefix(prefix string) Option {
	return func(p *Pipeline) { p.prefix = prefix }
}

func WithMaxWorkers(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.maxWorkers = n
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

func NewPipeline(splitters SplitterSource, artifacts storage.Storage, log logger.Logger, opts ...Option) *Pipeline {
	p := &Pipeline{
		splitters:  splitters,
		artifacts:  artifacts,
		prefix:     "Data",
		maxWorkers: 4,
		now:        time.Now,
		logger:     log.Named("ingest"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Prefix is the key prefix artifacts are stored under.
func (p *Pipeline) Prefix() string {
	return p.prefix
}

// BaseName reduces an uploaded file name to its last element, accepting
// both slash styles. It returns "" for names with no usable element.
func BaseName(name string) string {
	name = strings.TrimSpace(strings.ReplaceAll(name, `\`, "/"))
	if name == "" {
		return ""
	}
	base := path.Base(name)
	switch base {
	case ".", "..", "/":
		return ""
	}
	return base
}

// ArtifactPath is the storage key of page i of fileName.
func ArtifactPath(prefix, fileName string, i int, ext string) string {
	return path.Join(prefix, fmt.Sprintf("%s_%d%s", fileName, i, ext))
}

// Ingest splits data into pages, stores each page as an artifact and returns
// one pending record per page, sharing a single upload time. Nothing is
// stored when the document cannot be split.
func (p *Pipeline) Ingest(ctx context.Context, data []byte, fileName, fileType, notes string) ([]models.PageRecord, error) {
	name := BaseName(fileName)
	if name == "" {
		return nil, fmt.Errorf("empty file name: %w", models.ErrInvalidDocument)
	}
	log := logger.FromContext(ctx, p.logger).With(logger.String("file_name", name))

	s, mimeType, err := p.splitters.ForContent(data)
	if err != nil {
		return nil, err
	}
	pages, err := s.Split(ctx, data)
	if err != nil {
		log.Warn("Failed to split document", logger.String("mimeType", mimeType), logger.Error(err))
		return nil, fmt.Errorf("split %s: %w: %w", name, models.ErrInvalidDocument, err)
	}
	if len(pages) == 0 {
		return nil, fmt.Errorf("%s has no pages: %w", name, models.ErrInvalidDocument)
	}

	uploadTime := p.now().UTC()
	records := make([]models.PageRecord, len(pages))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.maxWorkers)
	for i, page := range pages {
		i, page := i, page
		key := ArtifactPath(p.prefix, name, i, page.Ext)
		records[i] = models.PageRecord{
			FileName:   name,
			PageNumber: i,
			FilePath:   key,
			FileType:   fileType,
			Notes:      notes,
			UploadTime: uploadTime,
			Words:      []string{},
		}
		g.Go(func() error {
			if _, err := p.artifacts.Store(gctx, bytes.NewReader(page.Data), key); err != nil {
				return fmt.Errorf("store page %d of %s: %w", i, name, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		log.Error("Failed to store artifacts", logger.Error(err))
		return nil, err
	}

	log.Info("Document ingested",
		logger.Int("pages", len(records)),
		logger.String("mimeType", mimeType),
	)
	return records, nil
}
