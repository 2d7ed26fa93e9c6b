package ocr

import (
	"context"
	"strings"

	"github.com/feichai0017/document-search/internal/models"
	"github.com/feichai0017/document-search/pkg/logger"
)

var _ Extractor = (*Fallback)(nil)

// Fallback tries extractors in order and returns the first result that has
// words. Errors are remembered and only returned when no extractor produced
// words.
type Fallback struct {
	extractors []Extractor
	logger     logger.Logger
}

func NewFallback(log logger.Logger, extractors ...Extractor) *Fallback {
	return &Fallback{extractors: extractors, logger: log}
}

func (f *Fallback) Name() string {
	names := make([]string, len(f.extractors))
	for i, e := range f.extractors {
		names[i] = e.Name()
	}
	return "fallback(" + strings.Join(names, ",") + ")"
}

func (f *Fallback) Extract(ctx context.Context, page []byte) (*models.OCRDocument, error) {
	var (
		last    *models.OCRDocument
		lastErr error
	)
	for _, e := range f.extractors {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		doc, err := e.Extract(ctx, page)
		if err != nil {
			f.logger.Warn("Extractor failed, trying next",
				logger.String("extractor", e.Name()),
				logger.Error(err),
			)
			lastErr = err
			continue
		}
		if doc.WordCount() > 0 {
			return doc, nil
		}
		last = doc
	}
	if lastErr != nil {
		return nil, lastErr
	}
	if last == nil {
		last = &models.OCRDocument{Engine: f.Name()}
	}
	return last, nil
}
