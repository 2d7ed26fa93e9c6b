// Package ocr extracts nested OCR results from single-page artifacts.
package ocr

import (
	"context"
	"fmt"

	"github.com/feichai0017/document-search/config"
	"github.com/feichai0017/document-search/internal/models"
	"github.com/feichai0017/document-search/pkg/logger"
)

// Extractor recognises the text of one page artifact (a single-page PDF or
// an image).
type Extractor interface {
	Name() string
	Extract(ctx context.Context, page []byte) (*models.OCRDocument, error)
}

// Engine names accepted by NewExtractor.
const (
	EngineTextract  = "textract"
	EngineTesseract = "tesseract"
	EngineTextLayer = "textlayer"
	EngineAuto      = "auto"
)

// NewExtractor builds the configured engine. Auto reads the embedded text
// layer first and falls back to Tesseract for scans.
func NewExtractor(ctx context.Context, engine string, log logger.Logger) (Extractor, error) {
	log = log.Named("ocr")

	switch engine {
	case EngineTextract:
		return NewTextractExtractor(ctx, config.GetTextractConfig(), log)
	case EngineTesseract:
		return NewTesseractExtractor(config.GetTesseractConfig(), log), nil
	case EngineTextLayer:
		return NewTextLayerExtractor(log), nil
	case EngineAuto, "":
		return NewFallback(log,
			NewTextLayerExtractor(log),
			NewTesseractExtractor(config.GetTesseractConfig(), log),
		), nil
	default:
		return nil, fmt.Errorf("unsupported OCR engine: %s", engine)
	}
}
