package ocr

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/ledongthuc/pdf"

	"github.com/feichai0017/document-search/internal/models"
	"github.com/feichai0017/document-search/pkg/logger"
)

var _ Extractor = (*TextLayerExtractor)(nil)

// TextLayerExtractor reads the embedded text of born-digital PDFs. Images
// and scanned PDFs yield an empty document rather than an error.
type TextLayerExtractor struct {
	logger logger.Logger
}

func NewTextLayerExtractor(log logger.Logger) *TextLayerExtractor {
	return &TextLayerExtractor{logger: log}
}

func (e *TextLayerExtractor) Name() string { return EngineTextLayer }

func (e *TextLayerExtractor) Extract(ctx context.Context, page []byte) (doc *models.OCRDocument, err error) {
	doc = &models.OCRDocument{Engine: e.Name()}
	if !mimetype.Detect(page).Is("application/pdf") {
		return doc, nil
	}

	// The pdf package panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			doc, err = nil, fmt.Errorf("read text layer: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(page), int64(len(page)))
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}

	for i := 1; i <= reader.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		p := reader.Page(i)
		if p.V.IsNull() {
			continue
		}
		rows, err := p.GetTextByRow()
		if err != nil {
			return nil, fmt.Errorf("read page %d text: %w", i, err)
		}

		var block models.OCRBlock
		for _, row := range rows {
			var sb strings.Builder
			for _, t := range row.Content {
				sb.WriteString(t.S)
			}
			var line models.OCRLine
			for _, w := range strings.Fields(sb.String()) {
				line.Words = append(line.Words, models.OCRWord{Value: w, Confidence: 100})
			}
			if len(line.Words) > 0 {
				block.Lines = append(block.Lines, line)
			}
		}
		doc.Pages = append(doc.Pages, models.OCRPage{Blocks: []models.OCRBlock{block}})
	}

	e.logger.Debug("Read text layer", logger.Int("words", doc.WordCount()))
	return doc, nil
}
