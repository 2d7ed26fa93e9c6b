package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/gabriel-vasile/mimetype"
	"github.com/gen2brain/go-fitz"
	"github.com/otiai10/gosseract/v2"

	"github.com/feichai0017/document-search/config"
	"github.com/feichai0017/document-search/internal/models"
	"github.com/feichai0017/document-search/pkg/logger"
)

var _ Extractor = (*TesseractExtractor)(nil)

// TesseractExtractor runs local Tesseract OCR. PDF pages are rasterized
// first. A fresh client is created per call since clients are not safe for
// concurrent use.
type TesseractExtractor struct {
	cfg      *config.TesseractConfig
	pipeline Pipeline
	logger   logger.Logger
}

func NewTesseractExtractor(cfg *config.TesseractConfig, log logger.Logger) *TesseractExtractor {
	e := &TesseractExtractor{cfg: cfg, logger: log}
	if cfg.Preprocess {
		e.pipeline = DefaultPipeline()
	}
	return e
}

func (e *TesseractExtractor) Name() string { return EngineTesseract }

func (e *TesseractExtractor) Extract(ctx context.Context, page []byte) (*models.OCRDocument, error) {
	images, err := e.rasterize(page)
	if err != nil {
		return nil, err
	}

	client := gosseract.NewClient()
	defer client.Close()
	if err := client.SetLanguage(e.cfg.Languages...); err != nil {
		return nil, fmt.Errorf("failed to set language: %w", err)
	}

	doc := &models.OCRDocument{Engine: e.Name()}
	for i, img := range images {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		img, err = e.pipeline.Apply(img)
		if err != nil {
			return nil, fmt.Errorf("preprocessing failed: %w", err)
		}

		var buf bytes.Buffer
		if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
			return nil, fmt.Errorf("failed to encode image: %w", err)
		}
		if err := client.SetImageFromBytes(buf.Bytes()); err != nil {
			return nil, fmt.Errorf("failed to set image: %w", err)
		}

		boxes, err := client.GetBoundingBoxesVerbose()
		if err != nil {
			return nil, fmt.Errorf("failed to recognise page %d: %w", i+1, err)
		}
		doc.Pages = append(doc.Pages, groupBoxes(boxes, e.cfg.MinConfidence))
	}

	e.logger.Debug("Tesseract finished",
		logger.Int("pages", len(doc.Pages)),
		logger.Int("words", doc.WordCount()),
	)
	return doc, nil
}

func (e *TesseractExtractor) rasterize(page []byte) ([]image.Image, error) {
	if !mimetype.Detect(page).Is("application/pdf") {
		img, err := imaging.Decode(bytes.NewReader(page), imaging.AutoOrientation(true))
		if err != nil {
			return nil, fmt.Errorf("failed to decode image: %w", err)
		}
		return []image.Image{img}, nil
	}

	doc, err := fitz.NewFromMemory(page)
	if err != nil {
		return nil, fmt.Errorf("failed to open pdf: %w", err)
	}
	defer doc.Close()

	images := make([]image.Image, 0, doc.NumPage())
	for i := 0; i < doc.NumPage(); i++ {
		img, err := doc.ImageDPI(i, e.cfg.DPI)
		if err != nil {
			return nil, fmt.Errorf("failed to rasterize page %d: %w", i+1, err)
		}
		images = append(images, img)
	}
	return images, nil
}

// groupBoxes turns verbose word boxes into blocks and lines, keeping
// Tesseract's reading order.
func groupBoxes(boxes []gosseract.BoundingBox, minConfidence float64) models.OCRPage {
	type lineKey struct{ block, par, line int }

	var page models.OCRPage
	blockIdx := map[int]int{}
	lineIdx := map[lineKey]int{}

	for _, box := range boxes {
		word := strings.TrimSpace(box.Word)
		if word == "" || box.Confidence < minConfidence {
			continue
		}

		bi, ok := blockIdx[box.BlockNum]
		if !ok {
			bi = len(page.Blocks)
			blockIdx[box.BlockNum] = bi
			page.Blocks = append(page.Blocks, models.OCRBlock{})
		}
		block := &page.Blocks[bi]

		key := lineKey{box.BlockNum, box.ParNum, box.LineNum}
		li, ok := lineIdx[key]
		if !ok {
			li = len(block.Lines)
			lineIdx[key] = li
			block.Lines = append(block.Lines, models.OCRLine{})
		}
		block.Lines[li].Words = append(block.Lines[li].Words, models.OCRWord{
			Value:      word,
			Confidence: box.Confidence,
		})
	}
	return page
}
