package splitter

import (
	"bytes"
	"context"
	"fmt"

	"github.com/disintegration/imaging"
	"github.com/gabriel-vasile/mimetype"
)

// ImageSplitter treats a scanned image as a single page. The image is
// decoded once so corrupt uploads are rejected before anything is stored.
type ImageSplitter struct{}

func NewImageSplitter() *ImageSplitter {
	return &ImageSplitter{}
}

func (s *ImageSplitter) Split(ctx context.Context, data []byte) ([]Page, error) {
	if _, err := imaging.Decode(bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	ext := mimetype.Detect(data).Extension()
	if ext == ".jpeg" {
		ext = ".jpg"
	}
	return []Page{{Data: data, Ext: ext}}, nil
}
