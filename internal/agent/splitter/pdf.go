package splitter

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"golang.org/x/sync/errgroup"

	"github.com/feichai0017/document-search/pkg/logger"
)

var disableConfigDir sync.Once

// PDFSplitter writes every page of a PDF as its own single-page PDF.
type PDFSplitter struct {
	logger     logger.Logger
	maxWorkers int
}

func NewPDFSplitter(log logger.Logger) *PDFSplitter {
	// pdfcpu otherwise creates a config directory under the user's home.
	disableConfigDir.Do(api.DisableConfigDir)
	return &PDFSplitter{logger: log, maxWorkers: 4}
}

func newConfig() *model.Configuration {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return conf
}

func (s *PDFSplitter) Split(ctx context.Context, data []byte) ([]Page, error) {
	count, err := api.PageCount(bytes.NewReader(data), newConfig())
	if err != nil {
		return nil, fmt.Errorf("read pdf: %w", err)
	}
	if count == 0 {
		return nil, fmt.Errorf("pdf has no pages")
	}

	pages := make([]Page, count)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.maxWorkers)

	for i := 0; i < count; i++ {
		i := i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			var out bytes.Buffer
			sel := []string{strconv.Itoa(i + 1)}
			if err := api.Trim(bytes.NewReader(data), &out, sel, newConfig()); err != nil {
				return fmt.Errorf("extract page %d: %w", i+1, err)
			}
			pages[i] = Page{Data: out.Bytes(), Ext: ".pdf"}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	s.logger.Debug("Split PDF", logger.Int("pages", count), logger.Int("bytes", len(data)))
	return pages, nil
}
