package splitter

import (
	"fmt"

	"github.com/gabriel-vasile/mimetype"

	"github.com/feichai0017/document-search/internal/models"
	"github.com/feichai0017/document-search/pkg/logger"
)

// Factory picks a Splitter from the sniffed content type of an upload.
type Factory struct {
	splitters map[string]Splitter
	logger    logger.Logger
}

func NewFactory(log logger.Logger) *Factory {
	f := &Factory{
		splitters: make(map[string]Splitter),
		logger:    log,
	}

	f.Register(NewPDFSplitter(log), "application/pdf")
	f.Register(NewImageSplitter(), "image/jpeg", "image/png", "image/tiff")
	return f
}

// Register maps MIME types to s, replacing any earlier registration.
func (f *Factory) Register(s Splitter, mimeTypes ...string) {
	for _, m := range mimeTypes {
		f.splitters[m] = s
	}
}

// ForContent returns the splitter for data and the detected MIME type.
// Unsupported content fails with models.ErrInvalidDocument.
func (f *Factory) ForContent(data []byte) (Splitter, string, error) {
	mtype := mimetype.Detect(data)
	for m := mtype; m != nil; m = m.Parent() {
		if s, ok := f.splitters[m.String()]; ok {
			return s, m.String(), nil
		}
	}

	f.logger.Warn("Unsupported content type", logger.String("mimeType", mtype.String()))
	return nil, mtype.String(), fmt.Errorf("unsupported content type %s: %w", mtype.String(), models.ErrInvalidDocument)
}
