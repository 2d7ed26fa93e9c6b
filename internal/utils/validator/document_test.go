package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feichai0017/document-search/internal/models"
	"github.com/feichai0017/document-search/internal/testutil"
	"github.com/feichai0017/document-search/pkg/logger"
)

func newValidator(cfg *ValidatorConfig) *DocumentValidator {
	return NewDocumentValidator(logger.NewTestLogger(), cfg)
}

func codes(r *ValidationResult) []string {
	var out []string
	for _, e := range r.Errors {
		out = append(out, e.Code)
	}
	return out
}

func TestValidate_PDF(t *testing.T) {
	data := testutil.PDF("one", "two")

	r := newValidator(nil).Validate(data, "Report.PDF")
	require.True(t, r.IsValid, codes(r))
	assert.NoError(t, r.Err())
	assert.Equal(t, "application/pdf", r.FileInfo.MimeType)
	assert.Equal(t, ".pdf", r.FileInfo.Extension)
	assert.Equal(t, 2, r.FileInfo.Pages)
	assert.Len(t, r.FileInfo.Hash, 64)
}

func TestValidate_Image(t *testing.T) {
	r := newValidator(nil).Validate(testutil.PNG(40, 30), "scan.png")
	require.True(t, r.IsValid, codes(r))
	assert.Equal(t, "image/png", r.FileInfo.MimeType)
	assert.Equal(t, 1, r.FileInfo.Pages)
}

func TestValidate_ImageTooSmall(t *testing.T) {
	r := newValidator(nil).Validate(testutil.PNG(40, 4), "thin.png")
	assert.False(t, r.IsValid)
	assert.Equal(t, []string{"IMAGE_TOO_SMALL"}, codes(r))
}

func TestValidate_Rejections(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxFileSize = 64

	tests := []struct {
		name string
		data []byte
		code string
	}{
		{"empty", nil, "EMPTY_FILE"},
		{"too large", make([]byte, 65), "FILE_TOO_LARGE"},
		{"plain text", []byte("just some text"), "INVALID_MIME_TYPE"},
		{"broken pdf", []byte("%PDF-1.4\nnot really"), "INVALID_PDF"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newValidator(cfg).Validate(tt.data, "x.pdf")
			assert.False(t, r.IsValid)
			assert.Equal(t, []string{tt.code}, codes(r))
			assert.ErrorIs(t, r.Err(), models.ErrInvalidDocument)
			assert.True(t, IsInvalid(r.Err()))
		})
	}
}

func TestValidate_PageLimit(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxPageCount = 1

	r := newValidator(cfg).Validate(testutil.PDF("a", "b"), "two.pdf")
	assert.Equal(t, []string{"TOO_MANY_PAGES"}, codes(r))
}
