package validator

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/disintegration/imaging"
	"github.com/gabriel-vasile/mimetype"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/feichai0017/document-search/internal/models"
	"github.com/feichai0017/document-search/pkg/logger"
)

var disableConfigDir sync.Once

// DocumentValidator checks uploads before they are split into pages.
type DocumentValidator struct {
	logger logger.Logger
	config *ValidatorConfig
}

type ValidatorConfig struct {
	MaxFileSize  int64    // bytes
	AllowedTypes []string // MIME types
	MinDimension int      // image pixels
	MaxDimension int
	MaxPageCount int
}

type ValidationResult struct {
	IsValid  bool              `json:"isValid"`
	Errors   []ValidationError `json:"errors,omitempty"`
	FileInfo FileInfo          `json:"fileInfo"`
}

type ValidationError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

type FileInfo struct {
	Filename  string `json:"filename"`
	Size      int64  `json:"size"`
	MimeType  string `json:"mimeType"`
	Extension string `json:"extension"`
	Hash      string `json:"hash"`
	Pages     int    `json:"pages,omitempty"`
}

func DefaultConfig() *ValidatorConfig {
	return &ValidatorConfig{
		MaxFileSize:  32 << 20,
		AllowedTypes: []string{"application/pdf", "image/png", "image/jpeg", "image/tiff"},
		MinDimension: 16,
		MaxDimension: 10000,
		MaxPageCount: 1000,
	}
}

func NewDocumentValidator(log logger.Logger, config *ValidatorConfig) *DocumentValidator {
	if config == nil {
		config = DefaultConfig()
	}
	disableConfigDir.Do(api.DisableConfigDir)
	return &DocumentValidator{
		logger: log.Named("validator"),
		config: config,
	}
}

// Validate inspects data uploaded as fileName. It never fails; problems are
// reported in the result.
func (v *DocumentValidator) Validate(data []byte, fileName string) *ValidationResult {
	sum := sha256.Sum256(data)
	result := &ValidationResult{
		IsValid: true,
		FileInfo: FileInfo{
			Filename:  fileName,
			Size:      int64(len(data)),
			Extension: strings.ToLower(filepath.Ext(fileName)),
			Hash:      hex.EncodeToString(sum[:]),
		},
	}

	if len(data) == 0 {
		result.add("EMPTY_FILE", "File is empty", "size")
		return result
	}
	if v.config.MaxFileSize > 0 && result.FileInfo.Size > v.config.MaxFileSize {
		result.add("FILE_TOO_LARGE",
			fmt.Sprintf("File size exceeds maximum limit of %d bytes", v.config.MaxFileSize), "size")
		return result
	}

	mt := mimetype.Detect(data)
	result.FileInfo.MimeType = mt.String()
	if !v.allowed(mt) {
		result.add("INVALID_MIME_TYPE",
			fmt.Sprintf("File type %s is not allowed", mt.String()), "mimeType")
		return result
	}

	switch {
	case mt.Is("application/pdf"):
		v.validatePDF(data, result)
	case strings.HasPrefix(mt.String(), "image/"):
		v.validateImage(data, result)
	}

	if !result.IsValid {
		v.logger.Debug("Upload rejected",
			logger.String("filename", fileName),
			logger.Any("errors", result.Errors),
		)
	}
	return result
}

func (v *DocumentValidator) allowed(mt *mimetype.MIME) bool {
	for m := mt; m != nil; m = m.Parent() {
		if slices.ContainsFunc(v.config.AllowedTypes, m.Is) {
			return true
		}
	}
	return false
}

func (v *DocumentValidator) validatePDF(data []byte, result *ValidationResult) {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	n, err := api.PageCount(bytes.NewReader(data), conf)
	if err != nil {
		result.add("INVALID_PDF", fmt.Sprintf("Cannot read PDF: %v", err), "content")
		return
	}
	result.FileInfo.Pages = n
	if n == 0 {
		result.add("NO_PAGES", "PDF has no pages", "pages")
	}
	if v.config.MaxPageCount > 0 && n > v.config.MaxPageCount {
		result.add("TOO_MANY_PAGES",
			fmt.Sprintf("PDF has %d pages, limit is %d", n, v.config.MaxPageCount), "pages")
	}
}

func (v *DocumentValidator) validateImage(data []byte, result *ValidationResult) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		result.add("INVALID_IMAGE", fmt.Sprintf("Cannot decode image: %v", err), "content")
		return
	}
	result.FileInfo.Pages = 1

	b := img.Bounds()
	short, long := min(b.Dx(), b.Dy()), max(b.Dx(), b.Dy())
	if short < v.config.MinDimension {
		result.add("IMAGE_TOO_SMALL",
			fmt.Sprintf("Image is %dx%d, minimum side is %d", b.Dx(), b.Dy(), v.config.MinDimension), "dimensions")
	}
	if v.config.MaxDimension > 0 && long > v.config.MaxDimension {
		result.add("IMAGE_TOO_LARGE",
			fmt.Sprintf("Image is %dx%d, maximum side is %d", b.Dx(), b.Dy(), v.config.MaxDimension), "dimensions")
	}
}

func (r *ValidationResult) add(code, msg, field string) {
	r.IsValid = false
	r.Errors = append(r.Errors, ValidationError{Code: code, Message: msg, Field: field})
}

// Err returns nil for a valid result, otherwise an error wrapping
// models.ErrInvalidDocument.
func (r *ValidationResult) Err() error {
	if r.IsValid {
		return nil
	}
	msgs := make([]string, len(r.Errors))
	for i, e := range r.Errors {
		msgs[i] = e.Message
	}
	return fmt.Errorf("%s: %w", strings.Join(msgs, "; "), models.ErrInvalidDocument)
}

// IsInvalid reports whether err came from a failed validation.
func IsInvalid(err error) bool {
	return errors.Is(err, models.ErrInvalidDocument)
}
