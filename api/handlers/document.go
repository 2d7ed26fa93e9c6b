package handlers

import (
	"fmt"
	"io"
	"net/http"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"

	"github.com/feichai0017/document-search/internal/service/document"
	"github.com/feichai0017/document-search/pkg/converters"
	"github.com/feichai0017/document-search/pkg/logger"
	"github.com/feichai0017/document-search/pkg/queue"
)

// Upload form fields. "file" is accepted as an alias of "pdf".
const (
	formFile     = "pdf"
	formFileAlt  = "file"
	formFileType = "file_type"
	formNotes    = "notes"
)

type DocumentHandler struct {
	service        document.DocumentProcessor
	maxUploadBytes int64
	logger         logger.Logger
}

func NewDocumentHandler(service document.DocumentProcessor, maxUploadBytes int64, log logger.Logger) *DocumentHandler {
	return &DocumentHandler{
		service:        service,
		maxUploadBytes: maxUploadBytes,
		logger:         log.Named("api"),
	}
}

// Upload stores a document and catalogs its pages.
func (h *DocumentHandler) Upload(c *gin.Context) {
	file, header, err := c.Request.FormFile(formFile)
	if err != nil {
		file, header, err = c.Request.FormFile(formFileAlt)
	}
	if err != nil {
		handleError(c, h.logger, http.StatusBadRequest, "Invalid file upload", err)
		return
	}
	defer file.Close()

	if h.maxUploadBytes > 0 && header.Size > h.maxUploadBytes {
		handleError(c, h.logger, http.StatusRequestEntityTooLarge, "File too large",
			fmt.Errorf("%d bytes exceeds limit of %d", header.Size, h.maxUploadBytes))
		return
	}
	data, err := io.ReadAll(file)
	if err != nil {
		handleError(c, h.logger, http.StatusBadRequest, "Failed to read upload", err)
		return
	}

	records, err := h.service.Upload(c.Request.Context(), data, header.Filename,
		c.PostForm(formFileType), c.PostForm(formNotes))
	if err != nil {
		handleError(c, h.logger, statusFor(err), "Failed to upload document", err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": fmt.Sprintf("Cataloged %d pages", len(records)),
		"records": converters.ToPageViews(records, false),
	})
}

// Pending lists records awaiting OCR.
func (h *DocumentHandler) Pending(c *gin.Context) {
	records, err := h.service.Pending(c.Request.Context())
	if err != nil {
		handleError(c, h.logger, statusFor(err), "Failed to list pending records", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"count":   len(records),
		"records": converters.ToPageViews(records, false),
	})
}

// Process runs or queues an OCR batch.
func (h *DocumentHandler) Process(c *gin.Context) {
	status, err := h.service.RequestProcessing(c.Request.Context())
	if err != nil {
		handleError(c, h.logger, statusFor(err), "Failed to process pending records", err)
		return
	}

	code := http.StatusOK
	if status.Status != queue.StatusCompleted {
		code = http.StatusAccepted
	}
	c.JSON(code, status)
}

// Status returns the latest OCR batch status.
func (h *DocumentHandler) Status(c *gin.Context) {
	status, err := h.service.ProcessingStatus(c.Request.Context())
	if err != nil {
		handleError(c, h.logger, statusFor(err), "Failed to get status", err)
		return
	}
	c.JSON(http.StatusOK, status)
}

// Preview serves a stored page artifact.
func (h *DocumentHandler) Preview(c *gin.Context) {
	name := c.Param("filename")
	if name == "" {
		handleError(c, h.logger, http.StatusBadRequest, "File name is required", nil)
		return
	}

	data, err := h.service.Preview(c.Request.Context(), name)
	if err != nil {
		handleError(c, h.logger, statusFor(err), "Failed to load preview", err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("inline; filename=%q", name))
	c.Data(http.StatusOK, mimetype.Detect(data).String(), data)
}
