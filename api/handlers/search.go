package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/feichai0017/document-search/internal/service/document"
	"github.com/feichai0017/document-search/pkg/logger"
)

type SearchHandler struct {
	service document.DocumentProcessor
	logger  logger.Logger
}

type searchRequest struct {
	Term       string `json:"term" form:"term"`
	SearchTerm string `json:"search_term" form:"search_term"`
}

func NewSearchHandler(service document.DocumentProcessor, log logger.Logger) *SearchHandler {
	return &SearchHandler{
		service: service,
		logger:  log.Named("api"),
	}
}

// Search ranks catalog pages against a term given as ?term= or, on POST, as
// a search_term form field or a JSON {"term": ...} body.
func (h *SearchHandler) Search(c *gin.Context) {
	var req searchRequest
	if err := c.ShouldBind(&req); err != nil {
		handleError(c, h.logger, http.StatusBadRequest, "Invalid search request", err)
		return
	}
	term := req.Term
	if term == "" {
		term = req.SearchTerm
	}
	if term == "" {
		term = c.Query("term")
	}

	results, err := h.service.Search(c.Request.Context(), term)
	if err != nil {
		handleError(c, h.logger, statusFor(err), "Search failed", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"term":    strings.TrimSpace(term),
		"count":   len(results),
		"results": results,
	})
}
