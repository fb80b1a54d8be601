package documents

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ragbot/ragbot/internal/domain"
	"github.com/ragbot/ragbot/internal/service"
)

// Handler handles document ingestion API requests
type Handler struct {
	ingestService *service.IngestService
}

// NewHandler creates a new documents handler
func NewHandler(ingestService *service.IngestService) *Handler {
	return &Handler{ingestService: ingestService}
}

// RegisterRoutes registers document routes
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/upload", h.Upload)
	r.GET("/documents", h.ListDocuments)
	r.DELETE("/index", h.ClearIndex)
}

// Upload ingests a PDF from a multipart form
func (h *Handler) Upload(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}

	src, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := h.ingestService.UploadPDF(c.Request.Context(), file.Filename, data)
	if err != nil {
		if errors.Is(err, domain.ErrUnsupportedFile) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "only PDF files are supported"})
			return
		}
		if errors.Is(err, domain.ErrEmptyDocument) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "no text could be extracted from the document"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, resp)
}

// ListDocuments returns all ingested documents, newest first
func (h *Handler) ListDocuments(c *gin.Context) {
	docs, err := h.ingestService.ListDocuments(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"documents": docs})
}

// ClearIndex drops the vector index and the document registry
func (h *Handler) ClearIndex(c *gin.Context) {
	if err := h.ingestService.Reset(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Index cleared successfully"})
}
