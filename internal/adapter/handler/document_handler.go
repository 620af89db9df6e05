package handler

import (
	"errors"
	"fmt"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/zots0127/onefile/internal/domain/repository"
	"github.com/zots0127/onefile/internal/usecase"
	"github.com/zots0127/onefile/pkg/attachment"
	"github.com/zots0127/onefile/pkg/storage"
	"go.uber.org/zap"
)

const defaultPageSize = 50

// DocumentHandler serves documents and their attached file
type DocumentHandler struct {
	documents *usecase.DocumentUseCase
	logger    *zap.Logger
}

// NewDocumentHandler creates a new document handler
func NewDocumentHandler(documents *usecase.DocumentUseCase, logger *zap.Logger) *DocumentHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DocumentHandler{
		documents: documents,
		logger:    logger,
	}
}

// RegisterRoutes registers document routes under /api/documents. Handlers in
// upload run before the file upload route only.
func (h *DocumentHandler) RegisterRoutes(router gin.IRouter, upload ...gin.HandlerFunc) {
	api := router.Group("/api/documents")

	api.POST("", h.create)
	api.GET("", h.list)
	api.GET("/:id", h.get)
	api.DELETE("/:id", h.delete)

	api.PUT("/:id/file", append(upload, h.attachFile)...)
	api.GET("/:id/file", h.downloadFile)
	api.DELETE("/:id/file", h.detachFile)
}

type createDocumentRequest struct {
	Title string `json:"title" binding:"required"`
}

func (h *DocumentHandler) create(c *gin.Context) {
	var req createDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	view, err := h.documents.Create(c.Request.Context(), req.Title)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, view)
}

func (h *DocumentHandler) list(c *gin.Context) {
	limit, err := queryInt(c, "limit", defaultPageSize)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	offset, err := queryInt(c, "offset", 0)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	views, err := h.documents.List(c.Request.Context(), limit, offset)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"documents": views,
		"limit":     limit,
		"offset":    offset,
	})
}

func (h *DocumentHandler) get(c *gin.Context) {
	id, ok := documentID(c)
	if !ok {
		return
	}

	view, err := h.documents.Get(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *DocumentHandler) delete(c *gin.Context) {
	id, ok := documentID(c)
	if !ok {
		return
	}

	if err := h.documents.Delete(c.Request.Context(), id); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *DocumentHandler) attachFile(c *gin.Context) {
	id, ok := documentID(c)
	if !ok {
		return
	}

	header, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file too large"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "no file provided"})
		return
	}

	view, err := h.documents.AttachFile(c.Request.Context(), id, attachment.NewUploadedFile(header))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *DocumentHandler) downloadFile(c *gin.Context) {
	id, ok := documentID(c)
	if !ok {
		return
	}

	name, data, err := h.documents.DownloadFile(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}

	contentType := mime.TypeByExtension(filepath.Ext(name))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	c.Data(http.StatusOK, contentType, data)
}

func (h *DocumentHandler) detachFile(c *gin.Context) {
	id, ok := documentID(c)
	if !ok {
		return
	}

	view, err := h.documents.DetachFile(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *DocumentHandler) fail(c *gin.Context, err error) {
	status := errorStatus(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("document request failed",
			zap.String("path", c.FullPath()),
			zap.Error(err))
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func errorStatus(err error) int {
	switch {
	case errors.Is(err, repository.ErrRecordNotFound),
		errors.Is(err, usecase.ErrNoFile),
		errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, attachment.ErrInvalidFileName):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func documentID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid document id"})
		return 0, false
	}
	return id, true
}

func queryInt(c *gin.Context, key string, def int) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, raw)
	}
	return n, nil
}
