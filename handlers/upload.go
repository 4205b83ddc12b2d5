package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"webcraft-agency/models"
)

const defaultMaxFileSize = 10 << 20 // 10MB

var allowedMimeTypes = map[string]bool{
	"image/jpeg":         true,
	"image/png":          true,
	"image/gif":          true,
	"image/svg+xml":      true,
	"image/webp":         true,
	"application/pdf":    true,
	"application/msword": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
	"application/vnd.ms-excel": true,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": true,
}

type UploadHandler struct {
	repo      models.Repository
	uploadDir string
	maxSize   int64
}

func NewUploadHandler(repo models.Repository) *UploadHandler {
	dir := os.Getenv("UPLOAD_DIR")
	if dir == "" {
		dir = "./uploads"
	}
	maxSize := int64(defaultMaxFileSize)
	if v, err := strconv.ParseInt(os.Getenv("MAX_FILE_SIZE"), 10, 64); err == nil && v > 0 {
		maxSize = v
	}
	return &UploadHandler{
		repo:      repo,
		uploadDir: dir,
		maxSize:   maxSize,
	}
}

// Upload stores one multipart file under a randomized name and records
// its metadata, optionally linked to an intake form.
func (h *UploadHandler) Upload(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no file provided"})
		return
	}

	if file.Size > h.maxSize {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": fmt.Sprintf("file size exceeds %dMB limit", h.maxSize/(1<<20)),
		})
		return
	}

	mimeType := file.Header.Get("Content-Type")
	if !allowedMimeTypes[mimeType] {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file type not allowed"})
		return
	}

	if err := os.MkdirAll(h.uploadDir, 0o755); err != nil {
		c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to upload file"})
		return
	}

	filename := uuid.NewString() + filepath.Ext(file.Filename)
	dst := filepath.Join(h.uploadDir, filename)
	if err := c.SaveUploadedFile(file, dst); err != nil {
		c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to upload file"})
		return
	}

	record := &models.UploadedFile{
		Filename:     filename,
		OriginalName: file.Filename,
		MimeType:     mimeType,
		Size:         file.Size,
		Path:         dst,
		URL:          "/uploads/" + filename,
		FileType:     c.PostForm("fileType"),
	}
	if record.FileType == "" {
		record.FileType = "general"
	}
	if v, err := strconv.ParseUint(c.PostForm("intakeFormId"), 10, 64); err == nil {
		id := uint(v)
		record.IntakeFormID = &id
	}

	if err := h.repo.CreateUploadedFile(record); err != nil {
		c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to upload file"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"id":           record.ID,
		"filename":     record.Filename,
		"originalName": record.OriginalName,
		"url":          record.URL,
		"size":         record.Size,
		"mimeType":     record.MimeType,
	})
}

// Delete removes the metadata record only; the bytes stay on disk for a
// separate cleanup job.
func (h *UploadHandler) Delete(c *gin.Context) {
	id, err := strconv.ParseUint(c.Query("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file ID required"})
		return
	}

	if err := h.repo.DeleteUploadedFile(uint(id)); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "file not found"})
			return
		}
		c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete file"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "file deleted"})
}
