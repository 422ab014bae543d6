package api

import (
	"io"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"college/internal/upload"
)

func (h *handler) uploadAttachment(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "invalid_field", "error": "file field required"})
		return
	}
	defer file.Close()

	if err := upload.ValidatePDF(header.Filename, header.Size); err != nil {
		writeError(c, err)
		return
	}
	if h.Uploader == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"code": "unavailable", "error": "attachment storage not configured"})
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, upload.MaxSize+1))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"code": "internal", "error": "read file failed"})
		return
	}

	result, err := h.Uploader.UploadRaw(c.Request.Context(), data, header.Filename)
	if err != nil {
		log.Printf("cloudinary upload failed: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{"code": "upstream", "error": "attachment upload failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"url":       result.SecureURL,
		"public_id": result.PublicID,
		"bytes":     result.Bytes,
	})
}
