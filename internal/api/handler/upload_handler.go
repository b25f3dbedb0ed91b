package handler

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/studioflow/studioflow/internal/blob"
	"github.com/studioflow/studioflow/internal/domain"
)

// UploadFile handles POST /upload-file (multipart: file, job_id, item_id).
// Stores the raw input blob and moves the item to uploaded.
func (h *JobHandler) UploadFile(c *gin.Context) {
	tenantID := c.GetString("tenant_id")
	jobID := c.PostForm("job_id")
	itemID := c.PostForm("item_id")

	fileHeader, err := c.FormFile("file")
	if err != nil || jobID == "" || itemID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file, job_id, and item_id are required"})
		return
	}

	// Ownership checks before touching storage
	if _, err := h.store.GetJob(c.Request.Context(), tenantID, jobID); err != nil {
		h.respondError(c, err)
		return
	}

	item, err := h.store.GetTenantItem(c.Request.Context(), tenantID, itemID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if item.JobID != jobID {
		h.respondError(c, domain.ErrItemNotFound)
		return
	}

	filename := fileHeader.Filename
	if filename == "" {
		filename = item.Filename
	}

	rawPath, err := blob.RawPath(tenantID, jobID, itemID, filename)
	if err != nil {
		h.respondError(c, err)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		h.respondError(c, err)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		h.respondError(c, err)
		return
	}

	contentType := fileHeader.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	if err := h.blobs.Upload(c.Request.Context(), blob.BucketRaw, rawPath, data, contentType); err != nil {
		h.respondError(c, err)
		return
	}

	if err := h.store.MarkItemUploaded(c.Request.Context(), itemID, rawPath); err != nil {
		h.respondError(c, err)
		return
	}

	h.logger.Info("Raw file uploaded",
		slog.String("job_id", jobID),
		slog.String("item_id", itemID),
		slog.String("raw_blob_path", rawPath),
		slog.Int("size", len(data)),
	)

	c.JSON(http.StatusOK, gin.H{"ok": true, "item_id": itemID, "raw_blob_path": rawPath})
}
