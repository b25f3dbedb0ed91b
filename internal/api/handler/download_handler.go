package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/studioflow/studioflow/internal/api/dto"
	"github.com/studioflow/studioflow/internal/blob"
)

// downloadURLTTL is the lifetime of a signed download URL
const downloadURLTTL = time.Hour

// GetDownloadURL handles GET /get-download-url?item_id=&bucket=.
// Returns a signed, time-limited URL for the item's raw or output blob.
func (h *JobHandler) GetDownloadURL(c *gin.Context) {
	tenantID := c.GetString("tenant_id")

	itemID := c.Query("item_id")
	if itemID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "item_id parameter is required"})
		return
	}

	bucket := c.DefaultQuery("bucket", blob.BucketOutputs)
	if bucket != blob.BucketRaw && bucket != blob.BucketOutputs {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid bucket, must be raw or outputs"})
		return
	}

	item, err := h.store.GetTenantItem(c.Request.Context(), tenantID, itemID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	blobPath := item.OutputBlobPath
	if bucket == blob.BucketRaw {
		blobPath = item.RawBlobPath
	}
	if blobPath == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "file not found for this item"})
		return
	}

	url, err := h.blobs.SignedDownloadURL(bucket, blobPath, downloadURLTTL)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.DownloadURLResponse{
		DownloadURL: url,
		ExpiresIn:   int(downloadURLTTL.Seconds()),
		BlobPath:    blobPath,
	})
}

// ServeBlob handles GET /blobs/:bucket/*path for signed download URLs. The
// HMAC signature is the authorization; no tenant resolution happens here.
func (h *JobHandler) ServeBlob(c *gin.Context) {
	bucket := c.Param("bucket")
	path := strings.TrimPrefix(c.Param("path"), "/")

	expires, err := strconv.ParseInt(c.Query("expires"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid expires parameter"})
		return
	}

	if !h.blobs.VerifySignature(bucket, path, expires, c.Query("sig")) {
		c.JSON(http.StatusForbidden, gin.H{"error": "invalid or expired signature"})
		return
	}

	data, err := h.blobs.Download(c.Request.Context(), bucket, path)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "blob not found"})
		return
	}

	c.Data(http.StatusOK, "application/octet-stream", data)
}
