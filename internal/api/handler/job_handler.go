package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/studioflow/studioflow/internal/api/dto"
	"github.com/studioflow/studioflow/internal/dispatcher"
	"github.com/studioflow/studioflow/internal/storage"
)

// CreateJob handles POST /create-job.
// Creates a job and its items, all in status created.
func (h *JobHandler) CreateJob(c *gin.Context) {
	tenantID := c.GetString("tenant_id")

	var req dto.CreateJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	inputs := make([]dispatcher.ItemInput, len(req.Items))
	for i, item := range req.Items {
		inputs[i] = dispatcher.ItemInput{Filename: item.Filename}
	}

	job, items, err := h.dispatcher.CreateJob(c.Request.Context(), tenantID, req.BrandProfileID, inputs)
	if err != nil {
		h.respondError(c, err)
		return
	}

	resp := dto.CreateJobResponse{
		JobID:         job.ID,
		CorrelationID: job.CorrelationID,
		Items:         make([]dto.ItemRef, len(items)),
	}
	for i, item := range items {
		resp.Items[i] = dto.ItemRef{ItemID: item.ID, Filename: item.Filename}
	}

	c.JSON(http.StatusCreated, resp)
}

// EnqueueJob handles POST /enqueue-job/:job_id.
// Queues one work unit per item still awaiting processing.
func (h *JobHandler) EnqueueJob(c *gin.Context) {
	tenantID := c.GetString("tenant_id")
	jobID := c.Param("job_id")

	enqueued, err := h.dispatcher.Enqueue(c.Request.Context(), tenantID, jobID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.EnqueueJobResponse{OK: true, Enqueued: enqueued})
}

// GetJob handles GET /get-job/:job_id.
// Returns the full job plus items snapshot.
func (h *JobHandler) GetJob(c *gin.Context) {
	tenantID := c.GetString("tenant_id")
	jobID := c.Param("job_id")

	job, err := h.store.GetJob(c.Request.Context(), tenantID, jobID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	items, err := h.store.ListItems(c.Request.Context(), jobID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	resp := dto.JobResponse{
		JobID:          job.ID,
		TenantID:       job.TenantID,
		BrandProfileID: job.BrandProfileID,
		Status:         job.Status,
		CorrelationID:  job.CorrelationID,
		Items:          make([]dto.JobItemDTO, len(items)),
	}
	for i, item := range items {
		resp.Items[i] = dto.JobItemDTO{
			ItemID:         item.ID,
			Filename:       item.Filename,
			Status:         item.Status,
			RawBlobPath:    item.RawBlobPath,
			OutputBlobPath: item.OutputBlobPath,
			ErrorMessage:   item.ErrorMessage,
		}
	}

	c.JSON(http.StatusOK, resp)
}

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// ListJobs handles GET /list-jobs.
// Returns the tenant's jobs newest first, with keyset cursor pagination and
// an optional status filter.
func (h *JobHandler) ListJobs(c *gin.Context) {
	tenantID := c.GetString("tenant_id")

	pageSize := defaultPageSize
	if raw := c.Query("page_size"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "page_size must be a positive integer"})
			return
		}
		if n > maxPageSize {
			n = maxPageSize
		}
		pageSize = n
	}

	cursor, err := DecodeJobCursor(c.Query("cursor"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid cursor"})
		return
	}

	jobs, err := h.store.ListJobs(c.Request.Context(), storage.JobFilter{
		TenantID: tenantID,
		Status:   c.Query("status"),
		PageSize: pageSize,
		Cursor:   cursor,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	resp := dto.ListJobsResponse{}
	if len(jobs) > pageSize {
		last := jobs[pageSize-1]
		resp.NextCursor = EncodeJobCursor(&storage.JobCursor{
			CreatedAt: last.CreatedAt,
			JobID:     last.ID,
		})
		jobs = jobs[:pageSize]
	}

	resp.Jobs = make([]dto.JobSummary, len(jobs))
	for i, job := range jobs {
		resp.Jobs[i] = dto.JobSummary{
			JobID:          job.ID,
			BrandProfileID: job.BrandProfileID,
			Status:         job.Status,
			CorrelationID:  job.CorrelationID,
			CreatedAt:      job.CreatedAt.UTC().Format(time.RFC3339),
		}
	}

	c.JSON(http.StatusOK, resp)
}

// ProcessWorker handles POST /process-job-worker.
// Runs one worker polling cycle and reports its outcome counts.
func (h *JobHandler) ProcessWorker(c *gin.Context) {
	res, err := h.worker.RunCycle(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}
