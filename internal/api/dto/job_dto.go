package dto

type ItemIn struct {
	Filename string `json:"filename" binding:"required"`
}

type CreateJobRequest struct {
	BrandProfileID string   `json:"brand_profile_id"`
	Items          []ItemIn `json:"items" binding:"required"`
}

type ItemRef struct {
	ItemID   string `json:"item_id"`
	Filename string `json:"filename"`
}

type CreateJobResponse struct {
	JobID         string    `json:"job_id"`
	CorrelationID string    `json:"correlation_id"`
	Items         []ItemRef `json:"items"`
}

type EnqueueJobResponse struct {
	OK       bool `json:"ok"`
	Enqueued int  `json:"enqueued"`
}

type JobItemDTO struct {
	ItemID         string `json:"item_id"`
	Filename       string `json:"filename"`
	Status         string `json:"status"`
	RawBlobPath    string `json:"raw_blob_path,omitempty"`
	OutputBlobPath string `json:"output_blob_path,omitempty"`
	ErrorMessage   string `json:"error_message,omitempty"`
}

type JobResponse struct {
	JobID          string       `json:"job_id"`
	TenantID       string       `json:"tenant_id"`
	BrandProfileID string       `json:"brand_profile_id"`
	Status         string       `json:"status"`
	CorrelationID  string       `json:"correlation_id"`
	Items          []JobItemDTO `json:"items"`
}

type JobSummary struct {
	JobID          string `json:"job_id"`
	BrandProfileID string `json:"brand_profile_id"`
	Status         string `json:"status"`
	CorrelationID  string `json:"correlation_id"`
	CreatedAt      string `json:"created_at"`
}

type ListJobsResponse struct {
	Jobs       []JobSummary `json:"jobs"`
	NextCursor string       `json:"next_cursor,omitempty"`
}

type UploadFileResponse struct {
	OK          bool   `json:"ok"`
	ItemID      string `json:"item_id"`
	RawBlobPath string `json:"raw_blob_path"`
}

type DownloadURLResponse struct {
	DownloadURL string `json:"download_url"`
	ExpiresIn   int    `json:"expires_in"`
	BlobPath    string `json:"blob_path"`
}
