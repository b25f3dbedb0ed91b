package router

import (
	"github.com/gin-gonic/gin"
	"github.com/studioflow/studioflow/internal/api/handler"
	"github.com/studioflow/studioflow/internal/tenant"
)

// SetupRouter configures and returns the Gin router with all routes
func SetupRouter(deps *handler.Dependencies, resolver tenant.Resolver) *gin.Engine {
	r := gin.New()

	// Middleware
	r.Use(gin.Recovery())
	r.Use(LoggerMiddleware(deps.Logger))
	r.Use(CORSMiddleware())

	jobHandler := handler.NewJobHandler(deps)

	// Health check endpoint
	r.GET("/health", jobHandler.Health)

	// Signed blob downloads: the URL signature is the authorization
	r.GET("/blobs/:bucket/*path", jobHandler.ServeBlob)

	// Tenant-scoped API
	api := r.Group("/", TenantMiddleware(resolver, deps.Logger))
	{
		// POST /create-job - create a job with its items
		api.POST("/create-job", jobHandler.CreateJob)

		// POST /enqueue-job/:job_id - queue pending items for processing
		api.POST("/enqueue-job/:job_id", jobHandler.EnqueueJob)

		// GET /get-job/:job_id - full job + items snapshot
		api.GET("/get-job/:job_id", jobHandler.GetJob)

		// GET /list-jobs - paginated job listing for the tenant
		api.GET("/list-jobs", jobHandler.ListJobs)

		// POST /upload-file - store an item's raw input
		api.POST("/upload-file", jobHandler.UploadFile)

		// GET /get-download-url - signed URL for an item's blob
		api.GET("/get-download-url", jobHandler.GetDownloadURL)

		// POST /process-job-worker - run one worker cycle inline
		api.POST("/process-job-worker", jobHandler.ProcessWorker)
	}

	return r
}
