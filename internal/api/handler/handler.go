package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/studioflow/studioflow/internal/blob"
	"github.com/studioflow/studioflow/internal/dispatcher"
	"github.com/studioflow/studioflow/internal/domain"
	"github.com/studioflow/studioflow/internal/storage"
	"github.com/studioflow/studioflow/internal/worker"
	"github.com/studioflow/studioflow/shared/postgresql"
)

// Dependencies holds all dependencies needed by handlers
type Dependencies struct {
	Logger     *slog.Logger
	Store      *storage.Storage
	Blobs      *blob.FSStore
	Dispatcher *dispatcher.Dispatcher
	Worker     *worker.Worker
	DB         *postgresql.Client // optional, enables the DB health probe
}

// JobHandler handles job-related HTTP requests
type JobHandler struct {
	logger     *slog.Logger
	store      *storage.Storage
	blobs      *blob.FSStore
	dispatcher *dispatcher.Dispatcher
	worker     *worker.Worker
	db         *postgresql.Client
}

// NewJobHandler creates a new JobHandler instance
func NewJobHandler(deps *Dependencies) *JobHandler {
	return &JobHandler{
		logger:     deps.Logger,
		store:      deps.Store,
		blobs:      deps.Blobs,
		dispatcher: deps.Dispatcher,
		worker:     deps.Worker,
		db:         deps.DB,
	}
}

// Health handles GET /health. Reports unhealthy when the database probe
// fails.
func (h *JobHandler) Health(c *gin.Context) {
	if h.db != nil {
		if err := h.db.HealthCheck(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "unhealthy",
				"error":  "database unreachable",
			})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "studioflow-api",
	})
}

// respondError maps core errors to structured HTTP responses: validation
// errors to 400, missing entities (including tenant mismatches) to 404,
// everything else to an opaque 500.
func (h *JobHandler) respondError(c *gin.Context, err error) {
	switch {
	case domain.IsValidation(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrJobNotFound), errors.Is(err, domain.ErrItemNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		h.logger.Error("Request failed",
			slog.String("path", c.Request.URL.Path),
			slog.String("error", err.Error()),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
