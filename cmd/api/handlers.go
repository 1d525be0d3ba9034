package main

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/videokit/bgremove/pkg/models"
)

const statusTTL = 24 * time.Hour

// resultStore reads persisted job results.
type resultStore interface {
	Health(ctx context.Context) error
	GetResult(ctx context.Context, jobID string) (*models.ProcessingResult, error)
	ListResults(ctx context.Context, limit int) ([]*models.ProcessingResult, error)
}

// jobQueue publishes jobs for the workers.
type jobQueue interface {
	PublishJob(ctx context.Context, job *models.VideoJob) error
	GetQueueDepth() (int, error)
}

// statusCache serves hot job state without a database round trip.
type statusCache interface {
	SetJobStatus(ctx context.Context, jobID, status string, ttl time.Duration) error
	GetJobStatus(ctx context.Context, jobID string) (string, error)
	GetJobProgress(ctx context.Context, jobID string) (string, error)
	GetResult(ctx context.Context, jobID string) (*models.ProcessingResult, error)
}

// objectStore exposes rendered outputs to clients.
type objectStore interface {
	List(ctx context.Context, prefix string) ([]string, error)
	GetURL(ctx context.Context, objectName string) (string, error)
}

// API holds handler dependencies
type API struct {
	repo    resultStore
	queue   jobQueue
	cache   statusCache
	storage objectStore
}

type createJobRequest struct {
	InputVideo string `json:"input_video" binding:"required"`
	Model      string `json:"model"`
	MaxFrames  int    `json:"max_frames"`
	CreateWebM *bool  `json:"create_webm"`
}

// createJob validates the request and hands the job to a worker via
// the queue.
func (api *API) createJob(c *gin.Context) {
	var req createJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.Model == "" {
		req.Model = "u2net"
	}
	if err := models.ValidateModel(req.Model); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.MaxFrames < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "max_frames must not be negative"})
		return
	}

	createWebM := true
	if req.CreateWebM != nil {
		createWebM = *req.CreateWebM
	}

	job := models.NewVideoJob(req.InputVideo, "", models.JobConfig{
		Model:      req.Model,
		MaxFrames:  req.MaxFrames,
		CreateWebM: createWebM,
	})

	if err := api.queue.PublishJob(c.Request.Context(), job); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to queue job"})
		return
	}

	// Best effort; status is re-set by the worker as it progresses.
	_ = api.cache.SetJobStatus(c.Request.Context(), job.ID, models.JobStatusPending, statusTTL)

	c.JSON(http.StatusCreated, gin.H{
		"job_id":      job.ID,
		"input_video": job.InputPath,
		"model":       job.Config.Model,
		"status":      models.JobStatusPending,
	})
}

// getJob answers status queries from the cache first and falls back to
// the database for finished jobs.
func (api *API) getJob(c *gin.Context) {
	jobID := c.Param("id")
	ctx := c.Request.Context()

	status, err := api.cache.GetJobStatus(ctx, jobID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	resp := gin.H{"job_id": jobID}
	if status != "" {
		resp["status"] = status
	}

	if progress, err := api.cache.GetJobProgress(ctx, jobID); err == nil && progress != "" {
		resp["progress"] = progress
	}

	if status == models.JobStatusCompleted || status == models.JobStatusFailed || status == "" {
		result, err := api.lookupResult(ctx, jobID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if result != nil {
			resp["result"] = result
			if status == "" {
				resp["status"] = result.Status
			}
		} else if status == "" {
			c.JSON(http.StatusNotFound, gin.H{"error": "Job not found"})
			return
		}
	}

	c.JSON(http.StatusOK, resp)
}

func (api *API) lookupResult(ctx context.Context, jobID string) (*models.ProcessingResult, error) {
	if result, err := api.cache.GetResult(ctx, jobID); err == nil && result != nil {
		return result, nil
	}
	return api.repo.GetResult(ctx, jobID)
}

// listResults returns the most recent job results
func (api *API) listResults(c *gin.Context) {
	limit := 20
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > 200 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be between 1 and 200"})
			return
		}
		limit = parsed
	}

	results, err := api.repo.ListResults(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if results == nil {
		results = []*models.ProcessingResult{}
	}

	c.JSON(http.StatusOK, gin.H{
		"results": results,
		"limit":   limit,
	})
}

// getJobOutputs lists the rendered artifacts of a job with presigned
// download URLs.
func (api *API) getJobOutputs(c *gin.Context) {
	jobID := c.Param("id")
	ctx := c.Request.Context()

	objects, err := api.storage.List(ctx, "results/"+jobID+"/")
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if len(objects) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "No outputs for job"})
		return
	}

	outputs := make([]gin.H, 0, len(objects))
	for _, obj := range objects {
		url, err := api.storage.GetURL(ctx, obj)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		outputs = append(outputs, gin.H{"object": obj, "url": url})
	}

	c.JSON(http.StatusOK, gin.H{"job_id": jobID, "outputs": outputs})
}

// healthCheck reports database reachability and queue depth
func (api *API) healthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := api.repo.Health(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "unhealthy",
			"error":  err.Error(),
		})
		return
	}

	resp := gin.H{"status": "healthy"}
	if depth, err := api.queue.GetQueueDepth(); err == nil {
		resp["queue_depth"] = depth
	}

	c.JSON(http.StatusOK, resp)
}
