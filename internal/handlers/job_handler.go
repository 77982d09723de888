package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gigbridge/marketplace-service/internal/events"
	"github.com/gigbridge/marketplace-service/internal/models"
	"github.com/gigbridge/marketplace-service/internal/repositories"
	"github.com/gigbridge/marketplace-service/internal/services"
	"github.com/gigbridge/marketplace-service/internal/utils"
)

type JobHandler struct {
	BaseHandler
	jobService services.JobService
	publisher  events.EventPublisher
}

func NewJobHandler(jobService services.JobService, publisher events.EventPublisher, logger utils.Logger) *JobHandler {
	return &JobHandler{
		BaseHandler: NewBaseHandler(logger),
		jobService:  jobService,
		publisher:   publisher,
	}
}

// CreateJob posts a new job
func (h *JobHandler) CreateJob(c *gin.Context) {
	var req services.CreateJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "bad_request",
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	userID, ok := h.getUserID(c)
	if !ok {
		return
	}

	job, err := h.jobService.Create(c.Request.Context(), &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.publishJobEvent(c, events.JobCreated, job.Job)

	c.JSON(http.StatusCreated, job)
}

// GetJob retrieves a job with viewer-specific capability flags
func (h *JobHandler) GetJob(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	// Anonymous viewers get the public representation
	userID, _ := c.Get("user_id")
	viewerID, _ := userID.(uint)

	job, err := h.jobService.GetByID(c.Request.Context(), id, viewerID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, job)
}

// UpdateJob updates an existing job (owner only)
func (h *JobHandler) UpdateJob(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	var req services.UpdateJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "bad_request",
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	userID, ok := h.getUserID(c)
	if !ok {
		return
	}

	job, err := h.jobService.Update(c.Request.Context(), id, &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.publishJobEvent(c, events.JobUpdated, job.Job)

	c.JSON(http.StatusOK, job)
}

// DeleteJob removes a job (owner only)
func (h *JobHandler) DeleteJob(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	userID, ok := h.getUserID(c)
	if !ok {
		return
	}

	if err := h.jobService.Delete(c.Request.Context(), id, userID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	if h.publisher != nil {
		event := events.NewEvent(events.JobDeleted, events.JobEvent{JobID: id, BusinessID: userID})
		if err := h.publisher.Publish(c.Request.Context(), event); err != nil {
			h.logger.Error("Failed to publish event", "event_type", events.JobDeleted, "error", err)
		}
	}

	c.JSON(http.StatusOK, gin.H{"message": "Job deleted"})
}

// ListJobs lists open jobs with filters
func (h *JobHandler) ListJobs(c *gin.Context) {
	userID, _ := c.Get("user_id")
	viewerID, _ := userID.(uint)

	filters := parseJobFilters(c)

	jobs, err := h.jobService.List(c.Request.Context(), filters, viewerID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, jobs)
}

// SearchJobs searches jobs by text query
func (h *JobHandler) SearchJobs(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "bad_request",
			Message: "Missing search query",
		})
		return
	}

	userID, _ := c.Get("user_id")
	viewerID, _ := userID.(uint)

	jobs, err := h.jobService.Search(c.Request.Context(), query, parseJobFilters(c), viewerID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, jobs)
}

// GetMyJobs lists the authenticated business's jobs
func (h *JobHandler) GetMyJobs(c *gin.Context) {
	userID, ok := h.getUserID(c)
	if !ok {
		return
	}

	jobs, err := h.jobService.GetByBusiness(c.Request.Context(), userID, parseJobFilters(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, jobs)
}

// GetJobStats returns per-job proposal statistics (owner only)
func (h *JobHandler) GetJobStats(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	userID, ok := h.getUserID(c)
	if !ok {
		return
	}

	stats, err := h.jobService.GetStats(c.Request.Context(), id, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// GetMyBusinessStats returns aggregate statistics for the business
func (h *JobHandler) GetMyBusinessStats(c *gin.Context) {
	userID, ok := h.getUserID(c)
	if !ok {
		return
	}

	stats, err := h.jobService.GetBusinessStats(c.Request.Context(), userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

func (h *JobHandler) publishJobEvent(c *gin.Context, eventType string, job *models.Job) {
	if h.publisher == nil {
		return
	}

	event := events.NewEvent(eventType, events.JobEvent{
		JobID:      job.ID,
		BusinessID: job.BusinessID,
		Title:      job.Title,
		Status:     string(job.Status),
	})

	if err := h.publisher.Publish(c.Request.Context(), event); err != nil {
		h.logger.Error("Failed to publish event", "event_type", eventType, "error", err)
	}
}

func parseJobFilters(c *gin.Context) repositories.JobFilters {
	var filters repositories.JobFilters

	if status := c.Query("status"); status != "" {
		s := models.JobStatus(status)
		filters.Status = &s
	}
	if skills := c.QueryArray("skills"); len(skills) > 0 {
		filters.Skills = skills
	}
	filters.Query = c.Query("q")
	filters.Limit = parseIntQuery(c, "limit", 20)
	filters.Offset = parseIntQuery(c, "offset", 0)
	filters.SortBy = c.Query("sort_by")
	filters.SortOrder = c.Query("sort_order")

	return filters
}
