package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/gigbridge/marketplace-service/internal/events"
	"github.com/gigbridge/marketplace-service/internal/models"
	"github.com/gigbridge/marketplace-service/internal/repositories"
	"github.com/gigbridge/marketplace-service/internal/services"
	"github.com/gigbridge/marketplace-service/internal/utils"
)

type ProposalHandler struct {
	BaseHandler
	proposalService services.ProposalService
	publisher       events.EventPublisher
}

func NewProposalHandler(proposalService services.ProposalService, publisher events.EventPublisher, logger utils.Logger) *ProposalHandler {
	return &ProposalHandler{
		BaseHandler:     NewBaseHandler(logger),
		proposalService: proposalService,
		publisher:       publisher,
	}
}

// CreateProposal submits a freelancer's application to a job
func (h *ProposalHandler) CreateProposal(c *gin.Context) {
	var req services.CreateProposalRequest
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

	proposal, err := h.proposalService.Create(c.Request.Context(), &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.publishProposalEvent(c, events.ProposalSubmitted, proposal.Proposal, "", userID)

	c.JSON(http.StatusCreated, proposal)
}

// CreateOffer lets a business invite a freelancer to a job
func (h *ProposalHandler) CreateOffer(c *gin.Context) {
	var req services.CreateOfferRequest
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

	proposal, err := h.proposalService.CreateOffer(c.Request.Context(), &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.publishProposalEvent(c, events.OfferCreated, proposal.Proposal, "", userID)

	c.JSON(http.StatusCreated, proposal)
}

// UpdateProposalStatus applies a lifecycle transition
func (h *ProposalHandler) UpdateProposalStatus(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	var req services.UpdateProposalStatusRequest
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

	h.LogRequest(c, "Updating proposal status", "proposal_id", id, "target_status", req.Status)

	change, err := h.proposalService.UpdateStatus(c.Request.Context(), id, &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.publishProposalEvent(c, events.ProposalStatusChanged, change.Proposal, string(change.PrevStatus), userID)

	c.JSON(http.StatusOK, gin.H{
		"proposal":    change.Proposal,
		"prev_status": change.PrevStatus,
	})
}

// WithdrawProposal removes a freelancer's own pending proposal
func (h *ProposalHandler) WithdrawProposal(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	userID, ok := h.getUserID(c)
	if !ok {
		return
	}

	// Load before deletion so the event still carries the job reference
	proposal, err := h.proposalService.GetByID(c.Request.Context(), id, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	if err := h.proposalService.Withdraw(c.Request.Context(), id, userID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.publishProposalEvent(c, events.ProposalWithdrawn, proposal.Proposal, string(proposal.Status), userID)

	c.JSON(http.StatusOK, gin.H{"message": "Proposal withdrawn"})
}

// GetProposal retrieves a proposal visible to the requesting participant
func (h *ProposalHandler) GetProposal(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	userID, ok := h.getUserID(c)
	if !ok {
		return
	}

	proposal, err := h.proposalService.GetByID(c.Request.Context(), id, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, proposal)
}

// GetProposalsByJob lists proposals for a job (owner only)
func (h *ProposalHandler) GetProposalsByJob(c *gin.Context) {
	jobID := h.parseIDParam(c, "id")
	if jobID == 0 {
		return
	}

	userID, ok := h.getUserID(c)
	if !ok {
		return
	}

	filters := parseProposalFilters(c)

	proposals, err := h.proposalService.GetByJob(c.Request.Context(), jobID, filters, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, proposals)
}

// GetMyProposals lists the authenticated freelancer's proposals
func (h *ProposalHandler) GetMyProposals(c *gin.Context) {
	userID, ok := h.getUserID(c)
	if !ok {
		return
	}

	filters := parseProposalFilters(c)

	proposals, err := h.proposalService.GetByFreelancer(c.Request.Context(), userID, filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, proposals)
}

// GetMyProposalStats returns the authenticated freelancer's statistics
func (h *ProposalHandler) GetMyProposalStats(c *gin.Context) {
	userID, ok := h.getUserID(c)
	if !ok {
		return
	}

	stats, err := h.proposalService.GetFreelancerStats(c.Request.Context(), userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// publishProposalEvent publishes a lifecycle event. Publishing is best
// effort; failures are logged, never surfaced to the client.
func (h *ProposalHandler) publishProposalEvent(c *gin.Context, eventType string, proposal *models.Proposal, prevStatus string, actorID uint) {
	if h.publisher == nil {
		return
	}

	role, _ := GetUserRoleFromContext(c)
	event := events.NewEvent(eventType, events.ProposalEvent{
		ProposalID:   proposal.ID,
		JobID:        proposal.JobID,
		FreelancerID: proposal.FreelancerID,
		Status:       string(proposal.Status),
		PrevStatus:   prevStatus,
		ActorID:      actorID,
		ActorRole:    string(role),
	})

	if err := h.publisher.Publish(c.Request.Context(), event); err != nil {
		h.logger.Error("Failed to publish event", "event_type", eventType, "error", err)
	}
}

func parseProposalFilters(c *gin.Context) repositories.ProposalFilters {
	var filters repositories.ProposalFilters

	if status := c.Query("status"); status != "" {
		s := models.ProposalStatus(status)
		filters.Status = &s
	}
	filters.Limit = parseIntQuery(c, "limit", 20)
	filters.Offset = parseIntQuery(c, "offset", 0)
	filters.SortBy = c.Query("sort_by")
	filters.SortOrder = c.Query("sort_order")

	return filters
}

func parseIntQuery(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return fallback
	}
	return value
}
