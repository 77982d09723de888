package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gigbridge/marketplace-service/internal/services"
	"github.com/gigbridge/marketplace-service/internal/utils"
)

type MatchingHandler struct {
	BaseHandler
	matchingService services.MatchingService
}

func NewMatchingHandler(matchingService services.MatchingService, logger utils.Logger) *MatchingHandler {
	return &MatchingHandler{
		BaseHandler:     NewBaseHandler(logger),
		matchingService: matchingService,
	}
}

// ScoreMatch scores one freelancer against one job
func (h *MatchingHandler) ScoreMatch(c *gin.Context) {
	jobID := h.parseIDParam(c, "job_id")
	if jobID == 0 {
		return
	}
	freelancerID := h.parseIDParam(c, "freelancer_id")
	if freelancerID == 0 {
		return
	}

	if _, ok := h.getUserID(c); !ok {
		return
	}

	assessment, err := h.matchingService.ScoreMatch(c.Request.Context(), jobID, freelancerID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, assessment)
}

// RankCandidates returns the top freelancer matches for a job (owner only)
func (h *MatchingHandler) RankCandidates(c *gin.Context) {
	jobID := h.parseIDParam(c, "job_id")
	if jobID == 0 {
		return
	}

	userID, ok := h.getUserID(c)
	if !ok {
		return
	}

	limit := parseIntQuery(c, "limit", services.DefaultRankLimit)

	h.LogRequest(c, "Ranking candidates", "job_id", jobID, "limit", limit)

	results, err := h.matchingService.RankCandidates(c.Request.Context(), jobID, limit, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"job_id":  jobID,
		"matches": results,
	})
}
