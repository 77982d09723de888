package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gigbridge/marketplace-service/internal/services"
	"github.com/gigbridge/marketplace-service/internal/utils"
)

type CareerHandler struct {
	BaseHandler
	careerService services.CareerService
}

func NewCareerHandler(careerService services.CareerService, logger utils.Logger) *CareerHandler {
	return &CareerHandler{
		BaseHandler:   NewBaseHandler(logger),
		careerService: careerService,
	}
}

// GetGuidance answers a freelancer's career question
func (h *CareerHandler) GetGuidance(c *gin.Context) {
	var req services.CareerGuideRequest
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

	resp, err := h.careerService.GetGuidance(c.Request.Context(), &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
