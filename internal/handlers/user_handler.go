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

type UserHandler struct {
	BaseHandler
	userService services.UserService
	publisher   events.EventPublisher
}

func NewUserHandler(userService services.UserService, publisher events.EventPublisher, logger utils.Logger) *UserHandler {
	return &UserHandler{
		BaseHandler: NewBaseHandler(logger),
		userService: userService,
		publisher:   publisher,
	}
}

// GetMe returns the authenticated user's own profile
func (h *UserHandler) GetMe(c *gin.Context) {
	userID, ok := h.getUserID(c)
	if !ok {
		return
	}

	user, err := h.userService.GetByID(c.Request.Context(), userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// GetUser returns a public profile
func (h *UserHandler) GetUser(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	user, err := h.userService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// UpdateProfile updates the authenticated user's profile
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	var req services.UpdateProfileRequest
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

	user, err := h.userService.UpdateProfile(c.Request.Context(), userID, &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	if h.publisher != nil {
		event := events.NewEvent(events.ProfileUpdated, gin.H{"user_id": userID})
		if err := h.publisher.Publish(c.Request.Context(), event); err != nil {
			h.logger.Error("Failed to publish event", "event_type", events.ProfileUpdated, "error", err)
		}
	}

	c.JSON(http.StatusOK, user)
}

// UpdatePortfolio replaces the authenticated freelancer's portfolio
func (h *UserHandler) UpdatePortfolio(c *gin.Context) {
	var req services.UpdatePortfolioRequest
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

	user, err := h.userService.UpdatePortfolio(c.Request.Context(), userID, &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// ListFreelancers lists freelancer profiles with optional skill filters
func (h *UserHandler) ListFreelancers(c *gin.Context) {
	role := models.RoleFreelancer
	filters := repositories.UserFilters{
		Role:   &role,
		Skills: c.QueryArray("skills"),
		Query:  c.Query("q"),
		Limit:  parseIntQuery(c, "limit", 20),
		Offset: parseIntQuery(c, "offset", 0),
	}

	users, total, err := h.userService.List(c.Request.Context(), filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"users": users,
		"total": total,
	})
}
