package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/gigbridge/marketplace-service/internal/repositories"
	"github.com/gigbridge/marketplace-service/internal/services"
	"github.com/gigbridge/marketplace-service/internal/utils"
	"github.com/gigbridge/marketplace-service/internal/validator"
)

// ErrorResponse is the envelope for all error replies
type ErrorResponse struct {
	Error   string      `json:"error"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// SuccessResponse wraps successful replies that need an envelope
type SuccessResponse struct {
	Data interface{} `json:"data"`
}

// BaseHandler carries the shared logging and error translation helpers
type BaseHandler struct {
	logger utils.Logger
}

func NewBaseHandler(logger utils.Logger) BaseHandler {
	return BaseHandler{logger: logger}
}

// LogRequest logs with the request-scoped logger when the middleware
// attached one, falling back to the handler logger.
func (h *BaseHandler) LogRequest(c *gin.Context, msg string, args ...any) {
	utils.LoggerFromContext(c.Request.Context()).Info(msg, args...)
}

// parseIDParam parses a numeric path parameter. On failure it writes the
// error response itself and returns 0.
func (h *BaseHandler) parseIDParam(c *gin.Context, name string) uint {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "bad_request",
			Message: "Invalid " + name + " parameter",
		})
		return 0
	}
	return uint(id)
}

// getUserID extracts the authenticated user ID set by the auth middleware
func (h *BaseHandler) getUserID(c *gin.Context) (uint, bool) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthorized",
			Message: "User not authenticated",
		})
		return 0, false
	}

	id, ok := userID.(uint)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthorized",
			Message: "Invalid user identity in context",
		})
		return 0, false
	}

	return id, true
}

// handleServiceError translates service layer errors to HTTP responses
func (h *BaseHandler) handleServiceError(c *gin.Context, err error) {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_failed",
			Message: "Request validation failed",
			Details: validationErrs,
		})
		return
	}

	if services.IsPermissionError(err) {
		c.JSON(http.StatusForbidden, ErrorResponse{
			Error:   "forbidden",
			Message: err.Error(),
		})
		return
	}

	var transitionErr *services.TransitionError
	if errors.As(err, &transitionErr) {
		c.JSON(http.StatusConflict, ErrorResponse{
			Error:   "invalid_transition",
			Message: transitionErr.Error(),
		})
		return
	}

	switch {
	case errors.Is(err, services.ErrUserNotFound),
		errors.Is(err, services.ErrJobNotFound),
		errors.Is(err, services.ErrProposalNotFound),
		errors.Is(err, services.ErrReportNothingToExport),
		repositories.IsNotFoundError(err):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "not_found",
			Message: err.Error(),
		})

	case errors.Is(err, services.ErrProposalFinalized),
		errors.Is(err, services.ErrProposalAlreadyExists),
		errors.Is(err, services.ErrJobNotOpen),
		errors.Is(err, services.ErrNotWithdrawable):
		c.JSON(http.StatusConflict, ErrorResponse{
			Error:   "conflict",
			Message: err.Error(),
		})

	case errors.Is(err, services.ErrPaymentInvalidSignature):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_signature",
			Message: err.Error(),
		})

	case errors.Is(err, services.ErrPaymentNotConfigured),
		errors.Is(err, services.ErrOracleUnavailable):
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{
			Error:   "service_unavailable",
			Message: err.Error(),
		})

	default:
		h.logger.Error("Unhandled service error", "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "An unexpected error occurred",
		})
	}
}
