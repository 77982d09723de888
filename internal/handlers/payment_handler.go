package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gigbridge/marketplace-service/internal/events"
	"github.com/gigbridge/marketplace-service/internal/services"
	"github.com/gigbridge/marketplace-service/internal/utils"
)

type PaymentHandler struct {
	BaseHandler
	paymentService services.PaymentService
	publisher      events.EventPublisher
}

func NewPaymentHandler(paymentService services.PaymentService, publisher events.EventPublisher, logger utils.Logger) *PaymentHandler {
	return &PaymentHandler{
		BaseHandler:    NewBaseHandler(logger),
		paymentService: paymentService,
		publisher:      publisher,
	}
}

// CreateOrder creates a provider payment order
func (h *PaymentHandler) CreateOrder(c *gin.Context) {
	var req services.CreatePaymentOrderRequest
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

	order, err := h.paymentService.CreateOrder(c.Request.Context(), &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, order)
}

// VerifyPayment checks the provider signature for a completed payment
func (h *PaymentHandler) VerifyPayment(c *gin.Context) {
	var req services.VerifyPaymentRequest
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

	result, err := h.paymentService.VerifyPayment(c.Request.Context(), &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	if h.publisher != nil {
		event := events.NewEvent(events.PaymentVerified, events.PaymentEvent{
			OrderID:   result.OrderID,
			PaymentID: result.PaymentID,
			UserID:    userID,
		})
		if err := h.publisher.Publish(c.Request.Context(), event); err != nil {
			h.logger.Error("Failed to publish event", "event_type", events.PaymentVerified, "error", err)
		}
	}

	c.JSON(http.StatusOK, result)
}
