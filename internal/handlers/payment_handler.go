package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/openlearn/lms-service/internal/services"
	"github.com/openlearn/lms-service/internal/utils"
)

type PaymentHandler struct {
	BaseHandler
	paymentService services.PaymentService
}

func NewPaymentHandler(paymentService services.PaymentService, logger utils.Logger) *PaymentHandler {
	return &PaymentHandler{
		BaseHandler:    NewBaseHandler(logger),
		paymentService: paymentService,
	}
}

// Checkout opens a payment order for a paid course
func (h *PaymentHandler) Checkout(c *gin.Context) {
	var req services.CheckoutRequest
	if !h.bindJSON(c, &req) {
		return
	}

	resp, err := h.paymentService.Checkout(c.Request.Context(), &req, OptionalUserFromContext(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// Verify checks the gateway callback signature and finalizes the enrollment
func (h *PaymentHandler) Verify(c *gin.Context) {
	var req services.VerifyPaymentRequest
	if !h.bindJSON(c, &req) {
		return
	}

	resp, err := h.paymentService.Verify(c.Request.Context(), &req, OptionalUserFromContext(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// GetKey exposes the public gateway key for the checkout widget
func (h *PaymentHandler) GetKey(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"key_id": h.paymentService.KeyID()})
}
