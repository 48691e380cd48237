package handlers

import (
	"errors"
	"net/http"

	"github.com/borjaoskins/raffle-backend/internal/models"
	"github.com/borjaoskins/raffle-backend/internal/services"
	"github.com/borjaoskins/raffle-backend/pkg/mercadopago"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PaymentHandler handles PIX charge creation
type PaymentHandler struct {
	paymentService services.PaymentService
}

// NewPaymentHandler creates a new PaymentHandler
func NewPaymentHandler(paymentService services.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService}
}

// CreateCharge handles POST /sales/:id/pix
func (h *PaymentHandler) CreateCharge(c *gin.Context) {
	saleID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid sale ID format"})
		return
	}

	charge, err := h.paymentService.CreateCharge(c.Request.Context(), saleID)
	if err != nil {
		var apiErr *mercadopago.APIError
		switch {
		case errors.Is(err, models.ErrSaleNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Sale not found"})
		case errors.Is(err, models.ErrSaleNotPayable):
			c.JSON(http.StatusConflict, gin.H{"error": "Sale is not awaiting payment"})
		case errors.Is(err, mercadopago.ErrInvalidAmount),
			errors.Is(err, mercadopago.ErrMissingPayer),
			errors.Is(err, models.ErrAmountTooHigh):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.As(err, &apiErr):
			c.JSON(http.StatusBadGateway, gin.H{
				"error":   "Payment creation failed",
				"message": apiErr.Message,
				"details": gin.H{"status": apiErr.StatusCode, "code": apiErr.Code},
			})
		case errors.Is(err, mercadopago.ErrUnavailable):
			// Retryable: the same idempotency key is reused, so the client
			// can safely try again without risking a duplicate charge
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Payment gateway unavailable, try again"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Payment creation failed"})
		}
		return
	}
	c.JSON(http.StatusOK, charge)
}
