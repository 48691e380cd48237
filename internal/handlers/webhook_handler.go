package handlers

import (
	"errors"
	"net/http"

	"github.com/borjaoskins/raffle-backend/internal/models"
	"github.com/borjaoskins/raffle-backend/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// WebhookHandler receives payment notifications from the gateway.
// Deliveries are at-least-once and possibly duplicated; except for the
// documented rejection cases the handler always acknowledges with 200 so the
// gateway does not storm the endpoint with retries.
type WebhookHandler struct {
	webhookService services.WebhookService
}

// NewWebhookHandler creates a new WebhookHandler
func NewWebhookHandler(webhookService services.WebhookService) *WebhookHandler {
	return &WebhookHandler{webhookService: webhookService}
}

// Handle handles GET and POST /payments/webhook
func (h *WebhookHandler) Handle(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		body = nil
	}

	notification := h.webhookService.ParseNotification(c.Request.URL.Query(), body)
	if notification.Empty() {
		c.JSON(http.StatusOK, gin.H{"success": true, "ignored": true})
		return
	}

	if err := h.webhookService.VerifySignature(
		c.GetHeader("x-signature"),
		c.GetHeader("x-request-id"),
		notification.PaymentID,
	); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid signature"})
		return
	}

	if notification.Kind != models.NotificationKindPayment {
		c.JSON(http.StatusOK, gin.H{"success": true, "ignored": true})
		return
	}

	err = h.webhookService.Reconcile(c.Request.Context(), notification.PaymentID)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"success": true})
	case errors.Is(err, models.ErrGatewayQueryFailed):
		// Transient: a non-2xx tells the gateway to deliver again later
		c.JSON(http.StatusBadGateway, gin.H{"error": "payment lookup failed, retry"})
	case errors.Is(err, models.ErrReconciliationMismatch):
		c.JSON(http.StatusBadRequest, gin.H{"error": "payment does not reference a known sale"})
	default:
		// Amount mismatches and internal failures are logged by the service;
		// answer neutrally so the gateway does not retry a delivery that will
		// never succeed
		logrus.WithError(err).WithField("payment_id", notification.PaymentID).
			Warn("webhook reconciliation did not mutate state")
		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}
