package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/borjaoskins/raffle-backend/internal/config"
	"github.com/borjaoskins/raffle-backend/internal/models"
	"github.com/borjaoskins/raffle-backend/internal/repositories"
	"github.com/borjaoskins/raffle-backend/pkg/mercadopago"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// WebhookService verifies and reconciles payment notifications
type WebhookService interface {
	// ParseNotification normalizes the accepted wire shapes (query form and
	// JSON body form) into one structure. Unparseable payloads come back
	// empty, never as an error: the gateway must not be told to retry them.
	ParseNotification(query url.Values, body []byte) models.Notification
	// VerifySignature checks the x-signature header when a secret is
	// configured. A missing secret means verification is skipped.
	VerifySignature(signatureHeader, requestID, dataID string) error
	// Reconcile fetches the payment record and, if genuinely approved,
	// transitions the matching sale exactly once. Only a wrapped
	// models.ErrGatewayQueryFailed signals the caller to answer with a
	// retryable status; every other outcome is final.
	Reconcile(ctx context.Context, paymentID string) error
}

type webhookService struct {
	saleRepo repositories.SaleRepository
	gateway  PaymentGateway
	secret   string
}

// NewWebhookService creates a new WebhookService
func NewWebhookService(saleRepo repositories.SaleRepository, gateway PaymentGateway, cfg *config.Config) WebhookService {
	if cfg.MercadoPago.WebhookSecret == "" {
		logrus.Warn("webhook signature verification disabled: no secret configured")
	}
	return &webhookService{
		saleRepo: saleRepo,
		gateway:  gateway,
		secret:   cfg.MercadoPago.WebhookSecret,
	}
}

// flexID accepts a payment id sent either as a JSON string or a number
type flexID string

func (f *flexID) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*f = flexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err == nil {
		*f = flexID(n.String())
		return nil
	}
	// Unrecognized id shapes are ignored rather than failing the delivery
	return nil
}

type webhookBody struct {
	Type   string `json:"type"`
	Action string `json:"action"`
	Topic  string `json:"topic"`
	ID     flexID `json:"id"`
	Data   struct {
		ID flexID `json:"id"`
	} `json:"data"`
}

func (s *webhookService) ParseNotification(query url.Values, body []byte) models.Notification {
	// Query form: ?type=payment&data.id=123 (also topic/id in the older IPN style)
	if id := firstNonEmpty(query.Get("data.id"), query.Get("id")); id != "" {
		return models.Notification{
			PaymentID: id,
			Kind:      classifyKind(query.Get("type"), query.Get("action"), query.Get("topic")),
		}
	}

	if len(body) == 0 {
		return models.Notification{}
	}
	var parsed webhookBody
	if err := json.Unmarshal(body, &parsed); err != nil {
		return models.Notification{}
	}
	id := firstNonEmpty(string(parsed.Data.ID), string(parsed.ID))
	if id == "" {
		return models.Notification{}
	}
	return models.Notification{
		PaymentID: id,
		Kind:      classifyKind(parsed.Type, parsed.Action, parsed.Topic),
	}
}

func classifyKind(typ, action, topic string) models.NotificationKind {
	if typ == "payment" || topic == "payment" || strings.HasPrefix(action, "payment.") {
		return models.NotificationKindPayment
	}
	if typ == "" && action == "" && topic == "" {
		// Bare {data:{id}} deliveries are payment notifications in practice
		return models.NotificationKindPayment
	}
	return models.NotificationKindOther
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func (s *webhookService) VerifySignature(signatureHeader, requestID, dataID string) error {
	if s.secret == "" || signatureHeader == "" {
		// Verification skipped: accepted configuration gap, not a failure
		return nil
	}
	if err := mercadopago.VerifySignature(s.secret, signatureHeader, requestID, dataID); err != nil {
		return fmt.Errorf("%w: %v", models.ErrInvalidSignature, err)
	}
	return nil
}

func (s *webhookService) Reconcile(ctx context.Context, paymentID string) error {
	log := logrus.WithField("payment_id", paymentID)

	payment, err := s.gateway.GetPayment(ctx, paymentID)
	if err != nil {
		// No local state was touched; surface as retryable
		return fmt.Errorf("%w: %v", models.ErrGatewayQueryFailed, err)
	}

	if payment.Status != mercadopago.StatusApproved {
		// The gateway re-notifies on status change, nothing to do yet
		log.WithField("status", payment.Status).Info("payment not approved, ignoring")
		return nil
	}

	if payment.ExternalReference == "" {
		log.Warn("approved payment without external reference")
		return models.ErrReconciliationMismatch
	}
	saleID, err := primitive.ObjectIDFromHex(payment.ExternalReference)
	if err != nil {
		log.WithField("external_reference", payment.ExternalReference).
			Warn("approved payment with malformed external reference")
		return models.ErrReconciliationMismatch
	}

	sale, err := s.saleRepo.FindByID(ctx, saleID)
	if err != nil {
		if errors.Is(err, models.ErrSaleNotFound) {
			log.WithField("sale_id", saleID.Hex()).Warn("approved payment references unknown sale")
			return models.ErrReconciliationMismatch
		}
		// Store trouble, not a bad reference; nothing was mutated
		return fmt.Errorf("load sale %s: %w", saleID.Hex(), err)
	}

	if !payment.TransactionAmount.Equal(sale.PaymentAmount.Decimal) {
		log.WithFields(logrus.Fields{
			"sale_id":     sale.ID.Hex(),
			"paid":        payment.TransactionAmount.String(),
			"expected":    sale.PaymentAmount.String(),
			"sale_status": string(sale.PaymentStatus),
		}).Warn("paid amount does not match sale amount")
		return models.ErrAmountMismatch
	}

	transitioned, err := s.saleRepo.MarkApproved(ctx, sale.ID, paymentID, time.Now())
	if err != nil {
		return err
	}
	if !transitioned {
		current, err := s.saleRepo.FindByID(ctx, sale.ID)
		if err != nil {
			return err
		}
		switch current.PaymentStatus {
		case models.PaymentStatusApproved, "paid":
			// Duplicate delivery, already reconciled
			log.WithField("sale_id", sale.ID.Hex()).Info("payment already reconciled")
			return nil
		default:
			// Approved money arrived for a sale the expiry job already
			// released. The numbers may have been resold; granting them now
			// could double-sell, so this is flagged for manual follow-up.
			log.WithFields(logrus.Fields{
				"sale_id":     sale.ID.Hex(),
				"sale_status": string(current.PaymentStatus),
			}).Error("approved payment for a released sale, manual reconciliation required")
			return nil
		}
	}

	log.WithFields(logrus.Fields{
		"sale_id":   sale.ID.Hex(),
		"raffle_id": sale.RaffleID.Hex(),
		"amount":    sale.PaymentAmount.String(),
	}).Info("sale approved")
	return nil
}
