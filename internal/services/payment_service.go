package services

import (
	"context"
	"strings"

	"github.com/borjaoskins/raffle-backend/internal/config"
	"github.com/borjaoskins/raffle-backend/internal/models"
	"github.com/borjaoskins/raffle-backend/internal/repositories"
	"github.com/borjaoskins/raffle-backend/pkg/mercadopago"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PaymentGateway is the outbound surface of the payment processor.
// *mercadopago.Client satisfies it; tests substitute a fake.
type PaymentGateway interface {
	CreatePayment(ctx context.Context, req mercadopago.ChargeRequest) (*mercadopago.Payment, error)
	GetPayment(ctx context.Context, id string) (*mercadopago.Payment, error)
}

// PaymentService defines the interface for charge creation
type PaymentService interface {
	// CreateCharge asks the gateway for a PIX charge tied to the sale and
	// moves the sale to waiting_payment. Safe to call again for the same
	// sale: the idempotency key minted at reservation time is reused, so the
	// gateway does not create a duplicate charge.
	CreateCharge(ctx context.Context, saleID primitive.ObjectID) (*models.PixChargeResponse, error)
}

type paymentService struct {
	saleRepo   repositories.SaleRepository
	raffleRepo repositories.RaffleRepository
	gateway    PaymentGateway
	maxAmount  decimal.Decimal
}

// NewPaymentService creates a new PaymentService
func NewPaymentService(saleRepo repositories.SaleRepository, raffleRepo repositories.RaffleRepository, gateway PaymentGateway, cfg *config.Config) PaymentService {
	maxAmount, err := decimal.NewFromString(cfg.MercadoPago.MaxAmount)
	if err != nil || !maxAmount.IsPositive() {
		maxAmount = decimal.NewFromInt(10000)
	}
	return &paymentService{
		saleRepo:   saleRepo,
		raffleRepo: raffleRepo,
		gateway:    gateway,
		maxAmount:  maxAmount,
	}
}

func (s *paymentService) CreateCharge(ctx context.Context, saleID primitive.ObjectID) (*models.PixChargeResponse, error) {
	sale, err := s.saleRepo.FindByID(ctx, saleID)
	if err != nil {
		return nil, err
	}
	switch sale.PaymentStatus {
	case models.PaymentStatusPending, models.PaymentStatusWaitingPayment:
	default:
		return nil, models.ErrSaleNotPayable
	}
	if sale.BuyerEmail == "" {
		return nil, mercadopago.ErrMissingPayer
	}
	if sale.PaymentAmount.GreaterThan(s.maxAmount) {
		return nil, models.ErrAmountTooHigh
	}

	raffle, err := s.raffleRepo.FindByID(ctx, sale.RaffleID)
	if err != nil {
		return nil, err
	}

	firstName, lastName := splitName(sale.BuyerName)
	payment, err := s.gateway.CreatePayment(ctx, mercadopago.ChargeRequest{
		Amount:            sale.PaymentAmount.Decimal,
		Description:       "Rifa: " + raffle.Title,
		Payer:             mercadopago.Payer{Email: sale.BuyerEmail, FirstName: firstName, LastName: lastName},
		ExternalReference: sale.ID.Hex(),
		IdempotencyKey:    sale.IdempotencyKey,
	})
	if err != nil {
		return nil, err
	}

	if err := s.saleRepo.MarkWaitingPayment(ctx, sale.ID, payment.ID.String()); err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"sale_id":    sale.ID.Hex(),
		"payment_id": payment.ID.String(),
		"amount":     sale.PaymentAmount.String(),
	}).Info("pix charge created")

	qrCode, qrBase64, ticketURL := payment.QR()
	return &models.PixChargeResponse{
		ID:                payment.ID.String(),
		Status:            payment.Status,
		TransactionAmount: payment.TransactionAmount.String(),
		QRCode:            qrCode,
		QRCodeBase64:      qrBase64,
		TicketURL:         ticketURL,
	}, nil
}

func splitName(full string) (first, last string) {
	parts := strings.Fields(full)
	if len(parts) == 0 {
		return "", ""
	}
	return parts[0], strings.Join(parts[1:], " ")
}
