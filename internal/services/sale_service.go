package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/borjaoskins/raffle-backend/internal/config"
	"github.com/borjaoskins/raffle-backend/internal/models"
	"github.com/borjaoskins/raffle-backend/internal/repositories"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SaleService defines the interface for purchase operations
type SaleService interface {
	// CreateSale reserves the requested numbers and records a pending sale.
	// Fails with *models.NumbersUnavailableError when any number is already
	// held by an in-flight or confirmed sale; no partial state survives a
	// failed reservation.
	CreateSale(ctx context.Context, raffleID primitive.ObjectID, req *models.CreateSaleRequest) (*models.Sale, error)
	GetSale(ctx context.Context, id primitive.ObjectID) (*models.Sale, error)
	SalesByRaffle(ctx context.Context, raffleID primitive.ObjectID) ([]*models.Sale, error)
	TakenNumbers(ctx context.Context, raffleID primitive.ObjectID) ([]int, error)
	// ReleaseExpired expires stale unpaid sales and frees their numbers,
	// returning how many sales were released. Invoked by the cron scheduler.
	ReleaseExpired(ctx context.Context) (int, error)
}

type saleService struct {
	raffleRepo repositories.RaffleRepository
	saleRepo   repositories.SaleRepository
	allocRepo  repositories.AllocationRepository
	cfg        *config.Config
}

// NewSaleService creates a new SaleService
func NewSaleService(raffleRepo repositories.RaffleRepository, saleRepo repositories.SaleRepository, allocRepo repositories.AllocationRepository, cfg *config.Config) SaleService {
	return &saleService{
		raffleRepo: raffleRepo,
		saleRepo:   saleRepo,
		allocRepo:  allocRepo,
		cfg:        cfg,
	}
}

func (s *saleService) CreateSale(ctx context.Context, raffleID primitive.ObjectID, req *models.CreateSaleRequest) (*models.Sale, error) {
	raffle, err := s.raffleRepo.FindByID(ctx, raffleID)
	if err != nil {
		return nil, err
	}
	if !raffle.Active || raffle.Archived {
		return nil, models.ErrRaffleInactive
	}

	numbers := dedupe(req.Numbers)
	if len(numbers) == 0 {
		return nil, models.ErrNoNumbers
	}
	for _, n := range numbers {
		if n < 1 || n > raffle.TotalNumbers {
			return nil, fmt.Errorf("%w: %d not in [1, %d]", models.ErrNumberOutOfRange, n, raffle.TotalNumbers)
		}
	}

	// The sale id is minted first so the allocations can reference it before
	// the sale row exists. Allocations go in first: if any number collides,
	// nothing has been written to raffle_sales yet.
	saleID := primitive.NewObjectID()
	allocations := make([]*models.NumberAllocation, len(numbers))
	for i, n := range numbers {
		allocations[i] = &models.NumberAllocation{
			RaffleID: raffleID,
			Number:   n,
			SaleID:   saleID,
		}
	}

	if err := s.allocRepo.Reserve(ctx, allocations); err != nil {
		if errors.Is(err, repositories.ErrNumberTaken) {
			conflicts, lookupErr := s.allocRepo.FindTaken(ctx, raffleID, numbers)
			if lookupErr != nil || len(conflicts) == 0 {
				conflicts = numbers
			}
			return nil, &models.NumbersUnavailableError{Numbers: conflicts}
		}
		return nil, err
	}

	amount := raffle.PricePerNum.Mul(decimal.NewFromInt(int64(len(numbers))))
	sale := &models.Sale{
		ID:             saleID,
		RaffleID:       raffleID,
		UserID:         req.UserID,
		BuyerName:      req.BuyerName,
		BuyerPhone:     req.BuyerPhone,
		BuyerEmail:     req.BuyerEmail,
		Numbers:        numbers,
		PaymentAmount:  models.NewMoney(amount),
		PaymentStatus:  models.PaymentStatusPending,
		IdempotencyKey: uuid.NewString(),
	}

	if err := s.saleRepo.Create(ctx, sale); err != nil {
		// Free the numbers again so the failed attempt holds nothing
		if relErr := s.allocRepo.ReleaseBySale(ctx, saleID); relErr != nil {
			logrus.WithError(relErr).WithField("sale_id", saleID.Hex()).
				Error("failed to release allocations after sale insert failure")
		}
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"sale_id":   sale.ID.Hex(),
		"raffle_id": raffleID.Hex(),
		"numbers":   numbers,
		"amount":    sale.PaymentAmount.String(),
	}).Info("sale reserved")

	return sale, nil
}

func (s *saleService) GetSale(ctx context.Context, id primitive.ObjectID) (*models.Sale, error) {
	return s.saleRepo.FindByID(ctx, id)
}

func (s *saleService) SalesByRaffle(ctx context.Context, raffleID primitive.ObjectID) ([]*models.Sale, error) {
	return s.saleRepo.FindByRaffle(ctx, raffleID)
}

func (s *saleService) TakenNumbers(ctx context.Context, raffleID primitive.ObjectID) ([]int, error) {
	return s.allocRepo.TakenNumbers(ctx, raffleID)
}

func (s *saleService) ReleaseExpired(ctx context.Context) (int, error) {
	released := 0

	cutoffs := []struct {
		status models.PaymentStatus
		ttl    time.Duration
	}{
		{models.PaymentStatusPending, s.cfg.Sales.PendingTTL()},
		{models.PaymentStatusWaitingPayment, s.cfg.Sales.WaitingTTL()},
	}

	for _, c := range cutoffs {
		stale, err := s.saleRepo.FindStale(ctx, c.status, time.Now().Add(-c.ttl))
		if err != nil {
			return released, err
		}
		for _, sale := range stale {
			flipped, err := s.saleRepo.MarkExpired(ctx, sale.ID)
			if err != nil {
				return released, err
			}
			if !flipped {
				// A webhook approved it between the query and the update
				continue
			}
			if err := s.allocRepo.ReleaseBySale(ctx, sale.ID); err != nil {
				return released, err
			}
			released++
			logrus.WithFields(logrus.Fields{
				"sale_id":   sale.ID.Hex(),
				"raffle_id": sale.RaffleID.Hex(),
				"status":    string(c.status),
				"numbers":   sale.Numbers,
			}).Info("expired stale sale, numbers released")
		}
	}

	return released, nil
}

func dedupe(numbers []int) []int {
	seen := make(map[int]struct{}, len(numbers))
	out := make([]int, 0, len(numbers))
	for _, n := range numbers {
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}
